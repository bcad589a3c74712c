package suitability

import (
	"context"
	"fmt"
	"os"
	"sync"

	"beemap-platform/internal/features"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

// RegistryConfig controls where the persisted model lives and how the
// fallback trains.
type RegistryConfig struct {
	BundlePath      string
	TrainingSeed    int64
	TrainingSamples int
}

// Registry owns the process-wide suitability model. It is injected
// into the components that predict, rather than looked up ambiently.
// Load and reload are single-writer; concurrent readers always see a
// consistent, fully constructed model snapshot.
type Registry struct {
	cfg     RegistryConfig
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu    sync.RWMutex
	model *Model
}

// NewRegistry creates an empty registry. No model is loaded until
// Init or the first Model call.
func NewRegistry(cfg RegistryConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Registry {
	if cfg.TrainingSeed == 0 {
		cfg.TrainingSeed = DefaultTrainingSeed
	}
	if cfg.TrainingSamples == 0 {
		cfg.TrainingSamples = DefaultTrainingSamples
	}
	return &Registry{
		cfg:     cfg,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Init loads the persisted bundle, or trains and persists the seeded
// demonstration fallback when the bundle is absent or invalid. The
// fallback is an explicit, logged state, not swallowed: callers can
// read the provenance off the resulting model.
func (r *Registry) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadOrTrainLocked(ctx)
}

// Model returns the current model, lazily initializing on first use.
func (r *Registry) Model(ctx context.Context) (*Model, error) {
	r.mu.RLock()
	if r.model != nil {
		m := r.model
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.model == nil {
		if err := r.loadOrTrainLocked(ctx); err != nil {
			return nil, err
		}
	}
	return r.model, nil
}

// Reload replaces the model from disk (or fallback training) while
// in-flight predictions keep reading the previous snapshot.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadOrTrainLocked(ctx)
}

func (r *Registry) loadOrTrainLocked(ctx context.Context) error {
	if r.cfg.BundlePath != "" {
		if _, err := os.Stat(r.cfg.BundlePath); err == nil {
			bundle, err := LoadBundle(r.cfg.BundlePath, schemaNames())
			if err == nil {
				r.model = NewFromBundle(bundle)
				r.metrics.RecordModelLoad("suitability", "loaded")
				r.logger.Info(ctx, "[MODEL_LOADED] Suitability model loaded from bundle", logging.Fields{
					"bundle_path":   r.cfg.BundlePath,
					"model_version": r.model.Version(),
				})
				return nil
			}
			r.metrics.RecordModelLoad("suitability", "load_failed")
			r.logger.Warn(ctx, "[MODEL_LOAD_FAILED] Falling back to in-process training", logging.Fields{
				"bundle_path": r.cfg.BundlePath,
				"error":       err.Error(),
			})
		}
	}

	model, err := TrainDemo(r.cfg.TrainingSeed, r.cfg.TrainingSamples)
	if err != nil {
		return fmt.Errorf("fallback training failed: %w", err)
	}
	r.model = model
	r.metrics.RecordModelLoad("suitability", "trained_fallback")
	r.logger.Info(ctx, "[MODEL_TRAINED] Demonstration suitability model trained", logging.Fields{
		"seed":    r.cfg.TrainingSeed,
		"samples": r.cfg.TrainingSamples,
	})

	// Persist the fallback for reuse by later processes.
	if r.cfg.BundlePath != "" {
		if err := SaveBundle(model.Bundle(), r.cfg.BundlePath); err != nil {
			r.logger.Warn(ctx, "[MODEL_SAVE_FAILED] Could not persist fallback model", logging.Fields{
				"bundle_path": r.cfg.BundlePath,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

func schemaNames() []string {
	return append([]string{}, features.SuitabilitySchema...)
}
