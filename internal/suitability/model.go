// Package suitability implements the trained regressor that maps
// area-level features to a 0-100 beekeeping suitability score, together
// with its persistence, explanation and lifecycle management.
package suitability

import (
	"math/rand"
	"time"

	"beemap-platform/internal/features"
	"beemap-platform/internal/models"
)

// Model is a trained suitability regressor. It is read-only after
// construction and safe for concurrent Predict/Explain calls.
type Model struct {
	schema     []string
	scaler     *StandardScaler
	forest     *Forest
	createdAt  time.Time
	provenance models.ModelProvenance
}

// NewFromBundle builds a model from a validated persisted bundle.
func NewFromBundle(b *Bundle) *Model {
	return &Model{
		schema:     b.FeatureNames,
		scaler:     b.Scaler,
		forest:     b.Forest,
		createdAt:  b.CreatedAt,
		provenance: models.ProvenanceLoaded,
	}
}

// TrainDemo trains the demonstration fallback model in-process on
// seeded synthetic data. Reproducible: identical seeds yield identical
// models and therefore identical predictions.
func TrainDemo(seed int64, samples int) (*Model, error) {
	rng := rand.New(rand.NewSource(seed))
	x, y := GenerateTrainingData(samples, rng)

	scaler, err := FitScaler(x)
	if err != nil {
		return nil, err
	}
	scaled, err := scaler.TransformAll(x)
	if err != nil {
		return nil, err
	}

	forest := TrainForest(scaled, y, DefaultForestConfig(), rng)

	return &Model{
		schema:     features.SuitabilitySchema,
		scaler:     scaler,
		forest:     forest,
		createdAt:  time.Now().UTC(),
		provenance: models.ProvenanceTrainedFallback,
	}, nil
}

// Bundle returns the persistable form of the model.
func (m *Model) Bundle() *Bundle {
	return &Bundle{
		Kind:         BundleKindRegressor,
		Version:      BundleVersion,
		FeatureNames: m.schema,
		Scaler:       m.scaler,
		Forest:       m.forest,
		CreatedAt:    m.createdAt,
	}
}

// Provenance reports whether this model was loaded from a persisted
// bundle or trained as an in-process fallback.
func (m *Model) Provenance() models.ModelProvenance { return m.provenance }

// Version identifies the model for response metadata.
func (m *Model) Version() string {
	return BundleKindRegressor + "-v" + BundleVersion + "-" + m.createdAt.UTC().Format("20060102T150405Z")
}

// Predict maps named area features to a suitability score, clamped to
// [0, 100] regardless of the raw ensemble output.
func (m *Model) Predict(values map[string]float64) (*models.PredictionResult, error) {
	if m == nil || m.forest == nil {
		return nil, &models.ModelNotReadyError{Model: "suitability"}
	}

	vector, err := features.AssembleVector(values)
	if err != nil {
		return nil, err
	}
	scaled, err := m.scaler.Transform(vector)
	if err != nil {
		return nil, err
	}

	score := clamp(m.forest.Predict(scaled), 0, 100)

	used := make(map[string]float64, len(m.schema))
	for i, name := range m.schema {
		used[name] = vector[i]
	}

	return &models.PredictionResult{
		Score:        score,
		Features:     used,
		ModelVersion: m.Version(),
		Provenance:   m.provenance,
	}, nil
}

// FeatureImportances returns the model-intrinsic, impurity-based
// importance of every schema feature. All weights are non-negative.
func (m *Model) FeatureImportances() (map[string]float64, error) {
	if m == nil || m.forest == nil {
		return nil, &models.ModelNotReadyError{Model: "suitability"}
	}

	out := make(map[string]float64, len(m.schema))
	for i, name := range m.schema {
		out[name] = m.forest.Importances[i]
	}
	return out, nil
}
