package suitability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"beemap-platform/internal/models"
)

// Bundle kinds. The tagged kind catches a classifier bundle handed to
// the regressor (and vice versa) at load time instead of at first
// predict.
const (
	BundleKindRegressor  = "regressor"
	BundleKindClassifier = "classifier"
)

// BundleVersion is the current persistence format version.
const BundleVersion = "1"

// Bundle is the serialized form of a trained suitability model: the
// forest, its normalization parameters and the feature-name schema are
// versioned together and never loaded separately.
type Bundle struct {
	Kind         string          `json:"kind"`
	Version      string          `json:"version"`
	FeatureNames []string        `json:"feature_names"`
	Scaler       *StandardScaler `json:"scaler"`
	Forest       *Forest         `json:"forest"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SaveBundle writes the bundle as JSON, creating parent directories.
func SaveBundle(b *Bundle, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode model bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model bundle: %w", err)
	}
	return nil
}

// LoadBundle reads and validates a persisted bundle against the
// expected kind and feature schema. Any mismatch is a descriptive
// schema error; the caller falls back to in-process training.
func LoadBundle(path string, expectSchema []string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode model bundle: %w", err)
	}

	if b.Kind != BundleKindRegressor {
		return nil, &models.SchemaMismatchError{
			Expected: fmt.Sprintf("bundle kind %s", BundleKindRegressor),
			Got:      b.Kind,
		}
	}
	if b.Scaler == nil || b.Forest == nil {
		return nil, &models.SchemaMismatchError{
			Expected: "bundle with scaler and forest",
			Got:      "partial bundle",
		}
	}
	if len(b.FeatureNames) != len(expectSchema) {
		return nil, &models.SchemaMismatchError{
			Expected: fmt.Sprintf("%d features", len(expectSchema)),
			Got:      fmt.Sprintf("%d features", len(b.FeatureNames)),
		}
	}
	for i, name := range expectSchema {
		if b.FeatureNames[i] != name {
			return nil, &models.SchemaMismatchError{
				Expected: fmt.Sprintf("feature %d = %s", i, name),
				Got:      b.FeatureNames[i],
			}
		}
	}
	if len(b.Scaler.Mean) != len(expectSchema) || len(b.Scaler.Scale) != len(expectSchema) {
		return nil, &models.SchemaMismatchError{
			Expected: fmt.Sprintf("scaler with %d parameters", len(expectSchema)),
			Got:      fmt.Sprintf("%d mean / %d scale", len(b.Scaler.Mean), len(b.Scaler.Scale)),
		}
	}
	if b.Forest.NumFeatures != len(expectSchema) {
		return nil, &models.SchemaMismatchError{
			Expected: fmt.Sprintf("forest over %d features", len(expectSchema)),
			Got:      fmt.Sprintf("forest over %d features", b.Forest.NumFeatures),
		}
	}
	if err := b.Forest.Validate(); err != nil {
		return nil, &models.SchemaMismatchError{
			Expected: "structurally valid forest",
			Got:      err.Error(),
		}
	}
	return &b, nil
}
