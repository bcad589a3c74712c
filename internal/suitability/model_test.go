package suitability

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"beemap-platform/internal/features"
	"beemap-platform/internal/models"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

// One collector per test binary; prometheus rejects duplicate registration.
var testMetrics = metrics.NewCollector("suitability_test")

func testLogger() *logging.StructuredLogger {
	return logging.NewStructuredLogger("suitability-test", "test", logging.ErrorLevel)
}

func trainTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := TrainDemo(DefaultTrainingSeed, 200)
	if err != nil {
		t.Fatalf("TrainDemo() error = %v", err)
	}
	return model
}

func exampleFeatures() map[string]float64 {
	return map[string]float64{
		"ndvi": 0.72, "evi": 0.68, "forest_pct": 0.35, "shrubland_pct": 0.40,
		"grassland_pct": 0.15, "cropland_pct": 0.05, "urban_pct": 0.02,
		"water_pct": 0.03, "elevation": 0.45, "slope": 0.30, "temp_avg": 0.50,
		"rainfall_mm": 0.65, "wind_speed": 0.25, "water_distance_km": 0.15,
	}
}

func TestPredict_ClampedToRange(t *testing.T) {
	model := trainTestModel(t)

	tests := []struct {
		name   string
		mutate func(map[string]float64)
	}{
		{"typical features", func(map[string]float64) {}},
		{"extreme negative features", func(f map[string]float64) {
			for k := range f {
				f[k] = -1e6
			}
		}},
		{"extreme positive features", func(f map[string]float64) {
			for k := range f {
				f[k] = 1e6
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := exampleFeatures()
			tt.mutate(f)

			result, err := model.Predict(f)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if result.Score < 0 || result.Score > 100 {
				t.Errorf("score = %v, want within [0, 100]", result.Score)
			}
		})
	}
}

func TestPredict_NotReady(t *testing.T) {
	var model *Model
	_, err := model.Predict(exampleFeatures())
	if err == nil {
		t.Fatal("Predict() on absent model should fail")
	}
	if _, ok := err.(*models.ModelNotReadyError); !ok {
		t.Errorf("error type = %T, want *models.ModelNotReadyError", err)
	}
}

func TestPredict_UnknownFeatureFails(t *testing.T) {
	model := trainTestModel(t)
	f := exampleFeatures()
	f["soil_ph"] = 6.5

	_, err := model.Predict(f)
	if err == nil {
		t.Fatal("Predict() with unknown feature should fail")
	}
	if _, ok := err.(*models.SchemaMismatchError); !ok {
		t.Errorf("error type = %T, want *models.SchemaMismatchError", err)
	}
}

func TestTrainDemo_Deterministic(t *testing.T) {
	a, err := TrainDemo(7, 150)
	if err != nil {
		t.Fatalf("TrainDemo() error = %v", err)
	}
	b, err := TrainDemo(7, 150)
	if err != nil {
		t.Fatalf("TrainDemo() error = %v", err)
	}

	ra, _ := a.Predict(exampleFeatures())
	rb, _ := b.Predict(exampleFeatures())
	if math.Abs(ra.Score-rb.Score) > 1e-9 {
		t.Errorf("same seed gave different predictions: %v vs %v", ra.Score, rb.Score)
	}
}

func TestFeatureImportances_NonNegativeAndComplete(t *testing.T) {
	model := trainTestModel(t)

	importances, err := model.FeatureImportances()
	if err != nil {
		t.Fatalf("FeatureImportances() error = %v", err)
	}
	if len(importances) != len(features.SuitabilitySchema) {
		t.Fatalf("importance count = %d, want %d", len(importances), len(features.SuitabilitySchema))
	}

	var total float64
	for name, imp := range importances {
		if imp < 0 {
			t.Errorf("importance of %s = %v, want non-negative", name, imp)
		}
		total += imp
	}
	if math.Abs(total-1.0) > 1e-6 {
		t.Errorf("importances sum = %v, want 1.0", total)
	}
}

func TestBundle_RoundTripPreservesPredictions(t *testing.T) {
	model := trainTestModel(t)
	path := filepath.Join(t.TempDir(), "apiary_model.json")

	if err := SaveBundle(model.Bundle(), path); err != nil {
		t.Fatalf("SaveBundle() error = %v", err)
	}

	bundle, err := LoadBundle(path, features.SuitabilitySchema)
	if err != nil {
		t.Fatalf("LoadBundle() error = %v", err)
	}
	loaded := NewFromBundle(bundle)

	f := exampleFeatures()
	original, err := model.Predict(f)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	restored, err := loaded.Predict(f)
	if err != nil {
		t.Fatalf("Predict() after load error = %v", err)
	}

	if math.Abs(original.Score-restored.Score) > 1e-6 {
		t.Errorf("round-trip score = %v, want %v", restored.Score, original.Score)
	}
	if loaded.Provenance() != models.ProvenanceLoaded {
		t.Errorf("loaded provenance = %v, want %v", loaded.Provenance(), models.ProvenanceLoaded)
	}
}

func TestLoadBundle_RejectsWrongKind(t *testing.T) {
	model := trainTestModel(t)
	bundle := model.Bundle()
	bundle.Kind = BundleKindClassifier

	path := filepath.Join(t.TempDir(), "wrong_kind.json")
	if err := SaveBundle(bundle, path); err != nil {
		t.Fatalf("SaveBundle() error = %v", err)
	}

	_, err := LoadBundle(path, features.SuitabilitySchema)
	if err == nil {
		t.Fatal("LoadBundle() with classifier kind should fail")
	}
	if _, ok := err.(*models.SchemaMismatchError); !ok {
		t.Errorf("error type = %T, want *models.SchemaMismatchError", err)
	}
}

func TestLoadBundle_RejectsSchemaMismatch(t *testing.T) {
	model := trainTestModel(t)
	bundle := model.Bundle()
	bundle.FeatureNames = append([]string{}, bundle.FeatureNames...)
	bundle.FeatureNames[0] = "renamed_feature"

	path := filepath.Join(t.TempDir(), "wrong_schema.json")
	if err := SaveBundle(bundle, path); err != nil {
		t.Fatalf("SaveBundle() error = %v", err)
	}

	if _, err := LoadBundle(path, features.SuitabilitySchema); err == nil {
		t.Fatal("LoadBundle() with renamed feature should fail")
	}
}

func TestLoadBundle_RejectsCorruptForest(t *testing.T) {
	corruptions := []struct {
		name    string
		corrupt func(*Bundle)
	}{
		{
			name: "out of range feature index",
			corrupt: func(b *Bundle) {
				tree := b.Forest.Trees[0]
				for tree.Left != nil {
					tree = tree.Left
				}
				tree.Left = &TreeNode{Value: 1}
				tree.Right = &TreeNode{Value: 2}
				tree.Feature = 99
			},
		},
		{
			name:    "empty tree list",
			corrupt: func(b *Bundle) { b.Forest.Trees = nil },
		},
		{
			name:    "feature count mismatch",
			corrupt: func(b *Bundle) { b.Forest.NumFeatures = 3 },
		},
		{
			name: "split node with single child",
			corrupt: func(b *Bundle) {
				b.Forest.Trees[0] = &TreeNode{Feature: 0, Left: &TreeNode{Value: 1}}
			},
		},
	}

	for _, tt := range corruptions {
		t.Run(tt.name, func(t *testing.T) {
			bundle := trainTestModel(t).Bundle()
			tt.corrupt(bundle)

			path := filepath.Join(t.TempDir(), "corrupt_forest.json")
			if err := SaveBundle(bundle, path); err != nil {
				t.Fatalf("SaveBundle() error = %v", err)
			}

			_, err := LoadBundle(path, features.SuitabilitySchema)
			if err == nil {
				t.Fatal("LoadBundle() with corrupt forest should fail")
			}
			if kind := models.ErrorKind(err); kind != models.KindSchemaMismatch {
				t.Errorf("error kind = %s, want %s", kind, models.KindSchemaMismatch)
			}
		})
	}
}

func TestExplain_TopFiveAndIdempotent(t *testing.T) {
	model := trainTestModel(t)
	f := exampleFeatures()

	first, err := model.Explain(f)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	second, err := model.Explain(f)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}

	if len(first.TopFactors) != 5 {
		t.Fatalf("top factor count = %d, want 5", len(first.TopFactors))
	}
	for i := 1; i < len(first.TopFactors); i++ {
		if first.TopFactors[i].Importance > first.TopFactors[i-1].Importance {
			t.Errorf("factors not sorted by importance at position %d", i)
		}
	}

	if first.Score != second.Score {
		t.Errorf("explain scores differ: %v vs %v", first.Score, second.Score)
	}
	for i := range first.TopFactors {
		if first.TopFactors[i] != second.TopFactors[i] {
			t.Errorf("factor %d differs between identical calls", i)
		}
	}
}

func TestScoreText_Buckets(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{90, "Excellent"},
		{85, "Excellent"},
		{75, "Good"},
		{55, "Moderately"},
		{35, "significant limitations"},
		{10, "Poorly"},
	}

	for _, tt := range tests {
		got := scoreText(tt.score)
		if !containsSubstring(got, tt.want) {
			t.Errorf("scoreText(%v) = %q, want substring %q", tt.score, got, tt.want)
		}
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestRegistry_FallbackThenReloadFromDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry_model.json")

	reg := NewRegistry(RegistryConfig{
		BundlePath:      path,
		TrainingSeed:    11,
		TrainingSamples: 120,
	}, testLogger(), testMetrics)

	model, err := reg.Model(ctx)
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if model.Provenance() != models.ProvenanceTrainedFallback {
		t.Errorf("first model provenance = %v, want %v", model.Provenance(), models.ProvenanceTrainedFallback)
	}

	// Fallback training persisted the bundle; a reload should use it.
	if err := reg.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	reloaded, err := reg.Model(ctx)
	if err != nil {
		t.Fatalf("Model() after reload error = %v", err)
	}
	if reloaded.Provenance() != models.ProvenanceLoaded {
		t.Errorf("reloaded provenance = %v, want %v", reloaded.Provenance(), models.ProvenanceLoaded)
	}

	f := exampleFeatures()
	a, _ := model.Predict(f)
	b, _ := reloaded.Predict(f)
	if math.Abs(a.Score-b.Score) > 1e-6 {
		t.Errorf("reloaded prediction = %v, want %v", b.Score, a.Score)
	}
}

func TestGenerateTrainingData_SeededAndClamped(t *testing.T) {
	a, ya := GenerateTrainingData(50, rand.New(rand.NewSource(3)))
	b, yb := GenerateTrainingData(50, rand.New(rand.NewSource(3)))

	for i := range ya {
		if ya[i] != yb[i] {
			t.Fatalf("seeded generation differs at sample %d", i)
		}
		if ya[i] < 0 || ya[i] > 100 {
			t.Errorf("target %d = %v, out of [0, 100]", i, ya[i])
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("seeded features differ at (%d, %d)", i, j)
			}
		}
	}
}
