package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"beemap-platform/internal/features"
	"beemap-platform/internal/suitability"
)

func TestRunTrain_WritesBundle(t *testing.T) {
	outputDir = t.TempDir()
	defer func() { outputDir = "." }()
	trainSeed = 11
	trainSamples = 120

	var out bytes.Buffer
	if exitCode := runTrain(&out); exitCode != 0 {
		t.Fatalf("runTrain() exit code = %d, output:\n%s", exitCode, out.String())
	}

	bundlePath := filepath.Join(outputDir, "suitability_model.json")
	bundle, err := suitability.LoadBundle(bundlePath, features.SuitabilitySchema)
	if err != nil {
		t.Fatalf("LoadBundle() error = %v", err)
	}

	model := suitability.NewFromBundle(bundle)
	if _, err := model.Predict(map[string]float64{"ndvi": 0.5}); err != nil {
		t.Errorf("Predict() on trained bundle error = %v", err)
	}

	if !strings.Contains(out.String(), "Feature importances") {
		t.Errorf("output missing importances section:\n%s", out.String())
	}
}

func TestRunTrain_RejectsEmptyTrainingSet(t *testing.T) {
	outputDir = t.TempDir()
	defer func() { outputDir = "." }()
	trainSeed = 11
	trainSamples = 0

	var out bytes.Buffer
	if exitCode := runTrain(&out); exitCode == 0 {
		t.Fatalf("runTrain() exit code = 0, want failure, output:\n%s", out.String())
	}
}
