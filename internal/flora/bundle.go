package flora

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"beemap-platform/internal/models"
)

// classifierBundleKind tags the persisted form so a regressor bundle
// handed to the classifier fails at load, not at first predict.
const classifierBundleKind = "classifier"

// ClassifierBundleVersion is the current persistence format version.
const ClassifierBundleVersion = "1"

// ClassifierBundle is the serialized form of a classifier: network
// weights, the stack channel contract they were trained against, and
// whether the weights come from real training.
type ClassifierBundle struct {
	Kind      string    `json:"kind"`
	Version   string    `json:"version"`
	Channels  []string  `json:"channels"`
	Net       *ConvNet  `json:"net"`
	Trained   bool      `json:"trained"`
	CreatedAt time.Time `json:"created_at"`
}

// Bundle returns the persistable form of the classifier.
func (c *Classifier) Bundle() *ClassifierBundle {
	return &ClassifierBundle{
		Kind:      classifierBundleKind,
		Version:   ClassifierBundleVersion,
		Channels:  c.cfg.Channels,
		Net:       c.net,
		Trained:   c.trained,
		CreatedAt: time.Now().UTC(),
	}
}

// SaveClassifierBundle writes the bundle as JSON, creating parent
// directories.
func SaveClassifierBundle(b *ClassifierBundle, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode classifier bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write classifier bundle: %w", err)
	}
	return nil
}

// LoadClassifierBundle reads and validates a persisted classifier
// bundle against the expected channel contract.
func LoadClassifierBundle(path string, expectChannels []string) (*ClassifierBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier bundle: %w", err)
	}

	var b ClassifierBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode classifier bundle: %w", err)
	}
	if err := b.validate(expectChannels); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *ClassifierBundle) validate(expectChannels []string) error {
	if b.Kind != classifierBundleKind {
		return &models.SchemaMismatchError{
			Expected: fmt.Sprintf("bundle kind %s", classifierBundleKind),
			Got:      b.Kind,
		}
	}
	if b.Net == nil {
		return &models.SchemaMismatchError{
			Expected: "bundle with network weights",
			Got:      "partial bundle",
		}
	}
	if err := b.Net.Validate(); err != nil {
		return &models.SchemaMismatchError{
			Expected: "well-formed network weights",
			Got:      err.Error(),
		}
	}
	if len(b.Channels) != len(expectChannels) || b.Net.InChannels != len(expectChannels) {
		return &models.SchemaMismatchError{
			Expected: fmt.Sprintf("%d channels", len(expectChannels)),
			Got:      fmt.Sprintf("%d channels", len(b.Channels)),
		}
	}
	for i, name := range expectChannels {
		if b.Channels[i] != name {
			return &models.SchemaMismatchError{
				Expected: fmt.Sprintf("channel %d = %s", i, name),
				Got:      b.Channels[i],
			}
		}
	}
	return nil
}
