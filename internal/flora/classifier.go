package flora

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"beemap-platform/internal/features"
	"beemap-platform/internal/models"
)

// Flora class taxonomy. Classes above ClassMixed are available for
// configurations with a larger class count.
const (
	ClassBackground      = 0
	ClassRosemary        = 1
	ClassOtherVegetation = 2
	ClassMixed           = 3
)

// DefaultNumClasses covers the base taxonomy.
const DefaultNumClasses = 4

// DefaultClassifierSeed initializes untrained network weights.
const DefaultClassifierSeed int64 = 42

// ClassNames maps base class ids to display labels.
var ClassNames = map[int]string{
	ClassBackground:      "background",
	ClassRosemary:        "rosemary",
	ClassOtherVegetation: "other_vegetation",
	ClassMixed:           "mixed",
}

// Config controls classifier construction and image tiling.
type Config struct {
	Channels    []string
	NumClasses  int
	Tiling      features.TilingConfig
	Seed        int64
	Parallelism int
}

// DefaultConfig uses the 10-channel stack contract and base taxonomy.
func DefaultConfig() Config {
	return Config{
		Channels:    features.StackChannels10,
		NumClasses:  DefaultNumClasses,
		Tiling:      features.DefaultTiling(),
		Seed:        DefaultClassifierSeed,
		Parallelism: runtime.NumCPU(),
	}
}

func (c *Config) normalize() {
	if len(c.Channels) == 0 {
		c.Channels = features.StackChannels10
	}
	if c.NumClasses < 2 {
		c.NumClasses = DefaultNumClasses
	}
	if c.Tiling.PatchSize <= 0 {
		c.Tiling = features.DefaultTiling()
	}
	if c.Seed == 0 {
		c.Seed = DefaultClassifierSeed
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
}

// ClassMap is a full-resolution per-pixel class assignment.
type ClassMap struct {
	Classes    [][]int `json:"classes"`
	NumClasses int     `json:"num_classes"`
	PatchCount int     `json:"patch_count"`
}

// Distribution returns the fraction of pixels per class id, in [0, 1].
func (m *ClassMap) Distribution() map[int]float64 {
	counts := make(map[int]float64)
	var total float64
	for _, row := range m.Classes {
		for _, c := range row {
			counts[c]++
			total++
		}
	}
	if total == 0 {
		return counts
	}
	for c := range counts {
		counts[c] /= total
	}
	return counts
}

// Classifier assigns flora classes to image patches and whole images.
// The underlying network is read-only after construction; concurrent
// PredictPatch/PredictImage calls are safe.
type Classifier struct {
	cfg        Config
	net        *ConvNet
	trained    bool
	provenance models.ModelProvenance
}

// NewClassifier builds an untrained classifier with seeded random
// weights. Its outputs satisfy the shape contract but are meaningless
// until training; Trained reports false so callers can fall back to
// the threshold detector.
func NewClassifier(cfg Config) *Classifier {
	cfg.normalize()
	return &Classifier{
		cfg:        cfg,
		net:        NewConvNet(len(cfg.Channels), cfg.NumClasses, cfg.Seed),
		trained:    false,
		provenance: models.ProvenanceTrainedFallback,
	}
}

// NewClassifierFromBundle restores a persisted classifier.
func NewClassifierFromBundle(b *ClassifierBundle, cfg Config) (*Classifier, error) {
	cfg.normalize()
	if err := b.validate(cfg.Channels); err != nil {
		return nil, err
	}
	cfg.Channels = b.Channels
	cfg.NumClasses = b.Net.NumClasses
	return &Classifier{
		cfg:        cfg,
		net:        b.Net,
		trained:    b.Trained,
		provenance: models.ProvenanceLoaded,
	}, nil
}

// Trained reports whether the network weights come from real training.
// Untrained classifiers are usable for shape testing only.
func (c *Classifier) Trained() bool { return c.trained }

// Provenance reports how the classifier weights were obtained.
func (c *Classifier) Provenance() models.ModelProvenance { return c.provenance }

// NumClasses returns the configured class count.
func (c *Classifier) NumClasses() int { return c.cfg.NumClasses }

// Channels returns the stack channel contract this classifier expects.
func (c *Classifier) Channels() []string {
	return append([]string{}, c.cfg.Channels...)
}

// PredictPatch classifies a single patch stack and returns the winning
// class id together with its softmax probability.
func (c *Classifier) PredictPatch(patch [][][]float64) (int, float64, error) {
	if c == nil || c.net == nil {
		return 0, 0, &models.ModelNotReadyError{Model: "flora"}
	}
	if len(patch) != len(c.cfg.Channels) {
		return 0, 0, &models.SchemaMismatchError{
			Expected: fmt.Sprintf("%d-channel patch stack", len(c.cfg.Channels)),
			Got:      fmt.Sprintf("%d channels", len(patch)),
		}
	}

	probs, err := c.net.Forward(patch)
	if err != nil {
		return 0, 0, fmt.Errorf("patch inference: %w", err)
	}

	best, bestProb := 0, probs[0]
	for class, p := range probs {
		if p > bestProb {
			best, bestProb = class, p
		}
	}
	return best, bestProb, nil
}

// PredictImage tiles the stack into overlapping patches, classifies
// them in parallel, and stitches patch classes back into a
// full-resolution class map. Pixels no patch covers stay background.
func (c *Classifier) PredictImage(ctx context.Context, stack *features.Stack) (*ClassMap, error) {
	if c == nil || c.net == nil {
		return nil, &models.ModelNotReadyError{Model: "flora"}
	}
	if err := c.checkStack(stack); err != nil {
		return nil, err
	}

	patches, err := features.ExtractPatches(stack, c.cfg.Tiling)
	if err != nil {
		return nil, fmt.Errorf("tiling image: %w", err)
	}

	results := make([]patchResult, len(patches))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Parallelism)
	for i, patch := range patches {
		i, patch := i, patch
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			class, _, err := c.PredictPatch(patch.Data)
			if err != nil {
				return err
			}
			results[i] = patchResult{Row: patch.Row, Col: patch.Col, Class: class}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	_, h, w := stack.Shape()
	classes := stitchPatches(results, h, w, c.cfg.Tiling.PatchSize)
	return &ClassMap{
		Classes:    classes,
		NumClasses: c.cfg.NumClasses,
		PatchCount: len(patches),
	}, nil
}

func (c *Classifier) checkStack(stack *features.Stack) error {
	if stack == nil || len(stack.Channels) != len(c.cfg.Channels) {
		got := 0
		if stack != nil {
			got = len(stack.Channels)
		}
		return &models.SchemaMismatchError{
			Expected: fmt.Sprintf("%d-channel stack", len(c.cfg.Channels)),
			Got:      fmt.Sprintf("%d channels", got),
		}
	}
	for i, name := range c.cfg.Channels {
		if stack.Channels[i] != name {
			return &models.SchemaMismatchError{
				Expected: fmt.Sprintf("channel %d = %s", i, name),
				Got:      stack.Channels[i],
			}
		}
	}
	return nil
}
