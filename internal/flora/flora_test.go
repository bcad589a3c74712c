package flora

import (
	"context"
	"path/filepath"
	"testing"

	"beemap-platform/internal/features"
	"beemap-platform/internal/models"
)

func constantGrid(h, w int, value float64) models.Grid {
	g := models.NewGrid(h, w)
	for y := range g {
		for x := range g[y] {
			g[y][x] = value
		}
	}
	return g
}

func testStack(h, w int) *features.Stack {
	channels := []string{"red", "nir", "ndvi"}
	data := make([]models.Grid, len(channels))
	for i := range data {
		g := models.NewGrid(h, w)
		for y := range g {
			for x := range g[y] {
				g[y][x] = float64(i+1) * float64(y*w+x) / float64(h*w)
			}
		}
		data[i] = g
	}
	return &features.Stack{Channels: channels, Data: data}
}

func testClassifier() *Classifier {
	return NewClassifier(Config{
		Channels:   []string{"red", "nir", "ndvi"},
		NumClasses: DefaultNumClasses,
		Tiling:     features.TilingConfig{PatchSize: 8, Stride: 8},
		Seed:       5,
	})
}

func TestStitchPatches_SeamPolicy(t *testing.T) {
	// Two 4x4 patches overlapping at columns 2..3 of a 4x6 image.
	results := []patchResult{
		{Row: 0, Col: 0, Class: 1},
		{Row: 0, Col: 2, Class: 2},
	}
	classes := stitchPatches(results, 4, 6, 4)

	tests := []struct {
		name string
		y, x int
		want int
	}{
		{"only first patch", 0, 0, 1},
		{"only second patch", 2, 4, 2},
		{"overlap, later weight above cutoff overwrites", 2, 3, 2},
		{"overlap, later weight below cutoff keeps first writer", 0, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classes[tt.y][tt.x]; got != tt.want {
				t.Errorf("class at (%d,%d) = %d, want %d", tt.y, tt.x, got, tt.want)
			}
		})
	}
}

func TestStitchPatches_BackgroundIsAlwaysOverwritten(t *testing.T) {
	// A background patch writes first; a later patch must claim the
	// overlap even where its weight is below the cutoff.
	results := []patchResult{
		{Row: 0, Col: 0, Class: ClassBackground},
		{Row: 0, Col: 2, Class: ClassOtherVegetation},
	}
	classes := stitchPatches(results, 4, 6, 4)

	if got := classes[0][3]; got != ClassOtherVegetation {
		t.Errorf("low-weight pixel over background = %d, want %d", got, ClassOtherVegetation)
	}
	if got := classes[2][3]; got != ClassOtherVegetation {
		t.Errorf("high-weight pixel over background = %d, want %d", got, ClassOtherVegetation)
	}
	if got := classes[0][0]; got != ClassBackground {
		t.Errorf("background-only pixel = %d, want background", got)
	}
}

func TestStitchPatches_UncoveredPixelsAreBackground(t *testing.T) {
	classes := stitchPatches([]patchResult{{Row: 0, Col: 0, Class: 3}}, 4, 7, 4)
	for y := 0; y < 4; y++ {
		for x := 4; x < 7; x++ {
			if classes[y][x] != ClassBackground {
				t.Errorf("uncovered pixel (%d,%d) = %d, want background", y, x, classes[y][x])
			}
		}
	}
	if classes[1][1] != 3 {
		t.Errorf("covered pixel = %d, want 3", classes[1][1])
	}
}

func TestPredictPatch_ShapeContract(t *testing.T) {
	c := testClassifier()

	patch := make([][][]float64, 3)
	for i := range patch {
		patch[i] = constantGrid(8, 8, 0.4)
	}

	class, prob, err := c.PredictPatch(patch)
	if err != nil {
		t.Fatalf("PredictPatch() error = %v", err)
	}
	if class < 0 || class >= c.NumClasses() {
		t.Errorf("class = %d, want within [0, %d)", class, c.NumClasses())
	}
	if prob <= 0 || prob > 1 {
		t.Errorf("probability = %v, want within (0, 1]", prob)
	}

	_, _, err = c.PredictPatch(patch[:2])
	if err == nil {
		t.Fatal("PredictPatch() with missing channel should fail")
	}
	if _, ok := err.(*models.SchemaMismatchError); !ok {
		t.Errorf("error type = %T, want *models.SchemaMismatchError", err)
	}
}

func TestPredictImage_ShapeAndDeterminism(t *testing.T) {
	c := testClassifier()
	stack := testStack(16, 16)
	ctx := context.Background()

	first, err := c.PredictImage(ctx, stack)
	if err != nil {
		t.Fatalf("PredictImage() error = %v", err)
	}
	if len(first.Classes) != 16 || len(first.Classes[0]) != 16 {
		t.Fatalf("class map shape = %dx%d, want 16x16", len(first.Classes), len(first.Classes[0]))
	}
	if first.PatchCount != 4 {
		t.Errorf("patch count = %d, want 4", first.PatchCount)
	}
	for y, row := range first.Classes {
		for x, class := range row {
			if class < 0 || class >= c.NumClasses() {
				t.Fatalf("class at (%d,%d) = %d, out of range", y, x, class)
			}
		}
	}

	second, err := c.PredictImage(ctx, stack)
	if err != nil {
		t.Fatalf("PredictImage() error = %v", err)
	}
	for y := range first.Classes {
		for x := range first.Classes[y] {
			if first.Classes[y][x] != second.Classes[y][x] {
				t.Fatalf("nondeterministic class at (%d,%d)", y, x)
			}
		}
	}
}

func TestPredictImage_WrongChannelOrderFails(t *testing.T) {
	c := testClassifier()
	stack := testStack(16, 16)
	stack.Channels = []string{"nir", "red", "ndvi"}

	_, err := c.PredictImage(context.Background(), stack)
	if err == nil {
		t.Fatal("PredictImage() with reordered channels should fail")
	}
	if _, ok := err.(*models.SchemaMismatchError); !ok {
		t.Errorf("error type = %T, want *models.SchemaMismatchError", err)
	}
}

func TestClassifier_UntrainedFlagAndBundleRoundTrip(t *testing.T) {
	c := testClassifier()
	if c.Trained() {
		t.Error("freshly constructed classifier should not report trained")
	}

	path := filepath.Join(t.TempDir(), "flora_model.json")
	if err := SaveClassifierBundle(c.Bundle(), path); err != nil {
		t.Fatalf("SaveClassifierBundle() error = %v", err)
	}

	bundle, err := LoadClassifierBundle(path, c.Channels())
	if err != nil {
		t.Fatalf("LoadClassifierBundle() error = %v", err)
	}
	restored, err := NewClassifierFromBundle(bundle, Config{
		Channels: c.Channels(),
		Tiling:   features.TilingConfig{PatchSize: 8, Stride: 8},
	})
	if err != nil {
		t.Fatalf("NewClassifierFromBundle() error = %v", err)
	}
	if restored.Provenance() != models.ProvenanceLoaded {
		t.Errorf("restored provenance = %v, want %v", restored.Provenance(), models.ProvenanceLoaded)
	}

	stack := testStack(16, 16)
	ctx := context.Background()
	a, err := c.PredictImage(ctx, stack)
	if err != nil {
		t.Fatalf("PredictImage() error = %v", err)
	}
	b, err := restored.PredictImage(ctx, stack)
	if err != nil {
		t.Fatalf("PredictImage() after restore error = %v", err)
	}
	for y := range a.Classes {
		for x := range a.Classes[y] {
			if a.Classes[y][x] != b.Classes[y][x] {
				t.Fatalf("round-trip class differs at (%d,%d)", y, x)
			}
		}
	}
}

func TestLoadClassifierBundle_RejectsChannelMismatch(t *testing.T) {
	c := testClassifier()
	path := filepath.Join(t.TempDir(), "flora_model.json")
	if err := SaveClassifierBundle(c.Bundle(), path); err != nil {
		t.Fatalf("SaveClassifierBundle() error = %v", err)
	}

	_, err := LoadClassifierBundle(path, []string{"red", "nir", "evi"})
	if err == nil {
		t.Fatal("LoadClassifierBundle() with different channel contract should fail")
	}
	if _, ok := err.(*models.SchemaMismatchError); !ok {
		t.Errorf("error type = %T, want *models.SchemaMismatchError", err)
	}
}

func TestDetectRosemary_Envelope(t *testing.T) {
	tests := []struct {
		name  string
		ndvi  float64
		ratio float64
		want  int
	}{
		{"inside envelope", 0.5, 0.55, ClassRosemary},
		{"ndvi too low", 0.2, 0.55, ClassBackground},
		{"ndvi at lower bound is excluded", 0.3, 0.55, ClassBackground},
		{"ndvi too high", 0.8, 0.55, ClassBackground},
		{"ratio too low", 0.5, 0.3, ClassBackground},
		{"ratio too high", 0.5, 0.75, ClassBackground},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask, err := DetectRosemary(constantGrid(2, 2, tt.ndvi), constantGrid(2, 2, tt.ratio))
			if err != nil {
				t.Fatalf("DetectRosemary() error = %v", err)
			}
			if mask.Classes[1][1] != tt.want {
				t.Errorf("class = %d, want %d", mask.Classes[1][1], tt.want)
			}
		})
	}
}

func TestDetectRosemary_ShapeMismatchFails(t *testing.T) {
	_, err := DetectRosemary(constantGrid(2, 2, 0.5), constantGrid(3, 2, 0.5))
	if err == nil {
		t.Fatal("DetectRosemary() with mismatched shapes should fail")
	}
}

func TestClassMap_Distribution(t *testing.T) {
	m := &ClassMap{
		Classes: [][]int{
			{0, 0, 1, 1},
			{2, 0, 1, 3},
		},
		NumClasses: DefaultNumClasses,
	}
	dist := m.Distribution()

	var total float64
	for _, frac := range dist {
		total += frac
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("distribution sums to %v, want 1.0", total)
	}
	if dist[ClassBackground] != 3.0/8.0 {
		t.Errorf("background fraction = %v, want %v", dist[ClassBackground], 3.0/8.0)
	}
	if dist[ClassRosemary] != 3.0/8.0 {
		t.Errorf("rosemary fraction = %v, want %v", dist[ClassRosemary], 3.0/8.0)
	}
}
