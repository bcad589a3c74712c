package features

import (
	"fmt"
)

// Tiling defaults: 64x64 patches with 50% overlap.
const (
	DefaultPatchSize = 64
	DefaultStride    = 32
)

// Patch is one square sub-window of a feature stack together with its
// top-left offset in the source image.
type Patch struct {
	// Data is channels x patchSize x patchSize.
	Data [][][]float64
	Row  int
	Col  int
}

// TilingConfig controls patch extraction.
type TilingConfig struct {
	PatchSize int
	Stride    int
	// MaxPatches caps the number of extracted patches for
	// memory-bounded runs. 0 means no cap.
	MaxPatches int
}

// DefaultTiling returns the standard 64/32 overlap configuration.
func DefaultTiling() TilingConfig {
	return TilingConfig{PatchSize: DefaultPatchSize, Stride: DefaultStride}
}

// ExtractPatches tiles the stack into fixed-size square patches in
// row-major order. Windows that would exceed the image bounds are
// dropped; there is no padding.
func ExtractPatches(stack *Stack, cfg TilingConfig) ([]Patch, error) {
	if cfg.PatchSize <= 0 {
		return nil, fmt.Errorf("patch size must be positive, got %d", cfg.PatchSize)
	}
	if cfg.Stride <= 0 {
		return nil, fmt.Errorf("stride must be positive, got %d", cfg.Stride)
	}

	channels, h, w := stack.Shape()
	if channels == 0 {
		return nil, fmt.Errorf("cannot tile an empty stack")
	}

	var patches []Patch
	for i := 0; i+cfg.PatchSize <= h; i += cfg.Stride {
		for j := 0; j+cfg.PatchSize <= w; j += cfg.Stride {
			if cfg.MaxPatches > 0 && len(patches) >= cfg.MaxPatches {
				return patches, nil
			}
			patches = append(patches, Patch{
				Data: cutWindow(stack, i, j, cfg.PatchSize),
				Row:  i,
				Col:  j,
			})
		}
	}
	return patches, nil
}

// cutWindow copies a size x size window from every channel.
func cutWindow(stack *Stack, row, col, size int) [][][]float64 {
	window := make([][][]float64, len(stack.Data))
	for c, grid := range stack.Data {
		channel := make([][]float64, size)
		for di := 0; di < size; di++ {
			channel[di] = make([]float64, size)
			copy(channel[di], grid[row+di][col:col+size])
		}
		window[c] = channel
	}
	return window
}
