package models

import "fmt"

// Grid is a 2-D reflectance or index surface, rows of equal length.
type Grid [][]float64

// NewGrid allocates a zeroed height x width grid.
func NewGrid(height, width int) Grid {
	g := make(Grid, height)
	for i := range g {
		g[i] = make([]float64, width)
	}
	return g
}

// Shape returns (height, width). An empty grid is (0, 0).
func (g Grid) Shape() (int, int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g), len(g[0])
}

// Band names used throughout the pipeline.
const (
	BandBlue    = "blue"
	BandGreen   = "green"
	BandRed     = "red"
	BandRedEdge = "red_edge"
	BandNIR     = "nir"
	BandSWIR1   = "swir1"
)

// Sentinel-2 band indices for the channels the pipeline consumes.
// Rasters are accessed by index, not name.
var SentinelBandIndex = map[string]int{
	BandBlue:    2,
	BandGreen:   3,
	BandRed:     4,
	BandRedEdge: 5,
	BandNIR:     8,
	BandSWIR1:   11,
}

// BandSet maps channel names to equally shaped grids. Values are
// reflectance-like floats, typically 0-1 but not strictly bounded.
type BandSet map[string]Grid

// Validate checks that all required bands are present and share one shape.
func (b BandSet) Validate() error {
	required := []string{BandBlue, BandGreen, BandRed, BandRedEdge, BandNIR, BandSWIR1}
	var h, w int
	for i, name := range required {
		g, ok := b[name]
		if !ok {
			return fmt.Errorf("band set missing %s", name)
		}
		gh, gw := g.Shape()
		if gh == 0 || gw == 0 {
			return fmt.Errorf("band %s is empty", name)
		}
		if i == 0 {
			h, w = gh, gw
			continue
		}
		if gh != h || gw != w {
			return fmt.Errorf("band %s shape %dx%d does not match %dx%d", name, gh, gw, h, w)
		}
	}
	return nil
}

// Shape returns the common (height, width) of the band set.
func (b BandSet) Shape() (int, int) {
	return b[BandRed].Shape()
}

// Index names produced by the spectral engine.
const (
	IndexNDVI         = "ndvi"
	IndexEVI          = "evi"
	IndexMSAVI        = "msavi"
	IndexCI           = "ci"
	IndexSWIRNIRRatio = "swir_nir_ratio"
)

// IndexSet maps index names to grids with the same shape as the source bands.
type IndexSet map[string]Grid

// RasterReader is the imagery collaborator boundary. Implementations
// expose per-band reads plus georeferencing metadata.
type RasterReader interface {
	// Read returns the grid for a 1-based band index.
	Read(bandIndex int) (Grid, error)
	// Metadata returns the raster's georeferencing information.
	Metadata() RasterMetadata
}

// RasterMetadata carries the georeferencing of a raster.
type RasterMetadata struct {
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	BandCount int        `json:"band_count"`
	CRS       string     `json:"crs"`
	Transform [6]float64 `json:"transform"` // affine: [a, b, c, d, e, f]
}

// ExtractBands reads the six Sentinel-2-like channels from a raster.
func ExtractBands(r RasterReader) (BandSet, error) {
	bands := make(BandSet, len(SentinelBandIndex))
	for name, idx := range SentinelBandIndex {
		g, err := r.Read(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to read band %s (index %d): %w", name, idx, err)
		}
		bands[name] = g
	}
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	return bands, nil
}
