// Package spectral computes vegetation indices from multispectral bands.
// All functions are pure elementwise transforms over matching-shape grids.
package spectral

import (
	"fmt"
	"math"

	"beemap-platform/internal/models"
)

// NDVI computes (nir - red) / (nir + red). Pixels where nir+red <= 0
// are set to exactly 0. This is the masked-fallback policy for batch
// pixel processing, not an error condition.
func NDVI(nir, red models.Grid) models.Grid {
	h, w := nir.Shape()
	out := models.NewGrid(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			sum := nir[i][j] + red[i][j]
			if sum > 0 {
				out[i][j] = (nir[i][j] - red[i][j]) / sum
			}
		}
	}
	return out
}

// EVI computes 2.5 * (nir - red) / (nir + 6*red - 7.5*blue + 1).
// No masking: near-zero denominators may produce large-magnitude
// outliers, which downstream statistics filter on the valid range.
func EVI(nir, red, blue models.Grid) models.Grid {
	h, w := nir.Shape()
	out := models.NewGrid(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			denom := nir[i][j] + 6*red[i][j] - 7.5*blue[i][j] + 1
			out[i][j] = 2.5 * (nir[i][j] - red[i][j]) / denom
		}
	}
	return out
}

// MSAVI computes (2*nir + 1 - sqrt((2*nir+1)^2 - 8*(nir-red))) / 2.
// A negative radicand clamps the pixel to 0 rather than producing NaN,
// keeping batch processing total.
func MSAVI(nir, red models.Grid) models.Grid {
	h, w := nir.Shape()
	out := models.NewGrid(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			a := 2*nir[i][j] + 1
			radicand := a*a - 8*(nir[i][j]-red[i][j])
			if radicand < 0 {
				continue
			}
			out[i][j] = (a - math.Sqrt(radicand)) / 2
		}
	}
	return out
}

// ChlorophyllIndex computes (nir / redEdge) - 1.
func ChlorophyllIndex(nir, redEdge models.Grid) models.Grid {
	h, w := nir.Shape()
	out := models.NewGrid(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			out[i][j] = nir[i][j]/redEdge[i][j] - 1
		}
	}
	return out
}

// SWIRNIRRatio computes swir1 / nir. Useful for separating plants with
// essential oils from surrounding vegetation.
func SWIRNIRRatio(swir1, nir models.Grid) models.Grid {
	h, w := swir1.Shape()
	out := models.NewGrid(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			out[i][j] = swir1[i][j] / nir[i][j]
		}
	}
	return out
}

// ComputeAll derives the full index set from a validated band set.
func ComputeAll(bands models.BandSet) (models.IndexSet, error) {
	if err := bands.Validate(); err != nil {
		return nil, fmt.Errorf("cannot compute indices: %w", err)
	}

	return models.IndexSet{
		models.IndexNDVI:         NDVI(bands[models.BandNIR], bands[models.BandRed]),
		models.IndexEVI:          EVI(bands[models.BandNIR], bands[models.BandRed], bands[models.BandBlue]),
		models.IndexMSAVI:        MSAVI(bands[models.BandNIR], bands[models.BandRed]),
		models.IndexCI:           ChlorophyllIndex(bands[models.BandNIR], bands[models.BandRedEdge]),
		models.IndexSWIRNIRRatio: SWIRNIRRatio(bands[models.BandSWIR1], bands[models.BandNIR]),
	}, nil
}
