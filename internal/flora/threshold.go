package flora

import (
	"fmt"

	"beemap-platform/internal/models"
)

// Rosemary spectral envelope: moderate vegetation density with the
// shrubland SWIR/NIR signature.
const (
	rosemaryNDVIMin  = 0.3
	rosemaryNDVIMax  = 0.7
	rosemaryRatioMin = 0.4
	rosemaryRatioMax = 0.7
)

// DetectRosemary is the threshold fallback used when no trained
// classifier is available. It marks pixels whose NDVI and SWIR/NIR
// ratio fall inside the rosemary spectral envelope and leaves the rest
// as background.
func DetectRosemary(ndvi, swirNirRatio models.Grid) (*ClassMap, error) {
	nh, nw := ndvi.Shape()
	rh, rw := swirNirRatio.Shape()
	if nh != rh || nw != rw {
		return nil, &models.SchemaMismatchError{
			Expected: fmt.Sprintf("ndvi shape %dx%d", nh, nw),
			Got:      fmt.Sprintf("swir/nir shape %dx%d", rh, rw),
		}
	}

	classes := make([][]int, nh)
	for y := 0; y < nh; y++ {
		row := make([]int, nw)
		for x := 0; x < nw; x++ {
			n := ndvi[y][x]
			r := swirNirRatio[y][x]
			if n > rosemaryNDVIMin && n < rosemaryNDVIMax && r > rosemaryRatioMin && r < rosemaryRatioMax {
				row[x] = ClassRosemary
			}
		}
		classes[y] = row
	}
	return &ClassMap{Classes: classes, NumClasses: DefaultNumClasses}, nil
}
