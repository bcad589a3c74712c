package flora

import "math"

type patchResult struct {
	Row   int
	Col   int
	Class int
}

// overwriteThreshold is the seam policy cutoff: a later patch replaces
// an already written pixel only when its own weight exceeds this.
const overwriteThreshold = 0.5

// stitchPatches rebuilds a full-resolution class map from per-patch
// classifications. Each pixel is weighted by normalized Manhattan
// proximity to its patch center. A background pixel is treated as
// unwritten, so any patch claims it; a non-background pixel is replaced
// only by a later patch with weight above the cutoff. Uncovered pixels
// stay ClassBackground.
func stitchPatches(results []patchResult, height, width, patchSize int) [][]int {
	classes := make([][]int, height)
	for y := range classes {
		classes[y] = make([]int, width)
	}

	half := float64(patchSize) / 2
	for _, r := range results {
		for di := 0; di < patchSize; di++ {
			y := r.Row + di
			if y >= height {
				break
			}
			for dj := 0; dj < patchSize; dj++ {
				x := r.Col + dj
				if x >= width {
					break
				}
				weight := 1 - (math.Abs(float64(di)-half)+math.Abs(float64(dj)-half))/float64(patchSize)
				if classes[y][x] == ClassBackground || weight > overwriteThreshold {
					classes[y][x] = r.Class
				}
			}
		}
	}
	return classes
}
