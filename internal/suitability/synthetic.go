package suitability

import (
	"math"
	"math/rand"

	"beemap-platform/internal/features"
)

// DefaultTrainingSeed is the fixed seed of the demonstration training
// fallback. The seed is configuration, not a hidden default: every run
// with the same seed yields an identical model.
const DefaultTrainingSeed = 42

// DefaultTrainingSamples is the synthetic training set size.
const DefaultTrainingSamples = 500

// GenerateTrainingData synthesizes a feature matrix and target scores
// from simple apiary rules: vegetation indices and shrubland raise the
// score, urbanization lowers it, temperature is best mid-range and
// water proximity is best near zero. Targets are clamped to 0-100 with
// gaussian noise.
func GenerateTrainingData(samples int, rng *rand.Rand) ([][]float64, []float64) {
	dims := len(features.SuitabilitySchema)
	col := make(map[string]int, dims)
	for i, name := range features.SuitabilitySchema {
		col[name] = i
	}

	x := make([][]float64, samples)
	y := make([]float64, samples)
	for s := 0; s < samples; s++ {
		row := make([]float64, dims)
		for i := range row {
			row[i] = rng.Float64()
		}
		x[s] = row

		vegScore := row[col["ndvi"]]*30 + row[col["evi"]]*20
		landScore := row[col["forest_pct"]]*15 + row[col["shrubland_pct"]]*25 +
			row[col["grassland_pct"]]*10 - row[col["urban_pct"]]*40
		tempScore := 20 - math.Abs(row[col["temp_avg"]]-0.5)*30
		waterScore := 25 * (1 - row[col["water_distance_km"]])

		score := vegScore + landScore + tempScore + waterScore
		score = clamp(score, 0, 100) + rng.NormFloat64()*5
		y[s] = clamp(score, 0, 100)
	}
	return x, y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
