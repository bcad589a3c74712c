// Package vegetation summarizes pixel-level index grids into health
// statistics and seasonal flowering estimates.
package vegetation

import (
	"math"
	"sort"

	"beemap-platform/internal/models"
)

// Health bucket boundaries over NDVI.
const (
	unhealthyMax   = 0.2
	moderateMax    = 0.4
	healthyMax     = 0.6
	veryHealthyMax = 0.8
)

// SummarizeHealth buckets valid NDVI pixels into health categories and
// computes statistics over the raw valid values. Valid means the value
// lies in [-1, 1]; near-zero-denominator outliers from index
// computation are excluded here rather than clipped upstream. A grid
// with zero valid pixels is a degenerate input, not an all-zero
// summary.
func SummarizeHealth(ndvi models.Grid) (*models.HealthMetrics, error) {
	valid := make([]float64, 0, len(ndvi)*8)
	for _, row := range ndvi {
		for _, v := range row {
			if v >= -1 && v <= 1 {
				valid = append(valid, v)
			}
		}
	}
	if len(valid) == 0 {
		return nil, &models.DegenerateInputError{
			Statistic: "ndvi health summary",
			Reason:    "no pixels within [-1, 1]",
		}
	}

	var counts [5]float64
	min, max := valid[0], valid[0]
	var sum float64
	for _, v := range valid {
		switch {
		case v < unhealthyMax:
			counts[0]++
		case v < moderateMax:
			counts[1]++
		case v < healthyMax:
			counts[2]++
		case v < veryHealthyMax:
			counts[3]++
		default:
			counts[4]++
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}

	n := float64(len(valid))
	mean := sum / n

	var variance float64
	for _, v := range valid {
		d := v - mean
		variance += d * d
	}
	variance /= n

	sorted := append([]float64{}, valid...)
	sort.Float64s(sorted)
	var median float64
	if len(sorted)%2 == 1 {
		median = sorted[len(sorted)/2]
	} else {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return &models.HealthMetrics{
		MinNDVI:     min,
		MaxNDVI:     max,
		AverageNDVI: mean,
		MedianNDVI:  median,
		StdNDVI:     math.Sqrt(variance),
		Unhealthy:   counts[0] / n * 100,
		Moderate:    counts[1] / n * 100,
		Healthy:     counts[2] / n * 100,
		VeryHealthy: counts[3] / n * 100,
		Exceptional: counts[4] / n * 100,
	}, nil
}

// GridMean averages the valid values of a grid, returning 0 when no
// value is valid. Used for phenology which tolerates empty input.
func GridMean(g models.Grid) float64 {
	var sum float64
	var count int
	for _, row := range g {
		for _, v := range row {
			if v >= -1 && v <= 1 {
				sum += v
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
