package suitability

import (
	"fmt"
	"math"
)

// StandardScaler z-score normalizes features using mean/scale fitted at
// training time. The parameters are persisted with the regressor; the
// two are never loaded separately.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-feature mean and standard deviation over the
// training matrix. Constant features get scale 1 to avoid division by
// zero at transform time.
func FitScaler(samples [][]float64) (*StandardScaler, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on empty training set")
	}
	dims := len(samples[0])

	mean := make([]float64, dims)
	for _, row := range samples {
		if len(row) != dims {
			return nil, fmt.Errorf("inconsistent feature dimensions: %d vs %d", len(row), dims)
		}
		for i, v := range row {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(samples))
	}

	scale := make([]float64, dims)
	for _, row := range samples {
		for i, v := range row {
			diff := v - mean[i]
			scale[i] += diff * diff
		}
	}
	for i := range scale {
		scale[i] = math.Sqrt(scale[i] / float64(len(samples)))
		if scale[i] < 1e-10 {
			scale[i] = 1.0
		}
	}

	return &StandardScaler{Mean: mean, Scale: scale}, nil
}

// Transform returns the z-scored copy of a single feature vector.
func (s *StandardScaler) Transform(vector []float64) ([]float64, error) {
	if len(vector) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(vector))
	}
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

// TransformAll z-scores every row of a training matrix.
func (s *StandardScaler) TransformAll(samples [][]float64) ([][]float64, error) {
	out := make([][]float64, len(samples))
	for i, row := range samples {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
