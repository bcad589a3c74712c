// Package features assembles bands and spectral indices into the
// ordered numeric inputs the trained models expect.
package features

import (
	"fmt"
	"sort"
	"strings"

	"beemap-platform/internal/models"
)

// SuitabilitySchema is the fixed, ordered feature schema of the area
// suitability regressor. Order is part of the model contract and must
// match the order used at training time.
var SuitabilitySchema = []string{
	"ndvi", "evi", "forest_pct", "shrubland_pct", "grassland_pct",
	"cropland_pct", "urban_pct", "water_pct", "elevation", "slope",
	"temp_avg", "rainfall_mm", "wind_speed", "water_distance_km",
}

// AssembleVector orders area-level aggregate features per the
// suitability schema. Missing names default to 0; names outside the
// schema are a schema error rather than being silently ignored.
func AssembleVector(values map[string]float64) ([]float64, error) {
	known := make(map[string]bool, len(SuitabilitySchema))
	for _, name := range SuitabilitySchema {
		known[name] = true
	}

	var unknown []string
	for name := range values {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &models.SchemaMismatchError{
			Expected: fmt.Sprintf("features from schema [%s]", strings.Join(SuitabilitySchema, ", ")),
			Got:      fmt.Sprintf("unknown features [%s]", strings.Join(unknown, ", ")),
		}
	}

	vector := make([]float64, len(SuitabilitySchema))
	for i, name := range SuitabilitySchema {
		vector[i] = values[name]
	}
	return vector, nil
}
