// Package providers defines the upstream data sources an area analysis
// consumes: vegetation indices, land cover, climate, elevation and
// hydrography. The core never fetches on its own; it reads these
// interfaces and classifies their failures as transient upstream
// errors.
package providers

import (
	"context"

	"beemap-platform/internal/models"
)

// VegetationIndexProvider supplies area-averaged vegetation indices
// (ndvi, evi, lai).
type VegetationIndexProvider interface {
	VegetationIndices(ctx context.Context, center models.Coordinates) (map[string]float64, error)
}

// LandCoverProvider supplies land-cover class percentages summing to 1.0.
type LandCoverProvider interface {
	LandCover(ctx context.Context, center models.Coordinates) (map[models.LandCoverClass]float64, error)
}

// ClimateProvider supplies yearly climate aggregates for a location.
type ClimateProvider interface {
	Climate(ctx context.Context, center models.Coordinates) (*models.ClimateData, error)
}

// ElevationProvider supplies elevation range, slope and aspect.
type ElevationProvider interface {
	Elevation(ctx context.Context, center models.Coordinates) (*models.ElevationData, error)
}

// WaterSourceProvider lists hydrographic features within a radius of a
// location, ordered by distance.
type WaterSourceProvider interface {
	NearbyWaterSources(ctx context.Context, center models.Coordinates, radiusKm float64) ([]models.WaterSource, error)
}

// Set bundles the providers an analysis needs.
type Set struct {
	Vegetation VegetationIndexProvider
	LandCover  LandCoverProvider
	Climate    ClimateProvider
	Elevation  ElevationProvider
	Water      WaterSourceProvider
}
