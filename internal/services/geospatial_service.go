package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"beemap-platform/internal/models"
	"beemap-platform/internal/providers"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

// Geometry limits. Areas above the hectare cap are rejected before any
// provider or model work starts.
const (
	MinPolygonPoints = 3
	MaxAreaHectares  = 1000.0
)

// metersPerDegreeLat is the scaled-planar approximation used for small
// polygons; longitude is scaled by cos(latitude).
const metersPerDegreeLat = 111000.0

// DefaultWaterRadiusKm is the hydrography search radius used when the
// configuration does not set one.
const DefaultWaterRadiusKm = 3.0

// GeospatialService normalizes area geometry and assembles the full
// geospatial picture from the upstream providers. The water radius
// bounds both the hydrography lookup and the proximity score taper.
type GeospatialService struct {
	providers     providers.Set
	waterRadiusKm float64
	logger        *logging.StructuredLogger
	metrics       *metrics.Collector
}

// NewGeospatialService creates a new geospatial service. A
// non-positive waterRadiusKm falls back to DefaultWaterRadiusKm.
func NewGeospatialService(providerSet providers.Set, waterRadiusKm float64, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *GeospatialService {
	if waterRadiusKm <= 0 {
		waterRadiusKm = DefaultWaterRadiusKm
	}
	return &GeospatialService{
		providers:     providerSet,
		waterRadiusKm: waterRadiusKm,
		logger:        logger,
		metrics:       metricsCollector,
	}
}

// WaterRadiusKm reports the configured hydrography search radius.
func (s *GeospatialService) WaterRadiusKm() float64 {
	return s.waterRadiusKm
}

// NormalizeArea validates the polygon and fills in centroid and area.
// Geometry failures are terminal for the request; nothing upstream is
// contacted for a rejected area.
func (s *GeospatialService) NormalizeArea(area *models.Area) error {
	if area == nil || len(area.Points) < MinPolygonPoints {
		got := 0
		if area != nil {
			got = len(area.Points)
		}
		return &models.InvalidGeometryError{
			Reason: fmt.Sprintf("polygon needs at least %d points, got %d", MinPolygonPoints, got),
		}
	}

	center := centroid(area.Points)
	areaKm2 := planarAreaKm2(area.Points, center.Latitude)
	if hectares := areaKm2 * 100; hectares > MaxAreaHectares {
		return &models.InvalidGeometryError{
			Reason: fmt.Sprintf("area is %.1f hectares, maximum is %.0f", hectares, MaxAreaHectares),
		}
	}

	area.Center = &center
	area.AreaKm2 = &areaKm2
	return nil
}

// Analyze normalizes the area, queries every provider and derives the
// apiary scores.
func (s *GeospatialService) Analyze(ctx context.Context, area *models.Area) (*models.GeoAnalysis, error) {
	if err := s.NormalizeArea(area); err != nil {
		return nil, err
	}
	center := *area.Center

	indices, err := s.providers.Vegetation.VegetationIndices(ctx, center)
	if err != nil {
		return nil, s.upstreamFailure(ctx, "vegetation", err)
	}
	landCover, err := s.providers.LandCover.LandCover(ctx, center)
	if err != nil {
		return nil, s.upstreamFailure(ctx, "land_cover", err)
	}
	climate, err := s.providers.Climate.Climate(ctx, center)
	if err != nil {
		return nil, s.upstreamFailure(ctx, "climate", err)
	}
	elevation, err := s.providers.Elevation.Elevation(ctx, center)
	if err != nil {
		return nil, s.upstreamFailure(ctx, "elevation", err)
	}
	waterSources, err := s.providers.Water.NearbyWaterSources(ctx, center, s.waterRadiusKm)
	if err != nil {
		return nil, s.upstreamFailure(ctx, "hydrography", err)
	}

	analysis := &models.GeoAnalysis{
		Area:              *area,
		VegetationIndices: indices,
		LandCover:         landCover,
		WaterSources:      waterSources,
		Climate:           *climate,
		Elevation:         *elevation,
		Timestamp:         time.Now().UTC(),
	}

	analysis.FloweringPlantsPercent = floweringPlantsPercent(landCover)
	analysis.WaterProximityScore = WaterProximityScore(waterSources, s.waterRadiusKm)
	analysis.ClimateSuitabilityScore = ClimateSuitabilityScore(climate)
	analysis.OverallBeeSuitability = overallSuitability(analysis)

	s.logger.Info(ctx, "[GEO_ANALYSIS] Area analyzed", logging.Fields{
		"latitude":      center.Latitude,
		"longitude":     center.Longitude,
		"area_km2":      *area.AreaKm2,
		"water_sources": len(waterSources),
		"overall_score": analysis.OverallBeeSuitability,
	})
	return analysis, nil
}

func (s *GeospatialService) upstreamFailure(ctx context.Context, provider string, err error) error {
	s.metrics.RecordProviderError(provider, models.ErrorKind(err))
	s.logger.Error(ctx, "[PROVIDER_FAILED] Upstream provider failed", logging.Fields{
		"provider": provider,
	}, err)
	if _, ok := err.(*models.UpstreamDataError); ok {
		return err
	}
	return &models.UpstreamDataError{Provider: provider, Err: err}
}

// centroid is the arithmetic mean of the polygon vertices.
func centroid(points []models.Coordinates) models.Coordinates {
	var lat, lng float64
	for _, p := range points {
		lat += p.Latitude
		lng += p.Longitude
	}
	n := float64(len(points))
	return models.Coordinates{Latitude: lat / n, Longitude: lng / n}
}

// planarAreaKm2 computes the polygon area with the shoelace formula on
// coordinates scaled to meters. Accurate enough below the hectare cap;
// not usable for continent-scale polygons.
func planarAreaKm2(points []models.Coordinates, centerLat float64) float64 {
	lngScale := metersPerDegreeLat * math.Cos(centerLat*math.Pi/180)

	var sum float64
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi := points[i].Longitude * lngScale
		yi := points[i].Latitude * metersPerDegreeLat
		xj := points[j].Longitude * lngScale
		yj := points[j].Latitude * metersPerDegreeLat
		sum += xi*yj - xj*yi
	}
	return math.Abs(sum) / 2 / 1e6
}

// floweringPlantsPercent estimates melliferous flowering cover from
// the land-cover mix; shrubland dominates in nectar terms.
func floweringPlantsPercent(cover map[models.LandCoverClass]float64) float64 {
	pct := cover[models.LandCoverShrubland]*60 +
		cover[models.LandCoverGrassland]*40 +
		cover[models.LandCoverForest]*30 +
		cover[models.LandCoverCropland]*50
	if pct > 100 {
		pct = 100
	}
	return pct
}

// WaterProximityScore tapers from 1 at the water source to 0.2 at the
// search radius; areas with no source within the radius floor at 0.2.
func WaterProximityScore(sources []models.WaterSource, radiusKm float64) float64 {
	if len(sources) == 0 {
		return 0.2
	}
	nearest := sources[0].DistanceFromCenterKm
	for _, s := range sources[1:] {
		if s.DistanceFromCenterKm < nearest {
			nearest = s.DistanceFromCenterKm
		}
	}
	if nearest > radiusKm {
		return 0.2
	}
	return 1 - (nearest/radiusKm)*0.8
}

// ClimateSuitabilityScore combines temperature, rainfall and wind into
// a 0-1 score weighted 0.5/0.3/0.2.
func ClimateSuitabilityScore(climate *models.ClimateData) float64 {
	tempScore := 1 - math.Min(1, math.Abs(climate.AverageTemperature-20)/15)
	rainScore := 1 - math.Min(1, math.Abs(climate.RainfallMmYear-600)/600)
	windScore := 1 - math.Min(1, climate.WindSpeedAvg/40)
	return 0.5*tempScore + 0.3*rainScore + 0.2*windScore
}

// LandCoverScore weights each land class by its apiary value, 0-100.
func LandCoverScore(cover map[models.LandCoverClass]float64) float64 {
	weights := map[models.LandCoverClass]float64{
		models.LandCoverShrubland: 1.0,
		models.LandCoverForest:    0.8,
		models.LandCoverGrassland: 0.6,
		models.LandCoverCropland:  0.5,
		models.LandCoverWater:     0.3,
		models.LandCoverBarren:    0.1,
		models.LandCoverUrban:     0.0,
	}
	var score float64
	for class, pct := range cover {
		score += weights[class] * pct
	}
	return score * 100
}

// SlopeScore is 100 on flat ground and loses 3 points per degree above
// 5 degrees.
func SlopeScore(slopeDeg float64) float64 {
	if slopeDeg <= 5 {
		return 100
	}
	return math.Max(0, 100-(slopeDeg-5)*3)
}

// VegetationScore maps average NDVI onto 0-100.
func VegetationScore(ndvi float64) float64 {
	score := (ndvi - 0.1) / 0.7 * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// overallSuitability is the weighted blend of the category scores:
// vegetation 0.35, land cover 0.15, water 0.20, climate 0.20, slope 0.10.
func overallSuitability(a *models.GeoAnalysis) float64 {
	return 0.35*VegetationScore(a.VegetationIndices["ndvi"]) +
		0.15*LandCoverScore(a.LandCover) +
		0.20*a.WaterProximityScore*100 +
		0.20*a.ClimateSuitabilityScore*100 +
		0.10*SlopeScore(a.Elevation.SlopeAvgDeg)
}
