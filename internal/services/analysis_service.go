package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"beemap-platform/internal/models"
	"beemap-platform/internal/suitability"
	"beemap-platform/internal/vegetation"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

// AnalysisService runs the full area analysis: geospatial assembly,
// suitability prediction with explanation, and the derived apiary
// recommendations.
type AnalysisService struct {
	geo      *GeospatialService
	registry *suitability.Registry
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(geo *GeospatialService, registry *suitability.Registry, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalysisService {
	return &AnalysisService{
		geo:      geo,
		registry: registry,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// AnalyzeArea produces the complete suitability payload for a polygon.
// The date drives the phenology estimate; zero means now.
func (s *AnalysisService) AnalyzeArea(ctx context.Context, area *models.Area, date time.Time) (*models.AreaAnalysisResponse, error) {
	timer := s.metrics.NewTimer(s.metrics.AnalysisDuration)
	defer timer.ObserveDuration()

	if date.IsZero() {
		date = time.Now().UTC()
	}

	geo, err := s.geo.Analyze(ctx, area)
	if err != nil {
		s.metrics.RecordAnalysis(models.ErrorKind(err))
		return nil, err
	}
	s.metrics.AnalysisAreaKm2.Observe(*geo.Area.AreaKm2)

	featureValues := featuresFromGeo(geo, s.geo.WaterRadiusKm())

	model, err := s.registry.Model(ctx)
	if err != nil {
		s.metrics.RecordAnalysis("model_unavailable")
		return nil, fmt.Errorf("obtaining suitability model: %w", err)
	}

	predictTimer := s.metrics.NewTimer(s.metrics.PredictionDuration.WithLabelValues("suitability"))
	explanation, err := model.Explain(featureValues)
	predictTimer.ObserveDuration()
	if err != nil {
		s.metrics.RecordAnalysis(models.ErrorKind(err))
		return nil, err
	}

	ndvi := geo.VegetationIndices["ndvi"]
	evi := geo.VegetationIndices["evi"]
	flowering := vegetation.EstimateFlowering(
		models.Grid{{ndvi}}, models.Grid{{evi}}, date)

	response := &models.AreaAnalysisResponse{
		AnalysisID:       uuid.New().String(),
		SuitabilityScore: explanation.Score,

		Vegetation: models.CategorySuitability{
			Score: VegetationScore(ndvi),
			Details: map[string]interface{}{
				"ndvi":                        ndvi,
				"evi":                         evi,
				"flowering_plants_percentage": geo.FloweringPlantsPercent,
			},
		},
		Water: models.CategorySuitability{
			Score: geo.WaterProximityScore * 100,
			Details: map[string]interface{}{
				"sources_found":       len(geo.WaterSources),
				"nearest_distance_km": nearestWaterKm(geo.WaterSources, s.geo.WaterRadiusKm()),
			},
		},
		Climate: models.CategorySuitability{
			Score: geo.ClimateSuitabilityScore * 100,
			Details: map[string]interface{}{
				"average_temperature": geo.Climate.AverageTemperature,
				"rainfall_mm_year":    geo.Climate.RainfallMmYear,
				"wind_speed_avg":      geo.Climate.WindSpeedAvg,
			},
		},
		Terrain: models.CategorySuitability{
			Score: SlopeScore(geo.Elevation.SlopeAvgDeg),
			Details: map[string]interface{}{
				"slope_avg_deg":   geo.Elevation.SlopeAvgDeg,
				"min_elevation_m": geo.Elevation.MinElevationM,
				"max_elevation_m": geo.Elevation.MaxElevationM,
				"aspect":          geo.Elevation.Aspect,
			},
		},

		Explanation:         explanation,
		Recommendations:     recommendations(geo, explanation.Score),
		EstimatedProduction: estimateProduction(explanation.Score, *geo.Area.AreaKm2),
		FloweringInfo:       flowering,
		Satellite:           satelliteMetadata(date),

		AreaSizeKm2:     *geo.Area.AreaKm2,
		ModelProvenance: explanation.Provenance,
		Timestamp:       time.Now().UTC(),
	}

	s.metrics.RecordAnalysis("success")
	s.logger.Info(ctx, "[AREA_ANALYZED] Area analysis complete", logging.Fields{
		"analysis_id":      response.AnalysisID,
		"score":            response.SuitabilityScore,
		"area_km2":         response.AreaSizeKm2,
		"model_provenance": response.ModelProvenance,
	})
	return response, nil
}

// featuresFromGeo normalizes provider outputs onto the model's
// training scale: raw index and cover fractions, physical quantities
// divided by their plausible maxima and clamped into [0, 1].
func featuresFromGeo(geo *models.GeoAnalysis, waterRadiusKm float64) map[string]float64 {
	midElevation := (geo.Elevation.MinElevationM + geo.Elevation.MaxElevationM) / 2
	return map[string]float64{
		"ndvi":              geo.VegetationIndices["ndvi"],
		"evi":               geo.VegetationIndices["evi"],
		"forest_pct":        geo.LandCover[models.LandCoverForest],
		"shrubland_pct":     geo.LandCover[models.LandCoverShrubland],
		"grassland_pct":     geo.LandCover[models.LandCoverGrassland],
		"cropland_pct":      geo.LandCover[models.LandCoverCropland],
		"urban_pct":         geo.LandCover[models.LandCoverUrban],
		"water_pct":         geo.LandCover[models.LandCoverWater],
		"elevation":         clamp01(midElevation / 2000),
		"slope":             clamp01(geo.Elevation.SlopeAvgDeg / 45),
		"temp_avg":          clamp01(geo.Climate.AverageTemperature / 40),
		"rainfall_mm":       clamp01(geo.Climate.RainfallMmYear / 1200),
		"wind_speed":        clamp01(geo.Climate.WindSpeedAvg / 40),
		"water_distance_km": clamp01(nearestWaterKm(geo.WaterSources, waterRadiusKm) / waterRadiusKm),
	}
}

// nearestWaterKm returns the closest source distance, or the search
// radius when no source was found.
func nearestWaterKm(sources []models.WaterSource, radiusKm float64) float64 {
	if len(sources) == 0 {
		return radiusKm
	}
	nearest := sources[0].DistanceFromCenterKm
	for _, s := range sources[1:] {
		if s.DistanceFromCenterKm < nearest {
			nearest = s.DistanceFromCenterKm
		}
	}
	return nearest
}

func recommendations(geo *models.GeoAnalysis, score float64) []string {
	recs := make([]string, 0, 4)

	if geo.WaterProximityScore < 0.5 {
		recs = append(recs, "Install artificial water points; the nearest natural source is far from the apiary site.")
	}
	if geo.Elevation.SlopeAvgDeg > 10 {
		recs = append(recs, "Terrace or level hive stands; the average slope complicates access and hive stability.")
	}
	if geo.LandCover[models.LandCoverUrban] > 0.25 {
		recs = append(recs, "Check local regulations on minimum distances to buildings before placing hives.")
	}
	if geo.FloweringPlantsPercent < 30 {
		recs = append(recs, "Consider sowing melliferous cover crops to extend the nectar flow.")
	}
	if score >= 70 {
		recs = append(recs, "Conditions support a full production apiary; start with the optimal hive density and expand after the first season.")
	} else if score >= 50 {
		recs = append(recs, "Start with a reduced number of hives and monitor colony weight through the first flow.")
	} else {
		recs = append(recs, "Site is marginal for production; consider it only for temporary transhumance during peak bloom.")
	}
	return recs
}

// estimateProduction derives expected output from the suitability
// score and the usable area.
func estimateProduction(score, areaKm2 float64) models.EstimatedProduction {
	hectares := areaKm2 * 100
	density := 0.5 + score/100*3.0 // hives per hectare
	return models.EstimatedProduction{
		HoneyKgPerHive: math.Round((10+score/100*25)*10) / 10,
		HiveCapacity:   int(math.Round(hectares * density)),
		OptimalDensity: math.Round(density*100) / 100,
	}
}

func satelliteMetadata(date time.Time) *models.SatelliteMetadata {
	return &models.SatelliteMetadata{
		Source:          "Sentinel-2",
		Date:            date.Format("2006-01-02"),
		Resolution:      "10m",
		BandsUsed:       []string{"B02", "B03", "B04", "B05", "B08", "B11"},
		CloudCoverage:   "<5%",
		ProcessingLevel: "L2A",
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
