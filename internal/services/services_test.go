package services

import (
	"context"
	"math"
	"testing"
	"time"

	"beemap-platform/internal/flora"
	"beemap-platform/internal/models"
	"beemap-platform/internal/providers"
	"beemap-platform/internal/suitability"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

var testMetrics = metrics.NewCollector("services_test")

func testLogger() *logging.StructuredLogger {
	return logging.NewStructuredLogger("services-test", "test", logging.ErrorLevel)
}

func squareArea(centerLat, centerLng, sideDeg float64) *models.Area {
	d := sideDeg / 2
	return &models.Area{Points: []models.Coordinates{
		{Latitude: centerLat - d, Longitude: centerLng - d},
		{Latitude: centerLat - d, Longitude: centerLng + d},
		{Latitude: centerLat + d, Longitude: centerLng + d},
		{Latitude: centerLat + d, Longitude: centerLng - d},
	}}
}

// trackingVegetationProvider records whether the pipeline reached it.
type trackingVegetationProvider struct {
	providers.VegetationIndexProvider
	called bool
}

func (p *trackingVegetationProvider) VegetationIndices(ctx context.Context, center models.Coordinates) (map[string]float64, error) {
	p.called = true
	return p.VegetationIndexProvider.VegetationIndices(ctx, center)
}

func newGeoService(set providers.Set) *GeospatialService {
	return NewGeospatialService(set, DefaultWaterRadiusKm, testLogger(), testMetrics)
}

func TestNormalizeArea_Geometry(t *testing.T) {
	svc := newGeoService(providers.NewSimulatedSet())

	tests := []struct {
		name    string
		area    *models.Area
		wantErr bool
	}{
		{"valid small square", squareArea(40.0, -3.0, 0.002), false},
		{"nil area", nil, true},
		{"two points", &models.Area{Points: []models.Coordinates{{Latitude: 40, Longitude: -3}, {Latitude: 40.001, Longitude: -3}}}, true},
		{"exceeds hectare cap", squareArea(40.0, -3.0, 0.05), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.NormalizeArea(tt.area)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NormalizeArea() should fail")
				}
				if _, ok := err.(*models.InvalidGeometryError); !ok {
					t.Errorf("error type = %T, want *models.InvalidGeometryError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeArea() error = %v", err)
			}
			if tt.area.Center == nil || tt.area.AreaKm2 == nil {
				t.Fatal("normalization must fill center and area")
			}
		})
	}
}

func TestNormalizeArea_PlanarAreaApproximation(t *testing.T) {
	// 0.002 deg square at 40N: about 222 m x 170 m, 0.0378 km2.
	area := squareArea(40.0, -3.0, 0.002)
	svc := newGeoService(providers.NewSimulatedSet())
	if err := svc.NormalizeArea(area); err != nil {
		t.Fatalf("NormalizeArea() error = %v", err)
	}

	if math.Abs(area.Center.Latitude-40.0) > 1e-9 || math.Abs(area.Center.Longitude+3.0) > 1e-9 {
		t.Errorf("centroid = %+v, want (40, -3)", *area.Center)
	}
	want := 0.222 * 0.222 * math.Cos(40*math.Pi/180)
	if math.Abs(*area.AreaKm2-want) > want*0.01 {
		t.Errorf("area = %v km2, want about %v", *area.AreaKm2, want)
	}
}

func TestAnalyze_GeometryRejectedBeforeProviders(t *testing.T) {
	set := providers.NewSimulatedSet()
	tracker := &trackingVegetationProvider{VegetationIndexProvider: set.Vegetation}
	set.Vegetation = tracker
	svc := newGeoService(set)

	_, err := svc.Analyze(context.Background(), squareArea(40.0, -3.0, 0.05))
	if err == nil {
		t.Fatal("Analyze() of an oversized area should fail")
	}
	if _, ok := err.(*models.InvalidGeometryError); !ok {
		t.Errorf("error type = %T, want *models.InvalidGeometryError", err)
	}
	if tracker.called {
		t.Error("provider was contacted for a rejected geometry")
	}
}

func TestAnalyze_AssemblesScores(t *testing.T) {
	svc := newGeoService(providers.NewSimulatedSet())

	geo, err := svc.Analyze(context.Background(), squareArea(40.0, -3.0, 0.002))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if geo.OverallBeeSuitability < 0 || geo.OverallBeeSuitability > 100 {
		t.Errorf("overall score = %v, want within [0, 100]", geo.OverallBeeSuitability)
	}
	if geo.WaterProximityScore < 0.2 || geo.WaterProximityScore > 1 {
		t.Errorf("water score = %v, want within [0.2, 1]", geo.WaterProximityScore)
	}
	if geo.ClimateSuitabilityScore < 0 || geo.ClimateSuitabilityScore > 1 {
		t.Errorf("climate score = %v, want within [0, 1]", geo.ClimateSuitabilityScore)
	}
	var coverTotal float64
	for _, pct := range geo.LandCover {
		coverTotal += pct
	}
	if math.Abs(coverTotal-1.0) > 1e-9 {
		t.Errorf("land cover sums to %v, want 1.0", coverTotal)
	}
}

func TestWaterProximityScore(t *testing.T) {
	tests := []struct {
		name     string
		sources  []models.WaterSource
		radiusKm float64
		want     float64
	}{
		{"no sources floors at 0.2", nil, 3.0, 0.2},
		{"at the source", []models.WaterSource{{DistanceFromCenterKm: 0}}, 3.0, 1.0},
		{"mid taper", []models.WaterSource{{DistanceFromCenterKm: 1.5}}, 3.0, 0.6},
		{"beyond radius floors at 0.2", []models.WaterSource{{DistanceFromCenterKm: 4.0}}, 3.0, 0.2},
		{"nearest of several", []models.WaterSource{{DistanceFromCenterKm: 3.0}, {DistanceFromCenterKm: 0.75}}, 3.0, 0.8},
		{"wider radius rescues a distant source", []models.WaterSource{{DistanceFromCenterKm: 4.5}}, 6.0, 0.4},
		{"tighter radius floors a mid source", []models.WaterSource{{DistanceFromCenterKm: 1.5}}, 1.0, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WaterProximityScore(tt.sources, tt.radiusKm); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("WaterProximityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

// fixedWaterProvider reports one source at a fixed distance and
// records the radius it was queried with.
type fixedWaterProvider struct {
	distanceKm    float64
	queriedRadius float64
}

func (p *fixedWaterProvider) NearbyWaterSources(_ context.Context, center models.Coordinates, radiusKm float64) ([]models.WaterSource, error) {
	p.queriedRadius = radiusKm
	if p.distanceKm > radiusKm {
		return nil, nil
	}
	return []models.WaterSource{{
		Type:                 "reservoir",
		Coordinates:          center,
		DistanceFromCenterKm: p.distanceKm,
	}}, nil
}

func TestAnalyze_ConfiguredWaterRadius(t *testing.T) {
	set := providers.NewSimulatedSet()
	water := &fixedWaterProvider{distanceKm: 4.5}
	set.Water = water
	svc := NewGeospatialService(set, 6.0, testLogger(), testMetrics)

	geo, err := svc.Analyze(context.Background(), squareArea(40.0, -3.0, 0.002))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if water.queriedRadius != 6.0 {
		t.Errorf("hydrography queried with radius %v, want 6", water.queriedRadius)
	}
	want := 1 - (4.5/6.0)*0.8
	if math.Abs(geo.WaterProximityScore-want) > 1e-9 {
		t.Errorf("water score = %v, want %v", geo.WaterProximityScore, want)
	}
}

func TestNewGeospatialService_RadiusFallback(t *testing.T) {
	svc := NewGeospatialService(providers.NewSimulatedSet(), 0, testLogger(), testMetrics)
	if svc.WaterRadiusKm() != DefaultWaterRadiusKm {
		t.Errorf("radius = %v, want default %v", svc.WaterRadiusKm(), DefaultWaterRadiusKm)
	}
}

func TestSlopeScore(t *testing.T) {
	tests := []struct {
		slope float64
		want  float64
	}{
		{0, 100},
		{5, 100},
		{10, 85},
		{25, 40},
		{45, 0},
	}
	for _, tt := range tests {
		if got := SlopeScore(tt.slope); got != tt.want {
			t.Errorf("SlopeScore(%v) = %v, want %v", tt.slope, got, tt.want)
		}
	}
}

func TestClimateSuitabilityScore_IdealConditions(t *testing.T) {
	ideal := &models.ClimateData{AverageTemperature: 20, RainfallMmYear: 600, WindSpeedAvg: 0}
	if got := ClimateSuitabilityScore(ideal); got != 1.0 {
		t.Errorf("ideal climate score = %v, want 1.0", got)
	}

	harsh := &models.ClimateData{AverageTemperature: 40, RainfallMmYear: 0, WindSpeedAvg: 60}
	if got := ClimateSuitabilityScore(harsh); got > 0.1 {
		t.Errorf("harsh climate score = %v, want near 0", got)
	}
}

func newAnalysisService(t *testing.T) *AnalysisService {
	t.Helper()
	registry := suitability.NewRegistry(suitability.RegistryConfig{
		TrainingSamples: 120,
	}, testLogger(), testMetrics)
	geo := newGeoService(providers.NewSimulatedSet())
	return NewAnalysisService(geo, registry, testLogger(), testMetrics)
}

func TestAnalyzeArea_FullResponse(t *testing.T) {
	svc := newAnalysisService(t)
	date := time.Date(2024, time.September, 10, 0, 0, 0, 0, time.UTC)

	resp, err := svc.AnalyzeArea(context.Background(), squareArea(40.0, -3.0, 0.002), date)
	if err != nil {
		t.Fatalf("AnalyzeArea() error = %v", err)
	}

	if resp.AnalysisID == "" {
		t.Error("analysis id is empty")
	}
	if resp.SuitabilityScore < 0 || resp.SuitabilityScore > 100 {
		t.Errorf("suitability score = %v, want within [0, 100]", resp.SuitabilityScore)
	}
	if resp.Explanation == nil || len(resp.Explanation.TopFactors) != 5 {
		t.Error("explanation with five factors expected")
	}
	if len(resp.Recommendations) == 0 {
		t.Error("recommendations are empty")
	}
	if resp.EstimatedProduction.HoneyKgPerHive < 10 || resp.EstimatedProduction.HoneyKgPerHive > 35 {
		t.Errorf("honey estimate = %v, outside plausible range", resp.EstimatedProduction.HoneyKgPerHive)
	}
	if resp.ModelProvenance != models.ProvenanceTrainedFallback {
		t.Errorf("provenance = %v, want %v", resp.ModelProvenance, models.ProvenanceTrainedFallback)
	}
	if resp.FloweringInfo == nil || resp.FloweringInfo.Season != "autumn" {
		t.Error("september analysis should carry an autumn flowering estimate")
	}
	if rosemary := resp.FloweringInfo.SpeciesStage["rosemary"]; rosemary.Stage != "dormant" || rosemary.FloweringPercent != 0 {
		t.Errorf("september rosemary = %+v, want dormant at 0%%", rosemary)
	}
	if resp.AreaSizeKm2 <= 0 {
		t.Errorf("area size = %v, want positive", resp.AreaSizeKm2)
	}
}

func TestAnalyzeArea_InvalidGeometryShortCircuits(t *testing.T) {
	svc := newAnalysisService(t)

	_, err := svc.AnalyzeArea(context.Background(), &models.Area{}, time.Time{})
	if err == nil {
		t.Fatal("AnalyzeArea() with empty polygon should fail")
	}
	if models.ErrorKind(err) != "invalid_geometry" {
		t.Errorf("error kind = %s, want invalid_geometry", models.ErrorKind(err))
	}
	if models.IsTransient(err) {
		t.Error("geometry errors must not classify as transient")
	}
}

func TestFeaturesFromGeo_SchemaComplete(t *testing.T) {
	svc := newGeoService(providers.NewSimulatedSet())
	area := squareArea(40.0, -3.0, 0.002)
	geo, err := svc.Analyze(context.Background(), area)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	values := featuresFromGeo(geo, DefaultWaterRadiusKm)
	if len(values) != 14 {
		t.Fatalf("feature count = %d, want 14", len(values))
	}
	for name, v := range values {
		if v < 0 || v > 1 {
			t.Errorf("feature %s = %v, want normalized into [0, 1]", name, v)
		}
	}
}

func TestEstimateProduction_ScalesWithScore(t *testing.T) {
	low := estimateProduction(20, 0.5)
	high := estimateProduction(90, 0.5)

	if high.HoneyKgPerHive <= low.HoneyKgPerHive {
		t.Errorf("honey estimate should grow with score: %v vs %v", low.HoneyKgPerHive, high.HoneyKgPerHive)
	}
	if high.HiveCapacity <= low.HiveCapacity {
		t.Errorf("hive capacity should grow with score: %d vs %d", low.HiveCapacity, high.HiveCapacity)
	}
	if high.OptimalDensity <= low.OptimalDensity {
		t.Errorf("density should grow with score: %v vs %v", low.OptimalDensity, high.OptimalDensity)
	}
}

func TestDetectFromRaster_ThresholdFallback(t *testing.T) {
	classifier := flora.NewClassifier(flora.DefaultConfig())
	svc := NewFloraService(classifier, testLogger(), testMetrics)
	date := time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC)

	resp, err := svc.DetectFromRaster(context.Background(), providers.NewSyntheticRaster(64, 64, 17), date)
	if err != nil {
		t.Fatalf("DetectFromRaster() error = %v", err)
	}

	if resp.Trained {
		t.Error("untrained classifier must report model_trained=false")
	}
	if resp.ImageHeight != 64 || resp.ImageWidth != 64 {
		t.Errorf("image size = %dx%d, want 64x64", resp.ImageHeight, resp.ImageWidth)
	}
	var total float64
	for _, pct := range resp.ClassDistribution {
		total += pct
	}
	if math.Abs(total-100) > 0.01 {
		t.Errorf("class distribution sums to %v, want 100", total)
	}
	if resp.Health == nil {
		t.Fatal("health metrics missing")
	}
	if resp.Flowering == nil || resp.Flowering.Season != "spring" {
		t.Error("april detection should carry a spring flowering estimate")
	}
}

func TestDetectFromBands_IncompleteBandSetFails(t *testing.T) {
	classifier := flora.NewClassifier(flora.DefaultConfig())
	svc := NewFloraService(classifier, testLogger(), testMetrics)

	bands := models.BandSet{models.BandRed: models.NewGrid(8, 8)}
	_, err := svc.DetectFromBands(context.Background(), bands, time.Time{})
	if err == nil {
		t.Fatal("DetectFromBands() with missing bands should fail")
	}
	if models.ErrorKind(err) != "schema_mismatch" {
		t.Errorf("error kind = %s, want schema_mismatch", models.ErrorKind(err))
	}
}
