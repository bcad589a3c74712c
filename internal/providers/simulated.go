package providers

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"beemap-platform/internal/models"
)

// Simulated providers stand in for real remote services. Outputs are
// seeded from the query location, so repeated calls for the same
// centroid return identical data.

func locationSeed(center models.Coordinates, salt int64) int64 {
	lat := int64(math.Round(center.Latitude * 1e6))
	lng := int64(math.Round(center.Longitude * 1e6))
	return lat*1_000_003 + lng*31 + salt
}

// SimulatedVegetationProvider returns plausible Mediterranean-scrubland
// index averages.
type SimulatedVegetationProvider struct{}

func (SimulatedVegetationProvider) VegetationIndices(_ context.Context, center models.Coordinates) (map[string]float64, error) {
	rng := rand.New(rand.NewSource(locationSeed(center, 1)))
	return map[string]float64{
		"ndvi": 0.3 + rng.Float64()*0.5,
		"evi":  0.25 + rng.Float64()*0.45,
		"lai":  0.5 + rng.Float64()*3.0,
	}, nil
}

// SimulatedLandCoverProvider returns class percentages normalized to
// sum to 1.0.
type SimulatedLandCoverProvider struct{}

func (SimulatedLandCoverProvider) LandCover(_ context.Context, center models.Coordinates) (map[models.LandCoverClass]float64, error) {
	rng := rand.New(rand.NewSource(locationSeed(center, 2)))

	raw := map[models.LandCoverClass]float64{
		models.LandCoverForest:    0.1 + rng.Float64()*0.4,
		models.LandCoverShrubland: 0.1 + rng.Float64()*0.4,
		models.LandCoverGrassland: 0.05 + rng.Float64()*0.3,
		models.LandCoverCropland:  rng.Float64() * 0.25,
		models.LandCoverUrban:     rng.Float64() * 0.15,
		models.LandCoverWater:     rng.Float64() * 0.1,
		models.LandCoverBarren:    rng.Float64() * 0.1,
	}
	var total float64
	for _, v := range raw {
		total += v
	}
	for class := range raw {
		raw[class] /= total
	}
	return raw, nil
}

// SimulatedClimateProvider returns yearly aggregates typical for a
// temperate apiary region.
type SimulatedClimateProvider struct{}

func (SimulatedClimateProvider) Climate(_ context.Context, center models.Coordinates) (*models.ClimateData, error) {
	rng := rand.New(rand.NewSource(locationSeed(center, 3)))
	avg := 11 + rng.Float64()*9
	return &models.ClimateData{
		AverageTemperature: avg,
		MinTemperature:     avg - 8 - rng.Float64()*4,
		MaxTemperature:     avg + 9 + rng.Float64()*5,
		RainfallMmYear:     350 + rng.Float64()*650,
		WindSpeedAvg:       5 + rng.Float64()*20,
		HumidityAvg:        45 + rng.Float64()*35,
		Timestamp:          time.Now().UTC(),
		Source:             "simulated",
	}, nil
}

// SimulatedElevationProvider returns an elevation range with a mild
// average slope.
type SimulatedElevationProvider struct{}

var aspects = []string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

func (SimulatedElevationProvider) Elevation(_ context.Context, center models.Coordinates) (*models.ElevationData, error) {
	rng := rand.New(rand.NewSource(locationSeed(center, 4)))
	min := 50 + rng.Float64()*800
	return &models.ElevationData{
		MinElevationM: min,
		MaxElevationM: min + 20 + rng.Float64()*300,
		SlopeAvgDeg:   rng.Float64() * 15,
		Aspect:        aspects[rng.Intn(len(aspects))],
	}, nil
}

// SimulatedWaterSourceProvider returns up to three nearby sources
// ordered by distance.
type SimulatedWaterSourceProvider struct{}

var waterSourceTypes = []string{"river", "lake", "pond", "stream"}

func (SimulatedWaterSourceProvider) NearbyWaterSources(_ context.Context, center models.Coordinates, radiusKm float64) ([]models.WaterSource, error) {
	rng := rand.New(rand.NewSource(locationSeed(center, 5)))

	count := rng.Intn(4)
	sources := make([]models.WaterSource, 0, count)
	for i := 0; i < count; i++ {
		distance := 0.1 + rng.Float64()*(radiusKm-0.1)
		bearing := rng.Float64() * 2 * math.Pi
		sources = append(sources, models.WaterSource{
			Coordinates: models.Coordinates{
				Latitude:  center.Latitude + (distance/111.0)*math.Cos(bearing),
				Longitude: center.Longitude + (distance/111.0)*math.Sin(bearing),
			},
			Type:                 waterSourceTypes[rng.Intn(len(waterSourceTypes))],
			Seasonal:             rng.Float64() < 0.3,
			DistanceFromCenterKm: distance,
		})
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].DistanceFromCenterKm < sources[j].DistanceFromCenterKm
	})
	return sources, nil
}

// NewSimulatedSet wires all simulated providers.
func NewSimulatedSet() Set {
	return Set{
		Vegetation: SimulatedVegetationProvider{},
		LandCover:  SimulatedLandCoverProvider{},
		Climate:    SimulatedClimateProvider{},
		Elevation:  SimulatedElevationProvider{},
		Water:      SimulatedWaterSourceProvider{},
	}
}
