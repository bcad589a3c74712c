package providers

import (
	"context"
	"math"
	"sort"

	"beemap-platform/internal/models"
	"beemap-platform/internal/repository"
	"beemap-platform/pkg/logging"
)

// PostgresWaterSourceProvider reads hydrographic features from the
// water_sources table. Query failures are classified as transient
// upstream errors so callers can retry the analysis.
type PostgresWaterSourceProvider struct {
	repo   repository.WaterSourceRepository
	logger *logging.StructuredLogger
}

// NewPostgresWaterSourceProvider creates a hydrography provider backed
// by the water source repository.
func NewPostgresWaterSourceProvider(repo repository.WaterSourceRepository, logger *logging.StructuredLogger) *PostgresWaterSourceProvider {
	return &PostgresWaterSourceProvider{repo: repo, logger: logger}
}

// NearbyWaterSources returns sources within radiusKm of the center,
// nearest first. The repository prefilters with a bounding box; the
// exact great-circle distance is computed on the survivors.
func (p *PostgresWaterSourceProvider) NearbyWaterSources(ctx context.Context, center models.Coordinates, radiusKm float64) ([]models.WaterSource, error) {
	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / (111.0 * math.Cos(center.Latitude*math.Pi/180))

	records, err := p.repo.ListWithinBounds(ctx,
		center.Latitude-latDelta, center.Latitude+latDelta,
		center.Longitude-lngDelta, center.Longitude+lngDelta)
	if err != nil {
		p.logger.Error(ctx, "[HYDROGRAPHY_QUERY_FAILED] Water source lookup failed", logging.Fields{
			"latitude":  center.Latitude,
			"longitude": center.Longitude,
			"radius_km": radiusKm,
		}, err)
		return nil, &models.UpstreamDataError{Provider: "hydrography", Err: err}
	}

	sources := make([]models.WaterSource, 0, len(records))
	for _, record := range records {
		distance := haversineKm(center, record.Coordinates())
		if distance > radiusKm {
			continue
		}
		sources = append(sources, models.WaterSource{
			Coordinates:          record.Coordinates(),
			Type:                 record.SourceType,
			Seasonal:             record.Seasonal,
			DistanceFromCenterKm: distance,
		})
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].DistanceFromCenterKm < sources[j].DistanceFromCenterKm
	})
	return sources, nil
}

const earthRadiusKm = 6371.0

func haversineKm(a, b models.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
