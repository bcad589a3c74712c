package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"beemap-platform/internal/models"
	"beemap-platform/pkg/database"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

// WaterSourceRecord is one hydrographic feature as stored.
type WaterSourceRecord struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	SourceType string    `db:"source_type"`
	Seasonal   bool      `db:"seasonal"`
	Latitude   float64   `db:"latitude"`
	Longitude  float64   `db:"longitude"`
	CreatedAt  time.Time `db:"created_at"`
}

// Coordinates returns the record's location as a model coordinate pair.
func (r *WaterSourceRecord) Coordinates() models.Coordinates {
	return models.Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}
}

// WaterSourceFilter defines filters for querying water sources
type WaterSourceFilter struct {
	SourceType *string
	Seasonal   *bool
	Limit      int
	Offset     int
}

// WaterSourceRepository provides data access for hydrographic features
type WaterSourceRepository interface {
	CreateWaterSource(ctx context.Context, source *WaterSourceRecord) error
	CreateWaterSourcesBatch(ctx context.Context, sources []*WaterSourceRecord) error
	GetWaterSource(ctx context.Context, id int64) (*WaterSourceRecord, error)
	ListWaterSources(ctx context.Context, filter WaterSourceFilter) ([]*WaterSourceRecord, int, error)
	ListWithinBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*WaterSourceRecord, error)
	HealthCheck(ctx context.Context) error
}

// waterSourceRepository implements WaterSourceRepository
type waterSourceRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewWaterSourceRepository creates a new water source repository
func NewWaterSourceRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) WaterSourceRepository {
	return &waterSourceRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateWaterSource inserts a single hydrographic feature
func (r *waterSourceRepository) CreateWaterSource(ctx context.Context, source *WaterSourceRecord) error {
	query := `
		INSERT INTO water_sources (name, source_type, seasonal, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}

	err := r.db.DB().QueryRowContext(ctx, query,
		source.Name,
		source.SourceType,
		source.Seasonal,
		source.Latitude,
		source.Longitude,
		source.CreatedAt,
	).Scan(&source.ID)

	if err != nil {
		return fmt.Errorf("failed to create water source: %w", err)
	}

	return nil
}

// CreateWaterSourcesBatch inserts multiple features in a single transaction
func (r *waterSourceRepository) CreateWaterSourcesBatch(ctx context.Context, sources []*WaterSourceRecord) error {
	if len(sources) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(sources),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO water_sources (name, source_type, seasonal, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, source := range sources {
		createdAt := source.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		_, err := stmt.ExecContext(ctx,
			source.Name,
			source.SourceType,
			source.Seasonal,
			source.Latitude,
			source.Longitude,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert water source: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetWaterSource retrieves a single feature by id
func (r *waterSourceRepository) GetWaterSource(ctx context.Context, id int64) (*WaterSourceRecord, error) {
	query := `
		SELECT id, name, source_type, seasonal, latitude, longitude, created_at
		FROM water_sources
		WHERE id = $1
	`

	var source WaterSourceRecord
	err := r.db.GetContext(ctx, "get_water_source", &source, query, id)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "water_source",
			ID:       fmt.Sprintf("%d", id),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get water source: %w", err)
	}

	return &source, nil
}

// ListWaterSources retrieves features with filtering and pagination
func (r *waterSourceRepository) ListWaterSources(ctx context.Context, filter WaterSourceFilter) ([]*WaterSourceRecord, int, error) {
	query := `
		SELECT id, name, source_type, seasonal, latitude, longitude, created_at
		FROM water_sources
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.SourceType != nil {
		query += fmt.Sprintf(" AND source_type = $%d", argNum)
		args = append(args, *filter.SourceType)
		argNum++
	}

	if filter.Seasonal != nil {
		query += fmt.Sprintf(" AND seasonal = $%d", argNum)
		args = append(args, *filter.Seasonal)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_water_sources", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count water sources: %w", err)
	}

	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	var sources []*WaterSourceRecord
	err = r.db.SelectContext(ctx, "list_water_sources", &sources, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list water sources: %w", err)
	}

	return sources, totalCount, nil
}

// ListWithinBounds retrieves features inside a latitude/longitude box.
// Exact great-circle filtering is the caller's concern.
func (r *waterSourceRepository) ListWithinBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*WaterSourceRecord, error) {
	query := `
		SELECT id, name, source_type, seasonal, latitude, longitude, created_at
		FROM water_sources
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
		ORDER BY id
	`

	var sources []*WaterSourceRecord
	err := r.db.SelectContext(ctx, "water_sources_in_bounds", &sources, query, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, fmt.Errorf("failed to query water sources in bounds: %w", err)
	}

	return sources, nil
}

// HealthCheck verifies database connectivity
func (r *waterSourceRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}
