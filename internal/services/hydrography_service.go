package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"beemap-platform/internal/repository"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

// HydrographyService loads water source records into the database. The
// input format is CSV with a header of name, source_type, seasonal,
// latitude, longitude.
type HydrographyService struct {
	repo    repository.WaterSourceRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewHydrographyService creates a new hydrography ingestion service
func NewHydrographyService(repo repository.WaterSourceRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *HydrographyService {
	return &HydrographyService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory ingests all water source CSV files from a directory
func (s *HydrographyService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting hydrography ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no water source files found in %s", dataDir)
	}

	result.TotalFiles = len(files)

	for _, filePath := range files {
		fileResult, err := s.IngestFile(ctx, filePath, batchSize)
		if err != nil {
			errMsg := fmt.Sprintf("failed to ingest %s: %v", filePath, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
			}, err)
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested", logging.Fields{
			"file_path":          filePath,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.HydrographyIngestDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Hydrography ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
	})

	return result, nil
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
}

// IngestFile ingests a single water source CSV file
func (s *HydrographyService) IngestFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	result := &FileIngestionResult{}
	batch := make([]*repository.WaterSourceRecord, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.CreateWaterSourcesBatch(ctx, batch); err != nil {
			result.FailedRecords += len(batch)
			s.metrics.RecordHydrographyRecords("failed", len(batch))
			batch = batch[:0]
			return err
		}
		result.SuccessfulRecords += len(batch)
		s.metrics.RecordHydrographyRecords("success", len(batch))
		batch = batch[:0]
		return nil
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		result.TotalRecords++

		record, err := parseWaterSourceRow(row)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordHydrographyRecords("invalid", 1)
			s.logger.Warn(ctx, "[INGEST_ROW_SKIPPED] Invalid water source row", logging.Fields{
				"file_path": filePath,
				"line":      line,
				"reason":    err.Error(),
			})
			continue
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}

	return result, nil
}

var waterSourceHeader = []string{"name", "source_type", "seasonal", "latitude", "longitude"}

func validateHeader(header []string) error {
	if len(header) != len(waterSourceHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(waterSourceHeader), len(header))
	}
	for i, want := range waterSourceHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return fmt.Errorf("expected column %d to be %q, got %q", i+1, want, header[i])
		}
	}
	return nil
}

func parseWaterSourceRow(row []string) (*repository.WaterSourceRecord, error) {
	if len(row) != len(waterSourceHeader) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(waterSourceHeader), len(row))
	}

	seasonal, err := strconv.ParseBool(strings.TrimSpace(row[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid seasonal flag %q", row[2])
	}

	latitude, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil || latitude < -90 || latitude > 90 {
		return nil, fmt.Errorf("invalid latitude %q", row[3])
	}

	longitude, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
	if err != nil || longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("invalid longitude %q", row[4])
	}

	sourceType := strings.TrimSpace(strings.ToLower(row[1]))
	if sourceType == "" {
		return nil, fmt.Errorf("missing source type")
	}

	return &repository.WaterSourceRecord{
		Name:       strings.TrimSpace(row[0]),
		SourceType: sourceType,
		Seasonal:   seasonal,
		Latitude:   latitude,
		Longitude:  longitude,
	}, nil
}
