package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beemap-platform/internal/config"
	"beemap-platform/internal/flora"
	"beemap-platform/internal/handlers"
	"beemap-platform/internal/providers"
	"beemap-platform/internal/repository"
	"beemap-platform/internal/services"
	"beemap-platform/internal/suitability"
	"beemap-platform/pkg/database"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("beemap-api", "1.0.0", logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting BeeMap platform API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"bundle_path": cfg.Model.BundlePath,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("beemap_platform")

	// Assemble the provider set. Hydrography optionally comes from
	// PostgreSQL; everything else is simulated pending real upstreams.
	providerSet := providers.NewSimulatedSet()
	if cfg.Providers.UseDatabaseHydrography {
		dbConfig := &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}

		db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		waterRepo := repository.NewWaterSourceRepository(db, logger, metricsCollector)
		providerSet.Water = providers.NewPostgresWaterSourceProvider(waterRepo, logger)
	}

	// Initialize the suitability model registry
	registry := suitability.NewRegistry(suitability.RegistryConfig{
		BundlePath:      cfg.Model.BundlePath,
		TrainingSeed:    cfg.Model.TrainingSeed,
		TrainingSamples: cfg.Model.TrainingSamples,
	}, logger, metricsCollector)

	if err := registry.Init(ctx); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to initialize suitability model", logging.Fields{}, err)
	}

	// Initialize the flora classifier
	classifier := loadClassifier(ctx, cfg, logger, metricsCollector)

	// Initialize services
	geoService := services.NewGeospatialService(providerSet, cfg.Providers.WaterRadiusKm, logger, metricsCollector)
	analysisService := services.NewAnalysisService(geoService, registry, logger, metricsCollector)
	floraService := services.NewFloraService(classifier, logger, metricsCollector)

	// Initialize handlers
	vegetationHandler := handlers.NewVegetationHandler(analysisService, floraService, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	vegetationHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

// loadClassifier restores the persisted flora classifier, or starts
// with untrained weights so the service falls back to the spectral
// threshold detector.
func loadClassifier(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *flora.Classifier {
	classifierCfg := flora.DefaultConfig()
	classifierCfg.NumClasses = cfg.Flora.NumClasses
	classifierCfg.Tiling.PatchSize = cfg.Flora.PatchSize
	classifierCfg.Tiling.Stride = cfg.Flora.Stride
	classifierCfg.Tiling.MaxPatches = cfg.Flora.MaxPatches
	classifierCfg.Parallelism = cfg.Flora.Parallelism

	if cfg.Model.FloraBundlePath != "" {
		if _, statErr := os.Stat(cfg.Model.FloraBundlePath); statErr == nil {
			classifier, err := classifierFromBundle(cfg.Model.FloraBundlePath, classifierCfg)
			if err == nil {
				metricsCollector.RecordModelLoad("flora", "loaded")
				logger.Info(ctx, "[MODEL_LOADED] Flora classifier loaded from bundle", logging.Fields{
					"bundle_path": cfg.Model.FloraBundlePath,
					"trained":     classifier.Trained(),
				})
				return classifier
			}

			metricsCollector.RecordModelLoad("flora", "load_failed")
			logger.Warn(ctx, "[MODEL_LOAD_FAILED] Using untrained flora classifier", logging.Fields{
				"bundle_path": cfg.Model.FloraBundlePath,
				"error":       err.Error(),
			})
		}
	}

	metricsCollector.RecordModelLoad("flora", "untrained")
	return flora.NewClassifier(classifierCfg)
}

func classifierFromBundle(path string, cfg flora.Config) (*flora.Classifier, error) {
	bundle, err := flora.LoadClassifierBundle(path, cfg.Channels)
	if err != nil {
		return nil, err
	}
	return flora.NewClassifierFromBundle(bundle, cfg)
}
