// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Model     ModelConfig
	Flora     FloraConfig
	Providers ProvidersConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings for the
// hydrography store.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string
}

// ModelConfig holds suitability model lifecycle settings.
type ModelConfig struct {
	BundlePath      string
	FloraBundlePath string
	TrainingSeed    int64
	TrainingSamples int
}

// FloraConfig holds classifier and tiling settings.
type FloraConfig struct {
	PatchSize   int
	Stride      int
	MaxPatches  int
	NumClasses  int
	Parallelism int
}

// ProvidersConfig selects upstream data sources.
type ProvidersConfig struct {
	// UseDatabaseHydrography switches the water-source provider from
	// the simulated one to the PostgreSQL hydrography table.
	UseDatabaseHydrography bool
	WaterRadiusKm          float64
}

// LoadConfig reads configuration from environment variables with
// sensible defaults for local development.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "beemap"),
			Password:        getEnv("DB_PASSWORD", "beemap"),
			Database:        getEnv("DB_NAME", "beemap"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Model: ModelConfig{
			BundlePath:      getEnv("MODEL_BUNDLE_PATH", "data/models/suitability.json"),
			FloraBundlePath: getEnv("FLORA_BUNDLE_PATH", "data/models/flora.json"),
			TrainingSeed:    getEnvInt64("MODEL_TRAINING_SEED", 42),
			TrainingSamples: getEnvInt("MODEL_TRAINING_SAMPLES", 500),
		},
		Flora: FloraConfig{
			PatchSize:   getEnvInt("FLORA_PATCH_SIZE", 64),
			Stride:      getEnvInt("FLORA_STRIDE", 32),
			MaxPatches:  getEnvInt("FLORA_MAX_PATCHES", 1024),
			NumClasses:  getEnvInt("FLORA_NUM_CLASSES", 4),
			Parallelism: getEnvInt("FLORA_PARALLELISM", 0),
		},
		Providers: ProvidersConfig{
			UseDatabaseHydrography: getEnvBool("USE_DB_HYDROGRAPHY", false),
			WaterRadiusKm:          getEnvFloat("WATER_RADIUS_KM", 3.0),
		},
	}
	return cfg, nil
}

// Validate checks configuration consistency before startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Logging.Level != "debug" && c.Logging.Level != "info" && c.Logging.Level != "warn" && c.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Model.TrainingSamples < 10 {
		return fmt.Errorf("training samples must be at least 10, got %d", c.Model.TrainingSamples)
	}
	if c.Flora.PatchSize < 8 {
		return fmt.Errorf("patch size must be at least 8, got %d", c.Flora.PatchSize)
	}
	if c.Flora.Stride < 1 || c.Flora.Stride > c.Flora.PatchSize {
		return fmt.Errorf("stride must be within [1, patch size], got %d", c.Flora.Stride)
	}
	if c.Flora.NumClasses < 2 {
		return fmt.Errorf("class count must be at least 2, got %d", c.Flora.NumClasses)
	}
	if c.Providers.WaterRadiusKm <= 0 {
		return fmt.Errorf("water radius must be positive, got %v", c.Providers.WaterRadiusKm)
	}
	if c.Providers.UseDatabaseHydrography && c.Database.Host == "" {
		return fmt.Errorf("database host is required when database hydrography is enabled")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
