package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Fixture modes
const (
	FixtureFallback = "fallback"
	FixtureSeed     = "seed"
	FixtureOff      = "off"
)

type Config struct {
	Server    ServerConfig
	Telemetry TelemetryConfig
	Store     StoreConfig
	Fixture   FixtureConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
	LogLevel    string
}

type StoreConfig struct {
	Driver          string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	DatabaseURL     string
}

type FixtureConfig struct {
	Path string
	Mode string
	S3   S3Config
}

// S3Config is only consulted when Path is an s3://bucket/key location
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// LoadConfig loads configuration from an optional .env file and environment variables
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationEnv("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getBoolEnv("OTEL_ENABLED", true),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "product-catalog-api"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "debug"),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
			MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase:   getEnv("MONGO_DATABASE", "catalog"),
			MongoCollection: getEnv("MONGO_COLLECTION", "products"),
			DatabaseURL:     getEnv("DATABASE_URL", ""),
		},
		Fixture: FixtureConfig{
			Path: getEnv("FIXTURE_PATH", "data/products.json"),
			Mode: strings.ToLower(getEnv("FIXTURE_MODE", FixtureFallback)),
			S3: S3Config{
				Endpoint:  getEnv("FIXTURE_S3_ENDPOINT", ""),
				Region:    getEnv("AWS_REGION", "us-east-1"),
				AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and modes and missing connection settings
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Fixture.Mode {
	case FixtureFallback, FixtureSeed:
		if c.Fixture.Path == "" {
			return fmt.Errorf("FIXTURE_PATH is required when FIXTURE_MODE is %q", c.Fixture.Mode)
		}
	case FixtureOff:
	default:
		return fmt.Errorf("unknown FIXTURE_MODE %q", c.Fixture.Mode)
	}
	return nil
}

// Addr returns the listen address of the HTTP server
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if n, err := strconv.Atoi(val); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// loadDotEnv applies an optional .env file. Variables already set in the
// environment are kept.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
