package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	Environment string
	ServiceName string
	Version     string
	LogLevel    string
	LogFormat   string

	// Component configurations
	HTTP          HTTPConfig
	Catalog       CatalogConfig
	Tiling        TilingConfig
	Download      DownloadConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	// Timeout bounds the wait for response headers. Bodies are not bounded:
	// full products can take hours to stream.
	Timeout            time.Duration
	MaxRetries         int
	RetryBackoff       time.Duration
	UserAgent          string
	InsecureSkipVerify bool
}

// CatalogConfig holds settings for the OpenSearch catalog queries
type CatalogConfig struct {
	// User and Password are used when the command line or the event does
	// not carry credentials (scheduled runs).
	User        string
	Password    string
	// PageSize is sent as the rows parameter; one page per tile query.
	PageSize    int
	Concurrency int
	// RateLimit is the maximum number of search requests per second (0 = unlimited).
	RateLimit float64
}

// TilingConfig holds the maximum polygon side lengths in degrees
type TilingConfig struct {
	StepX float64
	StepY float64
}

// DownloadConfig holds artifact download settings
type DownloadConfig struct {
	OutputDir         string
	ManifestChunkSize int
	ProductChunkSize  int
	Concurrency       int
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Provider string // "fs" or "s3"
	Timeout  time.Duration
	S3       S3Config
}

// S3Config holds S3-specific configuration
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Only for S3-compatible services (MinIO, LocalStack)
}

// ObservabilityConfig holds tracing and metrics export settings
type ObservabilityConfig struct {
	TracingEnabled  bool
	MetricsTextfile string
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errors []string

	if c.ServiceName == "" {
		errors = append(errors, "SERVICE_NAME is required")
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errors = append(errors, "LOG_FORMAT must be json or console")
	}

	// Range validations
	if c.HTTP.Timeout < 0 {
		errors = append(errors, "HTTP_TIMEOUT cannot be negative")
	}
	if c.HTTP.MaxRetries < 0 {
		errors = append(errors, "HTTP_MAX_RETRIES cannot be negative")
	}
	if c.Catalog.PageSize <= 0 {
		errors = append(errors, "CATALOG_PAGE_SIZE must be positive")
	}
	if c.Catalog.Concurrency <= 0 {
		errors = append(errors, "CATALOG_CONCURRENCY must be positive")
	}
	if c.Catalog.RateLimit < 0 {
		errors = append(errors, "CATALOG_RATE_LIMIT cannot be negative")
	}
	if c.Tiling.StepX <= 0 || c.Tiling.StepY <= 0 {
		errors = append(errors, "TILE_STEP_X and TILE_STEP_Y must be positive")
	}
	if c.Download.OutputDir == "" {
		errors = append(errors, "DOWNLOAD_OUTPUT_DIR is required")
	}
	if c.Download.ManifestChunkSize <= 0 || c.Download.ProductChunkSize <= 0 {
		errors = append(errors, "download chunk sizes must be positive")
	}
	if c.Download.Concurrency <= 0 {
		errors = append(errors, "DOWNLOAD_CONCURRENCY must be positive")
	}

	if err := c.Storage.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate checks the storage section for the selected provider
func (s *StorageConfig) Validate() error {
	switch s.Provider {
	case "fs":
		return nil
	case "s3":
		if s.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_PROVIDER=s3")
		}
		if s.S3.Region == "" {
			return fmt.Errorf("AWS_REGION is required when STORAGE_PROVIDER=s3")
		}
		return nil
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", s.Provider)
	}
}

// GetStorageProvider returns the configured storage backend name
func (c *Config) GetStorageProvider() string {
	return strings.ToLower(c.Storage.Provider)
}

// IsLocal returns true if running in local/development environment
func (c *Config) IsLocal() bool {
	env := strings.ToLower(c.Environment)
	return env == "local" || env == "development" || env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}
