package config

import "time"

const (
	// KiB and MiB are the chunk-size units used for streaming downloads
	KiB = 1024
	MiB = 1024 * KiB
)

// DefaultHTTPConfig returns sensible defaults for HTTP client configuration
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:      120 * time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Second,
		UserAgent:    "dhusget/" + DefaultVersion,
	}
}

// DefaultCatalogConfig returns the catalog query defaults
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		PageSize:    100,
		Concurrency: 1,
	}
}

// DefaultTilingConfig returns a 10 degree square tile
func DefaultTilingConfig() TilingConfig {
	return TilingConfig{StepX: 10, StepY: 10}
}

// DefaultDownloadConfig returns download defaults. Manifests are small XML
// documents; products run to gigabytes, hence the different chunk sizes.
func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		OutputDir:         ".",
		ManifestChunkSize: KiB,
		ProductChunkSize:  MiB,
		Concurrency:       1,
	}
}

// DefaultStorageConfig returns sensible defaults for storage configuration
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Provider: "fs",
		Timeout:  30 * time.Second,
		S3: S3Config{
			Region: "eu-central-1",
		},
	}
}

// DefaultVersion is reported by --version and in the User-Agent header
const DefaultVersion = "0.2.0"

// DefaultConfig returns a complete configuration with sensible defaults
// This is useful for testing or when you want to start with defaults and override specific parts
func DefaultConfig() *Config {
	return &Config{
		Environment: "local",
		ServiceName: "dhusget",
		Version:     DefaultVersion,
		LogLevel:    "info",
		LogFormat:   "console",

		HTTP:     DefaultHTTPConfig(),
		Catalog:  DefaultCatalogConfig(),
		Tiling:   DefaultTilingConfig(),
		Download: DefaultDownloadConfig(),
		Storage:  DefaultStorageConfig(),
	}
}
