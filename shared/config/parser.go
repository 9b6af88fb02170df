package config

// parse reads configuration from environment variables on top of DefaultConfig
func parse() (*Config, error) {
	d := DefaultConfig()

	cfg := &Config{
		// Core
		Environment: getEnv("ENVIRONMENT", d.Environment),
		ServiceName: getEnv("SERVICE_NAME", d.ServiceName),
		Version:     getEnv("SERVICE_VERSION", d.Version),
		LogLevel:    getEnv("LOG_LEVEL", d.LogLevel),
		LogFormat:   getEnv("LOG_FORMAT", d.LogFormat),

		// HTTP Client
		HTTP: HTTPConfig{
			Timeout:            getDuration("HTTP_TIMEOUT", d.HTTP.Timeout),
			MaxRetries:         getInt("HTTP_MAX_RETRIES", d.HTTP.MaxRetries),
			RetryBackoff:       getDuration("HTTP_RETRY_BACKOFF", d.HTTP.RetryBackoff),
			UserAgent:          getEnv("HTTP_USER_AGENT", d.HTTP.UserAgent),
			InsecureSkipVerify: getBool("HTTP_INSECURE_SKIP_VERIFY", d.HTTP.InsecureSkipVerify),
		},

		// Catalog
		Catalog: CatalogConfig{
			User:        getEnv("DHUS_USER", ""),
			Password:    getEnv("DHUS_PASSWORD", ""),
			PageSize:    getInt("CATALOG_PAGE_SIZE", d.Catalog.PageSize),
			Concurrency: getInt("CATALOG_CONCURRENCY", d.Catalog.Concurrency),
			RateLimit:   getFloat64("CATALOG_RATE_LIMIT", d.Catalog.RateLimit),
		},

		// Tiling
		Tiling: TilingConfig{
			StepX: getFloat64("TILE_STEP_X", d.Tiling.StepX),
			StepY: getFloat64("TILE_STEP_Y", d.Tiling.StepY),
		},

		// Download
		Download: DownloadConfig{
			OutputDir:         getEnv("DOWNLOAD_OUTPUT_DIR", d.Download.OutputDir),
			ManifestChunkSize: getInt("DOWNLOAD_MANIFEST_CHUNK_SIZE", d.Download.ManifestChunkSize),
			ProductChunkSize:  getInt("DOWNLOAD_PRODUCT_CHUNK_SIZE", d.Download.ProductChunkSize),
			Concurrency:       getInt("DOWNLOAD_CONCURRENCY", d.Download.Concurrency),
		},

		// Storage
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", d.Storage.Provider),
			Timeout:  getDuration("STORAGE_TIMEOUT", d.Storage.Timeout),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", d.Storage.S3.Region),
				Bucket:          getEnv("S3_BUCKET", ""),
				Prefix:          getEnv("S3_PREFIX", ""),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
			},
		},

		Observability: ObservabilityConfig{
			TracingEnabled:  getBool("TRACING_ENABLED", false),
			MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		},
	}

	return cfg, nil
}
