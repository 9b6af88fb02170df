package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Singleton(t *testing.T) {
	instance = nil
	once = sync.Once{}

	provider1 := GetProvider()
	provider2 := GetProvider()

	assert.Same(t, provider1, provider2, "should return same instance")
}

func TestProvider_GetBeforeLoad(t *testing.T) {
	p := &Provider{}

	cfg, err := p.Get()

	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "configuration not loaded")
	assert.Panics(t, func() { p.MustGet() })
}

func TestProvider_LoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	p := &Provider{}
	require.NoError(t, p.Load())

	cfg := p.MustGet()
	assert.Equal(t, "dhusget", cfg.ServiceName)
	assert.Equal(t, 100, cfg.Catalog.PageSize)
	assert.Equal(t, KiB, cfg.Download.ManifestChunkSize)
	assert.Equal(t, MiB, cfg.Download.ProductChunkSize)
	assert.Equal(t, 10.0, cfg.Tiling.StepX)
	assert.Equal(t, "fs", cfg.GetStorageProvider())
}

func TestProvider_LoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_PAGE_SIZE", "250")
	t.Setenv("TILE_STEP_X", "2.5")
	t.Setenv("HTTP_TIMEOUT", "45s")
	t.Setenv("HTTP_INSECURE_SKIP_VERIFY", "true")
	t.Setenv("DOWNLOAD_CONCURRENCY", "not-a-number")
	t.Setenv("DHUS_USER", "alice")

	p := &Provider{}
	require.NoError(t, p.Load())

	cfg := p.MustGet()
	assert.Equal(t, 250, cfg.Catalog.PageSize)
	assert.Equal(t, 2.5, cfg.Tiling.StepX)
	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.HTTP.InsecureSkipVerify)
	assert.Equal(t, 1, cfg.Download.Concurrency, "invalid values fall back to the default")
	assert.Equal(t, "alice", cfg.Catalog.User)
}

func TestProvider_LoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ENVIRONMENT", "staging")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CATALOG_PAGE_SIZE=10\nTILE_STEP_Y=3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"), []byte("CATALOG_PAGE_SIZE=20\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("CATALOG_PAGE_SIZE=30\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("CATALOG_PAGE_SIZE")
		os.Unsetenv("TILE_STEP_Y")
	})

	p := &Provider{}
	require.NoError(t, p.Load())

	cfg := p.MustGet()
	assert.Equal(t, 30, cfg.Catalog.PageSize, ".env.local has the highest precedence")
	assert.Equal(t, 3.0, cfg.Tiling.StepY)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedError string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:          "missing service name",
			mutate:        func(c *Config) { c.ServiceName = "" },
			expectedError: "SERVICE_NAME is required",
		},
		{
			name:          "zero tile step",
			mutate:        func(c *Config) { c.Tiling.StepY = 0 },
			expectedError: "TILE_STEP_X and TILE_STEP_Y must be positive",
		},
		{
			name:          "zero page size",
			mutate:        func(c *Config) { c.Catalog.PageSize = 0 },
			expectedError: "CATALOG_PAGE_SIZE must be positive",
		},
		{
			name:          "bad log format",
			mutate:        func(c *Config) { c.LogFormat = "xml" },
			expectedError: "LOG_FORMAT must be json or console",
		},
		{
			name:          "s3 without bucket",
			mutate:        func(c *Config) { c.Storage.Provider = "s3" },
			expectedError: "S3_BUCKET is required",
		},
		{
			name:          "unknown storage provider",
			mutate:        func(c *Config) { c.Storage.Provider = "gcs" },
			expectedError: "unsupported STORAGE_PROVIDER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.expectedError)
		})
	}
}
