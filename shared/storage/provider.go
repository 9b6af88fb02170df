// Package storage selects and owns the object storage backend that receives
// retrieved artifacts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/UofM-CEOS/remote-sensing/shared/config"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
)

// Provider manages storage lifecycle and ensures singleton behavior
type Provider struct {
	storage     storagetypes.ObjectStorage
	config      *config.Config
	logger      types.Logger
	metrics     types.Metrics
	mu          sync.RWMutex
	initialized bool
}

var (
	instance *Provider
	once     sync.Once
)

// GetProvider returns the singleton storage provider instance
func GetProvider() *Provider {
	once.Do(func() {
		instance = &Provider{}
	})
	return instance
}

// Initialize creates the backend selected by STORAGE_PROVIDER and verifies
// that it is reachable. Later calls are no-ops.
func (p *Provider) Initialize(cfg *config.Config, logger types.Logger, metrics types.Metrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	storage, err := p.createStorage(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	if err := p.testConnection(storage); err != nil {
		return fmt.Errorf("failed to verify storage connection: %w", err)
	}

	logger.Debug(context.Background(), "storage initialized", types.Fields{
		"provider": cfg.GetStorageProvider(),
	})

	p.storage = storage
	p.config = cfg
	p.logger = logger
	p.metrics = metrics
	p.initialized = true

	return nil
}

// createStorage is the only place that knows about concrete implementations
func (p *Provider) createStorage(cfg *config.Config, logger types.Logger, metrics types.Metrics) (storagetypes.ObjectStorage, error) {
	switch cfg.GetStorageProvider() {
	case "fs", "":
		return createFSStorage(cfg, logger, metrics)
	case "s3":
		return createS3Storage(cfg, logger, metrics)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.GetStorageProvider())
	}
}

// testConnection tests the storage connection
func (p *Provider) testConnection(storage storagetypes.ObjectStorage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := storage.Exists(ctx, "", ".health-check")
	if err != nil && !errors.Is(err, storagetypes.ErrObjectNotFound) {
		return err
	}

	return nil
}

// MustInitialize initializes the storage provider and panics on error
func (p *Provider) MustInitialize(cfg *config.Config, logger types.Logger, metrics types.Metrics) {
	if err := p.Initialize(cfg, logger, metrics); err != nil {
		panic(fmt.Sprintf("failed to initialize storage: %v", err))
	}
}

// GetStorage returns the storage instance
func (p *Provider) GetStorage() (storagetypes.ObjectStorage, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized || p.storage == nil {
		return nil, fmt.Errorf("storage not initialized; call Initialize() first")
	}

	return p.storage, nil
}

// MustGetStorage returns the storage or panics if not initialized
func (p *Provider) MustGetStorage() storagetypes.ObjectStorage {
	storage, err := p.GetStorage()
	if err != nil {
		panic(fmt.Sprintf("failed to get storage: %v", err))
	}
	return storage
}

// IsInitialized returns whether storage has been initialized
func (p *Provider) IsInitialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}

// Close cleanly shuts down the storage provider
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}

	p.storage = nil
	p.initialized = false

	return nil
}

// Reset resets the provider (useful for testing)
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.storage = nil
	p.config = nil
	p.logger = nil
	p.metrics = nil
	p.initialized = false
}
