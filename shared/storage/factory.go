package storage

import (
	"github.com/UofM-CEOS/remote-sensing/shared/config"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/shared/storage/adapters/fs"
	"github.com/UofM-CEOS/remote-sensing/shared/storage/adapters/s3"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
)

// createFSStorage roots the filesystem backend at the download output directory
func createFSStorage(cfg *config.Config, logger types.Logger, metrics types.Metrics) (storagetypes.ObjectStorage, error) {
	return fs.NewStorage(cfg.Download.OutputDir, logger, metrics)
}

// createS3Storage creates an S3 storage implementation
func createS3Storage(cfg *config.Config, logger types.Logger, metrics types.Metrics) (storagetypes.ObjectStorage, error) {
	return s3.NewClient(&cfg.Storage, logger, metrics)
}
