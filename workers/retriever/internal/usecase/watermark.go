package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"

	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
)

// StorageWatermarks reads time stamp files from the artifact storage, so a
// run finds the stamp the previous run wrote wherever artifacts live.
// Relative paths are keys under the output root; absolute paths are read
// from the local filesystem.
type StorageWatermarks struct {
	storage storagetypes.ObjectStorage
}

func NewStorageWatermarks(storage storagetypes.ObjectStorage) *StorageWatermarks {
	return &StorageWatermarks{storage: storage}
}

func (w *StorageWatermarks) ReadWatermark(ctx context.Context, path string) ([]byte, error) {
	if filepath.IsAbs(path) {
		return os.ReadFile(path)
	}

	r, err := w.storage.Get(ctx, "", filepath.ToSlash(filepath.Clean(path)))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
