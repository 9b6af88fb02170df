package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
)

func TestStorageWatermarks_ReadWatermark(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	require.NoError(t, storage.Put(ctx, "", "PRODUCT/.last_time_stamp",
		strings.NewReader("2024-04-01T06:30:00.000Z\n"), storagetypes.ObjectMetadata{}))

	local := filepath.Join(t.TempDir(), "stamp")
	require.NoError(t, os.WriteFile(local, []byte("2023-01-01T00:00:00.000Z\n"), 0o644))

	w := NewStorageWatermarks(storage)

	data, err := w.ReadWatermark(ctx, "PRODUCT/.last_time_stamp")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01T06:30:00.000Z\n", string(data))

	data, err = w.ReadWatermark(ctx, "./PRODUCT/../PRODUCT/.last_time_stamp")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01T06:30:00.000Z\n", string(data))

	data, err = w.ReadWatermark(ctx, local)
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01T00:00:00.000Z\n", string(data))

	_, err = w.ReadWatermark(ctx, "MANIFEST/.last_time_stamp")
	assert.ErrorIs(t, err, storagetypes.ErrObjectNotFound)
}
