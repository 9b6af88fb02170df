package usecase

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	obmocks "github.com/UofM-CEOS/remote-sensing/shared/observability/mocks"
	"github.com/UofM-CEOS/remote-sensing/shared/storage/adapters/fs"
)

func newTestStorage(t *testing.T) *fs.Storage {
	t.Helper()
	storage, err := fs.NewStorage(t.TempDir(), obmocks.NewPermissiveLogger(), obmocks.NewPermissiveMetrics())
	require.NoError(t, err)
	return storage
}

func readObject(t *testing.T, storage *fs.Storage, key string) string {
	t.Helper()
	r, err := storage.Get(context.Background(), "", key)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
