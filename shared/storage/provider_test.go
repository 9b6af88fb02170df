package storage

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/UofM-CEOS/remote-sensing/shared/config"
	mockObservability "github.com/UofM-CEOS/remote-sensing/shared/observability/mocks"
	"github.com/UofM-CEOS/remote-sensing/shared/storage/adapters/fs"
	mockStorage "github.com/UofM-CEOS/remote-sensing/shared/storage/mocks"
	"github.com/UofM-CEOS/remote-sensing/shared/storage/types"
)

func TestProvider_Singleton(t *testing.T) {
	instance = nil
	once = sync.Once{}

	provider1 := GetProvider()
	provider2 := GetProvider()

	assert.Same(t, provider1, provider2, "should return same instance")
}

func TestProvider_Initialize(t *testing.T) {
	tests := []struct {
		name          string
		config        func(dir string) *config.Config
		expectedError string
	}{
		{
			name: "filesystem backend",
			config: func(dir string) *config.Config {
				return &config.Config{
					Download: config.DownloadConfig{OutputDir: dir},
					Storage:  config.StorageConfig{Provider: "fs"},
				}
			},
		},
		{
			name: "s3 without bucket",
			config: func(string) *config.Config {
				return &config.Config{
					Storage: config.StorageConfig{Provider: "s3", S3: config.S3Config{Region: "eu-central-1"}},
				}
			},
			expectedError: "S3_BUCKET is required",
		},
		{
			name: "unsupported provider",
			config: func(string) *config.Config {
				return &config.Config{
					Storage: config.StorageConfig{Provider: "ftp"},
				}
			},
			expectedError: "unsupported storage provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &Provider{}

			err := provider.Initialize(
				tt.config(t.TempDir()),
				mockObservability.NewPermissiveLogger(),
				mockObservability.NewPermissiveMetrics(),
			)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.False(t, provider.IsInitialized())
				return
			}

			require.NoError(t, err)
			assert.True(t, provider.IsInitialized())
			storage, err := provider.GetStorage()
			require.NoError(t, err)
			assert.IsType(t, &fs.Storage{}, storage)
		})
	}
}

func TestProvider_InitializeIdempotent(t *testing.T) {
	provider := &Provider{}
	mockStore := new(mockStorage.MockObjectStorage)

	provider.storage = mockStore
	provider.initialized = true

	err := provider.Initialize(&config.Config{Storage: config.StorageConfig{Provider: "s3"}},
		mockObservability.NewPermissiveLogger(), mockObservability.NewPermissiveMetrics())
	assert.NoError(t, err)
	assert.Same(t, mockStore, provider.storage)
}

func TestProvider_GetStorage(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		provider := &Provider{}

		storage, err := provider.GetStorage()
		assert.Error(t, err)
		assert.Nil(t, storage)
		assert.Contains(t, err.Error(), "not initialized")
	})

	t.Run("initialized", func(t *testing.T) {
		provider := &Provider{}
		mockStore := new(mockStorage.MockObjectStorage)

		provider.storage = mockStore
		provider.initialized = true

		storage, err := provider.GetStorage()
		assert.NoError(t, err)
		assert.Same(t, mockStore, storage)
	})
}

func TestProvider_MustGetStorage(t *testing.T) {
	provider := &Provider{}
	assert.Panics(t, func() { provider.MustGetStorage() })

	mockStore := new(mockStorage.MockObjectStorage)
	provider.storage = mockStore
	provider.initialized = true
	assert.NotPanics(t, func() {
		assert.Same(t, mockStore, provider.MustGetStorage())
	})
}

func TestProvider_CloseReset(t *testing.T) {
	provider := &Provider{}
	assert.NoError(t, provider.Close())

	provider.storage = new(mockStorage.MockObjectStorage)
	provider.logger = mockObservability.NewPermissiveLogger()
	provider.initialized = true

	assert.NoError(t, provider.Close())
	assert.False(t, provider.initialized)
	assert.Nil(t, provider.storage)

	provider.Reset()
	assert.Nil(t, provider.logger)
	assert.Nil(t, provider.config)
}

func TestProvider_TestConnection(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*mockStorage.MockObjectStorage)
		expectError bool
	}{
		{
			name: "connection successful",
			setupMock: func(m *mockStorage.MockObjectStorage) {
				m.On("Exists", mock.Anything, "", ".health-check").Return(false, nil)
			},
		},
		{
			name: "object not found is ok",
			setupMock: func(m *mockStorage.MockObjectStorage) {
				m.On("Exists", mock.Anything, "", ".health-check").Return(false, types.ErrObjectNotFound)
			},
		},
		{
			name: "connection error",
			setupMock: func(m *mockStorage.MockObjectStorage) {
				m.On("Exists", mock.Anything, "", ".health-check").Return(false, errors.New("connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &Provider{}
			store := new(mockStorage.MockObjectStorage)
			tt.setupMock(store)

			err := provider.testConnection(store)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			store.AssertExpectations(t)
		})
	}
}
