package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// MockHTTPClient is a mock implementation of domain.HTTPClient
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Get(ctx context.Context, url string, creds domain.Credentials) (io.ReadCloser, map[string]string, error) {
	args := m.Called(ctx, url, creds)

	var reader io.ReadCloser
	if args.Get(0) != nil {
		reader = args.Get(0).(io.ReadCloser)
	}

	var respHeaders map[string]string
	if args.Get(1) != nil {
		respHeaders = args.Get(1).(map[string]string)
	}

	return reader, respHeaders, args.Error(2)
}
