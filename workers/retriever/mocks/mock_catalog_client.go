package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// MockCatalogClient is a mock implementation of domain.CatalogClient
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) Search(ctx context.Context, query string) ([]domain.ProductEntry, error) {
	args := m.Called(ctx, query)

	var products []domain.ProductEntry
	if args.Get(0) != nil {
		products = args.Get(0).([]domain.ProductEntry)
	}
	return products, args.Error(1)
}
