package domain

import (
	"context"
	"io"
)

// HTTPClient defines the interface for authenticated HTTP GETs
type HTTPClient interface {
	// Get retrieves content from a URL.
	// Returns: body, response headers, error
	Get(ctx context.Context, url string, creds Credentials) (io.ReadCloser, map[string]string, error)
}

// CatalogClient runs one query against the catalog and returns the first
// page of matches.
type CatalogClient interface {
	Search(ctx context.Context, query string) ([]ProductEntry, error)
}

// WatermarkReader loads the time stamp file left by a previous run.
type WatermarkReader interface {
	ReadWatermark(ctx context.Context, path string) ([]byte, error)
}
