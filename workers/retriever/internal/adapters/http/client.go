package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/UofM-CEOS/remote-sensing/shared/config"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// StatusError is returned when the server answers with anything but 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// Client implements the domain.HTTPClient port
type Client struct {
	client *http.Client
	config config.HTTPConfig
	logger types.Logger
}

// NewClient creates a new HTTP client
func NewClient(cfg config.HTTPConfig, logger types.Logger) *Client {
	defaults := config.DefaultHTTPConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaults.RetryBackoff
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Products stream for a long time; only the wait for headers is bounded.
	transport.ResponseHeaderTimeout = cfg.Timeout
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in, for self-signed mirrors
	}

	return &Client{
		client: &http.Client{Transport: transport},
		config: cfg,
		logger: logger,
	}
}

// Get implements the HTTPClient interface. Transport errors and 5xx answers
// are retried with a linear backoff; other non-200 answers fail at once.
func (c *Client) Get(ctx context.Context, url string, creds domain.Credentials) (io.ReadCloser, map[string]string, error) {
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.config.RetryBackoff
			c.logger.Debug(ctx, "retrying request", types.Fields{
				"url":     url,
				"attempt": attempt,
				"backoff": backoff.String(),
				"error":   lastErr.Error(),
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		// A request body is never sent, but each attempt still gets a fresh request.
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		if creds.Username != "" || creds.Password != "" {
			req.SetBasicAuth(creds.Username, creds.Password)
		}

		resp, lastErr = c.client.Do(req)
		if lastErr == nil && resp.StatusCode < 500 {
			break // Success or client error (no retry needed)
		}

		if resp != nil {
			resp.Body.Close()
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode}
			resp = nil
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
	}

	if lastErr != nil {
		return nil, nil, fmt.Errorf("request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	// Extract response headers
	responseHeaders := make(map[string]string)
	for key := range resp.Header {
		responseHeaders[key] = resp.Header.Get(key)
	}

	return resp.Body, responseHeaders, nil
}
