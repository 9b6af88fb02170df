// Package catalog queries a DHuS OpenSearch endpoint.
package catalog

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// Config identifies the catalog and the account used to query it.
type Config struct {
	BaseURI     string
	Credentials domain.Credentials
	PageSize    int
}

// OpenSearchClient implements domain.CatalogClient against <base>/search.
type OpenSearchClient struct {
	config  Config
	http    domain.HTTPClient
	logger  types.Logger
	metrics types.Metrics
}

// NewOpenSearchClient creates a catalog client. The base URI loses any
// trailing slash so the search path is always joined with exactly one.
func NewOpenSearchClient(cfg Config, httpClient domain.HTTPClient, logger types.Logger, metrics types.Metrics) *OpenSearchClient {
	cfg.BaseURI = strings.TrimRight(cfg.BaseURI, "/")
	return &OpenSearchClient{
		config:  cfg,
		http:    httpClient,
		logger:  logger,
		metrics: metrics,
	}
}

type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	Title string `xml:"title"`
	ID    string `xml:"id"`
	Links []link `xml:"link"`
}

type link struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

func (e entry) alternative() (string, bool) {
	for _, l := range e.Links {
		if l.Rel == "alternative" && l.Href != "" {
			return l.Href, true
		}
	}
	return "", false
}

// SearchURL renders the request URL for a query.
func (c *OpenSearchClient) SearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("rows", strconv.Itoa(c.config.PageSize))
	params.Set("start", "0")
	return c.config.BaseURI + "/search?" + params.Encode()
}

// Search runs a single query and returns the first page of entries.
func (c *OpenSearchClient) Search(ctx context.Context, query string) ([]domain.ProductEntry, error) {
	start := time.Now()
	c.metrics.StartOperation("search")
	defer c.metrics.EndOperation("search")

	entries, err := c.search(ctx, query)
	c.metrics.RecordDuration("search", time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordError("search", "catalog_unavailable")
		return nil, &domain.CatalogUnavailableError{Query: query, Err: err}
	}
	c.metrics.RecordSuccess("search")
	return entries, nil
}

func (c *OpenSearchClient) search(ctx context.Context, query string) ([]domain.ProductEntry, error) {
	body, _, err := c.http.Get(ctx, c.SearchURL(query), c.config.Credentials)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return c.parse(ctx, body)
}

func (c *OpenSearchClient) parse(ctx context.Context, r io.Reader) ([]domain.ProductEntry, error) {
	var f feed
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	products := make([]domain.ProductEntry, 0, len(f.Entries))
	for _, e := range f.Entries {
		root, ok := e.alternative()
		if !ok {
			c.logger.Warn(ctx, "skipping entry without alternative link", types.Fields{
				"title": e.Title,
				"uuid":  e.ID,
			})
			continue
		}
		products = append(products, domain.ProductEntry{
			Title:   strings.TrimSpace(e.Title),
			UUID:    strings.TrimSpace(e.ID),
			RootURI: root,
		})
	}

	if len(products) == c.config.PageSize && c.config.PageSize > 0 {
		c.logger.Warn(ctx, "result page is full; further matches are not fetched", types.Fields{
			"page_size": c.config.PageSize,
		})
	}
	return products, nil
}
