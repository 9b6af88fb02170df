package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// ErrCatalogUnreachable is returned when every query of a run failed.
var ErrCatalogUnreachable = errors.New("catalog unreachable: every query failed")

// SearchResult holds per-query matches in query order. A failed query
// contributes an empty slice and an entry in Failures.
type SearchResult struct {
	PerTile  [][]domain.ProductEntry
	Failures []error
}

// SearchDriver runs the tile queries against the catalog.
type SearchDriver struct {
	catalog     domain.CatalogClient
	concurrency int
	limiter     *rate.Limiter
	logger      types.Logger
	tracer      trace.Tracer
}

// NewSearchDriver creates a driver. ratePerSecond <= 0 disables limiting.
func NewSearchDriver(catalog domain.CatalogClient, concurrency int, ratePerSecond float64, logger types.Logger) *SearchDriver {
	if concurrency <= 0 {
		concurrency = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return &SearchDriver{
		catalog:     catalog,
		concurrency: concurrency,
		limiter:     limiter,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
}

// Run executes every query. A failing query is logged and skipped so the
// other tiles still contribute; only total failure or cancellation is an error.
func (d *SearchDriver) Run(ctx context.Context, queries []string) (SearchResult, error) {
	ctx, span := d.tracer.Start(ctx, "catalog.search", trace.WithAttributes(
		attribute.Int("queries", len(queries)),
	))
	defer span.End()

	perTile := make([][]domain.ProductEntry, len(queries))
	errs := make([]error, len(queries))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			perTile[i], errs[i] = d.query(ctx, i, q)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return SearchResult{}, err
	}

	result := SearchResult{PerTile: perTile}
	for _, err := range errs {
		if err != nil {
			result.Failures = append(result.Failures, err)
		}
	}

	if len(queries) > 0 && len(result.Failures) == len(queries) {
		span.SetStatus(codes.Error, ErrCatalogUnreachable.Error())
		return result, fmt.Errorf("%w: %w", ErrCatalogUnreachable, result.Failures[0])
	}
	return result, nil
}

func (d *SearchDriver) query(ctx context.Context, tile int, q string) ([]domain.ProductEntry, error) {
	ctx, span := d.tracer.Start(ctx, "catalog.query", trace.WithAttributes(
		attribute.Int("tile", tile),
		attribute.String("query", q),
	))
	defer span.End()

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	products, err := d.catalog.Search(ctx, q)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error(ctx, "tile query failed; continuing with remaining tiles", err, types.Fields{
			"tile":  tile,
			"query": q,
		})
		return nil, err
	}

	span.SetAttributes(attribute.Int("matches", len(products)))
	d.logger.Debug(ctx, "tile query finished", types.Fields{
		"tile":    tile,
		"matches": len(products),
	})
	return products, nil
}
