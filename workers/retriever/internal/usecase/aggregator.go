package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain/service"
)

// ResultAggregator merges per-tile matches and persists the listing.
type ResultAggregator struct {
	storage storagetypes.ObjectStorage
	logger  types.Logger
}

func NewResultAggregator(storage storagetypes.ObjectStorage, logger types.Logger) *ResultAggregator {
	return &ResultAggregator{storage: storage, logger: logger}
}

// Aggregate flattens the per-tile results into a set. Products whose
// footprint crosses a tile boundary are returned by several tiles and
// collapse to one entry here.
func (a *ResultAggregator) Aggregate(perTile [][]domain.ProductEntry) domain.ProductSet {
	set := domain.ProductSet{}
	for _, tile := range perTile {
		for _, p := range tile {
			set.Add(p)
		}
	}
	return set
}

// WriteResults stores the listing, one "title uuid rootURI" line per
// product sorted by title. An empty set writes nothing and returns "".
func (a *ResultAggregator) WriteResults(ctx context.Context, set domain.ProductSet) (string, error) {
	if len(set) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, p := range set.Sorted() {
		b.WriteString(p.String())
		b.WriteByte('\n')
	}

	err := a.storage.Put(ctx, "", service.ResultsKey, strings.NewReader(b.String()), storagetypes.ObjectMetadata{
		ContentType: "text/plain",
	})
	if err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}

	a.logger.Info(ctx, "results written", types.Fields{
		"key":      service.ResultsKey,
		"products": len(set),
	})
	return service.ResultsKey, nil
}
