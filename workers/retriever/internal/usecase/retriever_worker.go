package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UofM-CEOS/remote-sensing/shared/config"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/logger"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain/service"
)

// RunSummary is what a run found and did.
type RunSummary struct {
	RunID         string
	Queries       int
	FailedQueries int
	Matches       int
	ResultsKey    string
	Kind          domain.ArtifactKind
	Reports       []domain.DownloadReport
}

// Count sums an outcome status over every report of the run.
func (s RunSummary) Count(status domain.OutcomeStatus) int {
	n := 0
	for _, r := range s.Reports {
		n += r.Count(status)
	}
	return n
}

// Message is the one-line, human readable result of the run.
func (s RunSummary) Message() string {
	switch {
	case s.Matches == 0:
		return "no products matched"
	case s.Kind == "":
		return fmt.Sprintf("matches found, nothing downloaded: %d products listed in %s", s.Matches, s.ResultsKey)
	}

	msg := fmt.Sprintf("%d downloaded, %d skipped, %d failed checksum, %d failed transfer",
		s.Count(domain.OutcomeSucceeded),
		s.Count(domain.OutcomeSkipped),
		s.Count(domain.OutcomeFailedChecksum),
		s.Count(domain.OutcomeFailedTransfer),
	)

	var logs []string
	for _, r := range s.Reports {
		if r.FailureLog != "" {
			logs = append(logs, r.FailureLog)
		}
	}
	if len(logs) > 0 {
		msg += " (see " + strings.Join(logs, ", ") + ")"
	}
	return msg
}

// RetrieverWorker drives one run: build queries, search every tile,
// aggregate, list, and download.
type RetrieverWorker struct {
	builder    *service.QueryBuilder
	search     *SearchDriver
	aggregator *ResultAggregator
	httpClient domain.HTTPClient
	storage    storagetypes.ObjectStorage
	download   config.DownloadConfig
	validator  *RequestValidator
	obs        types.Provider
	logger     types.Logger
	metrics    types.Metrics
}

func NewRetrieverWorker(
	catalog domain.CatalogClient,
	httpClient domain.HTTPClient,
	storage storagetypes.ObjectStorage,
	cfg *config.Config,
	obs types.Provider,
) *RetrieverWorker {
	return &RetrieverWorker{
		builder: service.NewQueryBuilder(
			domain.TileStep{X: cfg.Tiling.StepX, Y: cfg.Tiling.StepY},
			NewStorageWatermarks(storage),
			obs.Logger("service.query"),
		),
		search: NewSearchDriver(
			catalog,
			cfg.Catalog.Concurrency,
			cfg.Catalog.RateLimit,
			obs.Logger("usecase.search"),
		),
		aggregator: NewResultAggregator(storage, obs.Logger("usecase.aggregate")),
		httpClient: httpClient,
		storage:    storage,
		download:   cfg.Download,
		validator:  NewRequestValidator(),
		obs:        obs,
		logger:     obs.Logger("worker.retriever"),
		metrics:    obs.Metrics("worker.retriever"),
	}
}

// Run executes a request. Input errors are returned before anything is
// fetched or written; per-tile and per-product failures only show up in
// the summary.
func (w *RetrieverWorker) Run(ctx context.Context, req RetrieveRequest) (*RunSummary, error) {
	startTime := time.Now()
	defer w.recordDuration(startTime)

	summary := &RunSummary{RunID: uuid.NewString(), Kind: req.Kind}
	ctx = logger.WithRunID(ctx, summary.RunID)

	if err := w.validator.Validate(&req); err != nil {
		w.metrics.RecordError("run", "validation")
		return summary, err
	}

	queries, err := w.builder.Build(ctx, req.Criteria)
	if err != nil {
		w.metrics.RecordError("run", "validation")
		return summary, err
	}
	summary.Queries = len(queries)

	w.logger.Info(ctx, "searching catalog", types.Fields{
		"catalog": req.CatalogURI,
		"queries": len(queries),
	})

	result, err := w.search.Run(ctx, queries)
	summary.FailedQueries = len(result.Failures)
	if err != nil {
		w.metrics.RecordError("run", "search")
		return summary, err
	}

	set := w.aggregator.Aggregate(result.PerTile)
	summary.Matches = len(set)
	if len(set) == 0 {
		w.metrics.RecordSuccess("run")
		w.logger.Info(ctx, summary.Message(), types.Fields{"failed_queries": summary.FailedQueries})
		return summary, nil
	}

	if summary.ResultsKey, err = w.aggregator.WriteResults(ctx, set); err != nil {
		w.metrics.RecordError("run", "storage")
		return summary, err
	}

	if req.Kind != "" {
		manager := NewDownloadManager(
			w.httpClient,
			w.storage,
			service.NewArtifactPathService(),
			DownloadConfig{
				Credentials:       req.Credentials(),
				ManifestChunkSize: w.download.ManifestChunkSize,
				ProductChunkSize:  w.download.ProductChunkSize,
				Concurrency:       w.download.Concurrency,
			},
			w.obs.Logger("usecase.download"),
			w.obs.Metrics("usecase.download"),
		)
		summary.Reports, err = manager.Download(ctx, set.Sorted(), req.Kind)
		if err != nil {
			w.metrics.RecordError("run", "download")
			return summary, err
		}
	}

	w.metrics.RecordSuccess("run")
	w.logger.Info(ctx, summary.Message(), types.Fields{
		"matches":        summary.Matches,
		"failed_queries": summary.FailedQueries,
		"results":        summary.ResultsKey,
	})
	return summary, nil
}

func (w *RetrieverWorker) recordDuration(startTime time.Time) {
	w.metrics.RecordDuration("run", time.Since(startTime).Seconds())
}
