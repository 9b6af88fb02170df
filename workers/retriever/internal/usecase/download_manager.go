package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain/service"
)

const tracerName = "github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/usecase"

// maxChecksumSize bounds the checksum response; an MD5 hex digest is 32 bytes.
const maxChecksumSize = 256

// DownloadConfig holds what the manager needs beyond its collaborators.
type DownloadConfig struct {
	Credentials       domain.Credentials
	ManifestChunkSize int
	ProductChunkSize  int
	Concurrency       int
}

// DownloadManager fetches artifacts for a set of products into storage.
// Work already present is skipped, products are verified against the
// catalog MD5, and failures are isolated per product.
type DownloadManager struct {
	http    domain.HTTPClient
	storage storagetypes.ObjectStorage
	paths   *service.ArtifactPathService
	config  DownloadConfig
	logger  types.Logger
	metrics types.Metrics
	tracer  trace.Tracer
	now     func() time.Time

	// failMu serialises appends to the failure log; S3 appends are read-modify-write.
	failMu sync.Mutex
}

func NewDownloadManager(
	httpClient domain.HTTPClient,
	storage storagetypes.ObjectStorage,
	paths *service.ArtifactPathService,
	cfg DownloadConfig,
	logger types.Logger,
	metrics types.Metrics,
) *DownloadManager {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &DownloadManager{
		http:    httpClient,
		storage: storage,
		paths:   paths,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

// Download processes every kind selected by kind, manifests before products,
// and returns one report per kind processed.
func (m *DownloadManager) Download(ctx context.Context, products []domain.ProductEntry, kind domain.ArtifactKind) ([]domain.DownloadReport, error) {
	var reports []domain.DownloadReport
	for _, k := range kind.Kinds() {
		report, err := m.DownloadKind(ctx, products, k)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// DownloadKind downloads one artifact kind for every product, then writes
// the kind's completion time stamp. Per-product failures are recorded in
// the report; only a failed time stamp write and cancellation are returned.
func (m *DownloadManager) DownloadKind(ctx context.Context, products []domain.ProductEntry, kind domain.ArtifactKind) (domain.DownloadReport, error) {
	ctx, span := m.tracer.Start(ctx, "download."+string(kind), trace.WithAttributes(
		attribute.Int("products", len(products)),
	))
	defer span.End()

	report := domain.DownloadReport{Kind: kind}
	present := m.presentKeys(ctx, kind)

	outcomes := make([]domain.DownloadOutcome, len(products))
	var g errgroup.Group
	g.SetLimit(m.config.Concurrency)
	for i, p := range products {
		g.Go(func() error {
			outcomes[i] = m.fetch(ctx, kind, p, present)
			return nil
		})
	}
	_ = g.Wait()
	report.Outcomes = outcomes

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return report, err
	}

	if report.Count(domain.OutcomeFailedChecksum) > 0 {
		report.FailureLog = m.paths.FailureLogKey(kind)
	}

	report.CompletedAt = m.now().UTC()
	stamp := service.FormatTimestamp(report.CompletedAt) + "\n"
	key := m.paths.TimestampKey(kind)
	if err := m.storage.Put(ctx, "", key, strings.NewReader(stamp), storagetypes.ObjectMetadata{ContentType: "text/plain"}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, fmt.Errorf("failed to write %s: %w", key, err)
	}
	report.TimestampFile = key

	m.logger.Info(ctx, "download batch finished", types.Fields{
		"kind":            string(kind),
		"succeeded":       report.Count(domain.OutcomeSucceeded),
		"skipped":         report.Count(domain.OutcomeSkipped),
		"failed_checksum": report.Count(domain.OutcomeFailedChecksum),
		"failed_transfer": report.Count(domain.OutcomeFailedTransfer),
	})
	return report, nil
}

// presentKeys lists the kind's directory once so artifacts already stored
// are skipped without a lookup each. It returns nil when the listing fails,
// in which case every product is checked on its own.
func (m *DownloadManager) presentKeys(ctx context.Context, kind domain.ArtifactKind) map[string]bool {
	prefix := kind.Dir() + "/"
	objects, err := m.storage.List(ctx, "", prefix)
	if err != nil {
		m.logger.Warn(ctx, "could not list existing artifacts", types.Fields{
			"prefix": prefix,
			"error":  err.Error(),
		})
		return nil
	}

	present := make(map[string]bool, len(objects))
	for _, o := range objects {
		present[o.Key] = true
	}
	return present
}

func (m *DownloadManager) fetch(ctx context.Context, kind domain.ArtifactKind, p domain.ProductEntry, present map[string]bool) domain.DownloadOutcome {
	key := m.paths.ArtifactKey(kind, p.Title)
	outcome := domain.DownloadOutcome{Product: p, Kind: kind, Key: key}

	ctx, span := m.tracer.Start(ctx, "download.artifact", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("title", p.Title),
		attribute.String("uuid", p.UUID),
	))
	defer span.End()

	logger := m.logger.WithFields(types.Fields{
		"kind":  string(kind),
		"title": p.Title,
		"key":   key,
	})

	if ctx.Err() != nil {
		return m.failTransfer(ctx, logger, span, outcome, "", ctx.Err())
	}

	exists := present[key]
	if present == nil {
		var err error
		if exists, err = m.storage.Exists(ctx, "", key); err != nil {
			return m.failTransfer(ctx, logger, span, outcome, "", err)
		}
	}
	if exists {
		return m.skip(ctx, logger, outcome)
	}

	w, err := m.storage.Create(ctx, "", key)
	if errors.Is(err, storagetypes.ErrObjectExists) {
		// Another worker won the race for this artifact.
		return m.skip(ctx, logger, outcome)
	}
	if err != nil {
		return m.failTransfer(ctx, logger, span, outcome, "", err)
	}

	m.metrics.StartOperation("download")
	defer m.metrics.EndOperation("download")
	start := time.Now()

	uri := m.paths.ArtifactURI(kind, p)
	size, sum, err := m.transfer(ctx, kind, uri, w, logger)
	m.metrics.RecordDuration(string(kind), time.Since(start).Seconds())
	if errors.Is(err, storagetypes.ErrObjectExists) {
		return m.skip(ctx, logger, outcome)
	}
	if err != nil {
		return m.failTransfer(ctx, logger, span, outcome, uri, err)
	}
	outcome.Bytes = size

	if kind == domain.KindProduct {
		if err := m.verify(ctx, p, sum); err != nil {
			outcome.Status = domain.OutcomeFailedChecksum
			outcome.Err = err
			m.metrics.RecordError(string(kind), "checksum_mismatch")
			span.SetStatus(codes.Error, err.Error())
			logger.Warn(ctx, "checksum verification failed; file kept", types.Fields{"error": err.Error()})
			m.recordFailure(ctx, logger, kind, p)
			return outcome
		}
	}

	outcome.Status = domain.OutcomeSucceeded
	m.metrics.RecordSuccess(string(kind))
	logger.Info(ctx, "artifact downloaded", types.Fields{"bytes": size})
	return outcome
}

// transfer streams uri into w in chunks of the kind's size and returns the
// byte count and MD5 of what was written. w is published only when the
// whole body arrived; on any error it is aborted so nothing partial is kept.
func (m *DownloadManager) transfer(
	ctx context.Context,
	kind domain.ArtifactKind,
	uri string,
	w storagetypes.Writer,
	logger types.Logger,
) (int64, string, error) {
	body, _, err := m.http.Get(ctx, uri, m.config.Credentials)
	if err != nil {
		m.abort(ctx, logger, w)
		return 0, "", err
	}

	reader := NewChecksumReader(body, func(n int64) {
		m.metrics.RecordFileSize(string(kind), n)
	})
	defer reader.Close()

	buf := make([]byte, m.chunkSize(kind))
	// Hide any ReaderFrom on w so the chunk size is honoured.
	if _, err := io.CopyBuffer(struct{ io.Writer }{w}, reader, buf); err != nil {
		m.abort(ctx, logger, w)
		return reader.Size(), "", err
	}
	if err := w.Close(); err != nil {
		return reader.Size(), "", err
	}
	return reader.Size(), reader.Sum(), nil
}

func (m *DownloadManager) abort(ctx context.Context, logger types.Logger, w storagetypes.Writer) {
	if err := w.Abort(); err != nil {
		logger.Error(ctx, "failed to discard partial artifact", err, nil)
	}
}

func (m *DownloadManager) chunkSize(kind domain.ArtifactKind) int {
	size := m.config.ProductChunkSize
	if kind == domain.KindManifest {
		size = m.config.ManifestChunkSize
	}
	if size <= 0 {
		size = 32 * 1024
	}
	return size
}

// verify compares the local MD5 with the catalog's. A checksum that cannot
// be fetched counts as a mismatch.
func (m *DownloadManager) verify(ctx context.Context, p domain.ProductEntry, actual string) error {
	expected, err := m.remoteChecksum(ctx, p)
	if err != nil {
		return fmt.Errorf("%w: %v", &domain.ChecksumMismatchError{Title: p.Title, Actual: actual}, err)
	}
	if !strings.EqualFold(expected, actual) {
		return &domain.ChecksumMismatchError{Title: p.Title, Expected: expected, Actual: actual}
	}
	return nil
}

func (m *DownloadManager) remoteChecksum(ctx context.Context, p domain.ProductEntry) (string, error) {
	body, _, err := m.http.Get(ctx, m.paths.ChecksumURI(p), m.config.Credentials)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxChecksumSize))
	if err != nil {
		return "", err
	}
	sum := strings.TrimSpace(string(data))
	if sum == "" {
		return "", errors.New("empty checksum response")
	}
	return sum, nil
}

func (m *DownloadManager) recordFailure(ctx context.Context, logger types.Logger, kind domain.ArtifactKind, p domain.ProductEntry) {
	m.failMu.Lock()
	defer m.failMu.Unlock()

	key := m.paths.FailureLogKey(kind)
	if err := m.storage.Append(ctx, "", key, []byte(p.String()+"\n")); err != nil {
		logger.Error(ctx, "failed to record checksum failure", err, types.Fields{"failure_log": key})
	}
}

func (m *DownloadManager) skip(ctx context.Context, logger types.Logger, outcome domain.DownloadOutcome) domain.DownloadOutcome {
	outcome.Status = domain.OutcomeSkipped
	m.metrics.RecordSuccess(string(outcome.Kind) + "_skipped")
	logger.Debug(ctx, "artifact already present; skipping", nil)
	return outcome
}

func (m *DownloadManager) failTransfer(
	ctx context.Context,
	logger types.Logger,
	span trace.Span,
	outcome domain.DownloadOutcome,
	uri string,
	err error,
) domain.DownloadOutcome {
	outcome.Status = domain.OutcomeFailedTransfer
	outcome.Err = &domain.TransferError{Title: outcome.Product.Title, URI: uri, Err: err}
	m.metrics.RecordError(string(outcome.Kind), "transfer")
	span.SetStatus(codes.Error, err.Error())
	logger.Error(ctx, "artifact transfer failed", err, types.Fields{"uri": uri})
	return outcome
}
