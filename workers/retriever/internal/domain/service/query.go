package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// MatchAll is the catalog query that matches every product.
const MatchAll = "*"

// QueryBuilder turns SearchCriteria into catalog query strings.
type QueryBuilder struct {
	step       domain.TileStep
	watermarks domain.WatermarkReader
	logger     types.Logger
}

// NewQueryBuilder creates a builder that tiles AOIs with step and reads
// time stamp files through watermarks.
func NewQueryBuilder(step domain.TileStep, watermarks domain.WatermarkReader, logger types.Logger) *QueryBuilder {
	return &QueryBuilder{
		step:       step,
		watermarks: watermarks,
		logger:     logger,
	}
}

// Build returns one query per AOI tile, or a single query without an AOI.
// The result is never empty and never contains an empty string.
func (b *QueryBuilder) Build(ctx context.Context, c domain.SearchCriteria) ([]string, error) {
	if c.IsEmpty() {
		return []string{MatchAll}, nil
	}

	var rings []domain.PolygonRing
	if c.AOI != nil {
		var err error
		if rings, err = Tile(*c.AOI, b.step); err != nil {
			return nil, err
		}
	}

	ingestion, err := b.ingestionClause(ctx, c)
	if err != nil {
		return nil, err
	}
	sensing, err := sensingClause(c)
	if err != nil {
		return nil, err
	}

	base := joinClauses(
		field("platformname", c.Mission),
		field("instrumentshortname", c.Instrument),
		field("producttype", c.ProductType),
		ingestion,
		sensing,
	)

	if len(rings) == 0 {
		if base == "" {
			base = MatchAll
		}
		return []string{base}, nil
	}

	queries := make([]string, len(rings))
	for i, r := range rings {
		queries[i] = joinClauses(base, FootprintClause(r))
	}
	return queries, nil
}

// ingestionClause picks, in priority order, the watermark file, the relative
// window in hours, then the explicit bounds.
func (b *QueryBuilder) ingestionClause(ctx context.Context, c domain.SearchCriteria) (string, error) {
	switch {
	case c.WatermarkPath != "":
		upper, err := boundOr(c.IngestionTo, Now)
		if err != nil {
			return "", err
		}
		return rangeClause("ingestiondate", b.readWatermark(ctx, c.WatermarkPath), upper), nil

	case c.IngestionHours > 0:
		return rangeClause("ingestiondate", fmt.Sprintf("NOW-%dHOURS", c.IngestionHours), Now), nil

	case c.IngestionFrom != "" || c.IngestionTo != "":
		lower, err := boundOr(c.IngestionFrom, EpochTimestamp)
		if err != nil {
			return "", err
		}
		upper, err := boundOr(c.IngestionTo, Now)
		if err != nil {
			return "", err
		}
		return rangeClause("ingestiondate", lower, upper), nil
	}
	return "", nil
}

func sensingClause(c domain.SearchCriteria) (string, error) {
	if c.SensingFrom == "" && c.SensingTo == "" {
		return "", nil
	}
	lower, err := boundOr(c.SensingFrom, EpochTimestamp)
	if err != nil {
		return "", err
	}
	upper, err := boundOr(c.SensingTo, Now)
	if err != nil {
		return "", err
	}
	return rangeClause("beginPosition", lower, upper), nil
}

// readWatermark returns the first line of the timestamp file, or the epoch
// when it cannot be used. Failures are logged, never returned.
func (b *QueryBuilder) readWatermark(ctx context.Context, path string) string {
	ts, err := b.parseWatermark(ctx, path)
	if err != nil {
		var readErr *domain.TimestampReadError
		if !errors.As(err, &readErr) {
			readErr = &domain.TimestampReadError{Path: path, Err: err}
		}
		b.logger.Warn(ctx, "could not read time stamp; assuming epoch", types.Fields{
			"path":     path,
			"fallback": EpochTimestamp,
			"error":    readErr.Error(),
		})
		return EpochTimestamp
	}
	return ts
}

func (b *QueryBuilder) parseWatermark(ctx context.Context, path string) (string, error) {
	data, err := b.watermarks.ReadWatermark(ctx, path)
	if err != nil {
		return "", &domain.TimestampReadError{Path: path, Err: err}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) == "" {
		return "", &domain.TimestampReadError{Path: path, Err: errors.New("file is empty")}
	}

	ts, err := NormalizeTimeBound(scanner.Text())
	if err != nil {
		return "", &domain.TimestampReadError{Path: path, Err: err}
	}
	return ts, nil
}

func field(name, value string) string {
	if value == "" {
		return ""
	}
	return name + ":" + value
}

func rangeClause(name, lower, upper string) string {
	return fmt.Sprintf("%s:[%s TO %s]", name, lower, upper)
}

func joinClauses(clauses ...string) string {
	nonEmpty := clauses[:0:0]
	for _, c := range clauses {
		if c != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	return strings.Join(nonEmpty, " AND ")
}
