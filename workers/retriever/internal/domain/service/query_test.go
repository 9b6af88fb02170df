package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	obmocks "github.com/UofM-CEOS/remote-sensing/shared/observability/mocks"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// watermarkFiles serves time stamp files from memory.
type watermarkFiles map[string]string

func (w watermarkFiles) ReadWatermark(_ context.Context, path string) ([]byte, error) {
	data, ok := w[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(data), nil
}

func newBuilder(t *testing.T) (*QueryBuilder, *obmocks.MockLogger) {
	t.Helper()
	logger := &obmocks.MockLogger{}
	files := watermarkFiles{
		"PRODUCT/.last_time_stamp": "2024-04-01T06:30:00.000Z\n",
		"MANIFEST/.last_time_stamp": "",
	}
	return NewQueryBuilder(domain.UniformStep(10), files, logger), logger
}

func TestQueryBuilder_Build(t *testing.T) {
	tests := []struct {
		name     string
		criteria domain.SearchCriteria
		want     []string
	}{
		{
			name:     "no criteria matches everything",
			criteria: domain.SearchCriteria{},
			want:     []string{"*"},
		},
		{
			name:     "relative window only",
			criteria: domain.SearchCriteria{IngestionHours: 24},
			want:     []string{"ingestiondate:[NOW-24HOURS TO NOW]"},
		},
		{
			name: "clause order",
			criteria: domain.SearchCriteria{
				Mission:        "Sentinel-1",
				Instrument:     "SAR-C SAR",
				ProductType:    "GRD",
				IngestionHours: 6,
				SensingFrom:    "2024-01-01T00:00:00Z",
			},
			want: []string{
				"platformname:Sentinel-1 AND instrumentshortname:SAR-C SAR AND producttype:GRD AND " +
					"ingestiondate:[NOW-6HOURS TO NOW] AND beginPosition:[2024-01-01T00:00:00.000Z TO NOW]",
			},
		},
		{
			name:     "explicit ingestion bounds default independently",
			criteria: domain.SearchCriteria{IngestionTo: "2024-02-01"},
			want:     []string{"ingestiondate:[1970-01-01T00:00:00.000Z TO 2024-02-01T00:00:00.000Z]"},
		},
		{
			name:     "sensing upper bound only",
			criteria: domain.SearchCriteria{ProductType: "SLC", SensingTo: "NOW-1DAY"},
			want:     []string{"producttype:SLC AND beginPosition:[1970-01-01T00:00:00.000Z TO NOW-1DAY]"},
		},
		{
			name:     "relative window beats explicit bounds",
			criteria: domain.SearchCriteria{IngestionHours: 12, IngestionFrom: "2020-01-01"},
			want:     []string{"ingestiondate:[NOW-12HOURS TO NOW]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, logger := newBuilder(t)

			got, err := b.Build(context.Background(), tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			logger.AssertExpectations(t)
		})
	}
}

func TestQueryBuilder_AOIFanOut(t *testing.T) {
	b, _ := newBuilder(t)

	queries, err := b.Build(context.Background(), domain.SearchCriteria{
		ProductType: "GRD",
		AOI:         &domain.AreaOfInterest{Lon1: 0, Lat1: 0, Lon2: 25, Lat2: 5},
	})
	require.NoError(t, err)
	require.Len(t, queries, 8)

	for _, q := range queries {
		assert.True(t, strings.HasPrefix(q, `producttype:GRD AND (footprint:"Intersects(POLYGON((`), q)
	}
	assert.Contains(t, queries[0], "0.0000000000000 0.0000000000000, 6.2500000000000 0.0000000000000")
}

func TestQueryBuilder_AOIOnly(t *testing.T) {
	b, _ := newBuilder(t)

	queries, err := b.Build(context.Background(), domain.SearchCriteria{
		AOI: &domain.AreaOfInterest{Lon1: 1, Lat1: 2, Lon2: 3, Lat2: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`(footprint:"Intersects(POLYGON((1.0000000000000 2.0000000000000, 3.0000000000000 2.0000000000000, ` +
			`3.0000000000000 4.0000000000000, 1.0000000000000 4.0000000000000, 1.0000000000000 2.0000000000000)))")`,
	}, queries)
}

func TestQueryBuilder_InvalidInput(t *testing.T) {
	b, _ := newBuilder(t)

	_, err := b.Build(context.Background(), domain.SearchCriteria{
		AOI: &domain.AreaOfInterest{Lon1: 10, Lat1: 0, Lon2: 5, Lat2: 10},
	})
	var areaErr *domain.InvalidAreaError
	assert.True(t, errors.As(err, &areaErr))

	_, err = b.Build(context.Background(), domain.SearchCriteria{SensingFrom: "last tuesday"})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeBound)
}

func TestQueryBuilder_Watermark(t *testing.T) {
	const (
		valid = "PRODUCT/.last_time_stamp"
		empty = "MANIFEST/.last_time_stamp"
	)

	tests := []struct {
		name     string
		criteria domain.SearchCriteria
		want     string
		warns    bool
	}{
		{
			name:     "readable watermark",
			criteria: domain.SearchCriteria{WatermarkPath: valid},
			want:     "ingestiondate:[2024-04-01T06:30:00.000Z TO NOW]",
		},
		{
			name:     "watermark takes priority over hours",
			criteria: domain.SearchCriteria{WatermarkPath: valid, IngestionHours: 3, IngestionTo: "2024-04-02"},
			want:     "ingestiondate:[2024-04-01T06:30:00.000Z TO 2024-04-02T00:00:00.000Z]",
		},
		{
			name:     "missing file falls back to epoch",
			criteria: domain.SearchCriteria{WatermarkPath: "missing/.last_time_stamp"},
			want:     "ingestiondate:[1970-01-01T00:00:00.000Z TO NOW]",
			warns:    true,
		},
		{
			name:     "empty file falls back to epoch",
			criteria: domain.SearchCriteria{WatermarkPath: empty},
			want:     "ingestiondate:[1970-01-01T00:00:00.000Z TO NOW]",
			warns:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, logger := newBuilder(t)
			if tt.warns {
				logger.On("Warn", mock.Anything, "could not read time stamp; assuming epoch", mock.MatchedBy(func(f types.Fields) bool {
					return f["fallback"] == EpochTimestamp
				})).Return().Once()
			}

			got, err := b.Build(context.Background(), tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, got)
			logger.AssertExpectations(t)
		})
	}
}

func TestJoinClauses(t *testing.T) {
	assert.Equal(t, "", joinClauses("", ""))
	assert.Equal(t, "a AND b", joinClauses("", "a", "", "b"))
}
