package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	obmocks "github.com/UofM-CEOS/remote-sensing/shared/observability/mocks"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/usecase"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, req usecase.RetrieveRequest) (*usecase.RunSummary, error) {
	args := m.Called(ctx, req)
	summary, _ := args.Get(0).(*usecase.RunSummary)
	return summary, args.Error(1)
}

func newAdapter(runner *mockRunner, gotStep *domain.TileStep) *LambdaAdapter {
	return NewLambdaAdapter(func(req usecase.RetrieveRequest, step domain.TileStep) Runner {
		*gotStep = step
		return runner
	}, LambdaConfig{
		Credentials: domain.Credentials{Username: "service", Password: "from-env"},
	}, obmocks.NewPermissiveLogger())
}

func TestLambdaAdapter_HandleEvent(t *testing.T) {
	prod := domain.ProductEntry{Title: "S1A_X", UUID: "u1", RootURI: "https://hub/odata/v1/Products('u1')/"}
	summary := &usecase.RunSummary{
		RunID:   "run-1",
		Queries: 4,
		Matches: 1,
		Kind:    domain.KindManifest,
		Reports: []domain.DownloadReport{{
			Kind:     domain.KindManifest,
			Outcomes: []domain.DownloadOutcome{{Product: prod, Status: domain.OutcomeSucceeded}},
		}},
	}

	tests := []struct {
		name     string
		event    string
		wantUser string
		wantStep domain.TileStep
	}{
		{
			name: "eventbridge detail",
			event: `{"id":"ev-1","source":"aws.events","detail-type":"Scheduled Event",
				"detail":{"catalog":"https://hub/dhus","product_type":"GRD","download":"manifest","tile_step":5}}`,
			wantUser: "service",
			wantStep: domain.UniformStep(5),
		},
		{
			name:     "direct invocation",
			event:    `{"catalog":"https://hub/dhus","user":"alice","product_type":"GRD","download":"manifest"}`,
			wantUser: "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			var step domain.TileStep
			adapter := newAdapter(runner, &step)

			runner.On("Run", mock.Anything, mock.MatchedBy(func(req usecase.RetrieveRequest) bool {
				return req.CatalogURI == "https://hub/dhus" &&
					req.Username == tt.wantUser &&
					req.Password == "from-env" &&
					req.Criteria.ProductType == "GRD" &&
					req.Kind == domain.KindManifest
			})).Return(summary, nil).Once()

			resp, err := adapter.HandleEvent(context.Background(), json.RawMessage(tt.event))
			require.NoError(t, err)
			runner.AssertExpectations(t)

			assert.Equal(t, tt.wantStep, step)
			assert.Equal(t, "run-1", resp.RunID)
			assert.Equal(t, 1, resp.Downloaded)
			assert.Equal(t, "1 downloaded, 0 skipped, 0 failed checksum, 0 failed transfer", resp.Message)
		})
	}
}

func TestLambdaAdapter_HandleEvent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		runErr  error
		wantErr string
	}{
		{name: "empty detail", event: `{"id":"ev-2","source":"aws.events"}`, wantErr: "has no detail"},
		{name: "unknown key", event: `{"catalog":"https://hub/dhus","bogus":1}`, wantErr: "field bogus not found"},
		{name: "bad kind", event: `{"catalog":"https://hub/dhus","download":"everything"}`, wantErr: "unknown download kind"},
		{name: "run fails", event: `{"catalog":"https://hub/dhus"}`, runErr: usecase.ErrCatalogUnreachable, wantErr: "handler error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			var step domain.TileStep
			adapter := newAdapter(runner, &step)
			if tt.runErr != nil {
				runner.On("Run", mock.Anything, mock.Anything).Return(nil, tt.runErr)
			}

			_, err := adapter.HandleEvent(context.Background(), json.RawMessage(tt.event))
			assert.ErrorContains(t, err, tt.wantErr)
			if tt.runErr != nil {
				assert.True(t, errors.Is(err, tt.runErr))
			}
		})
	}
}
