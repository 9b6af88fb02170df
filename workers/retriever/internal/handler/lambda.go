// Package handler runs scheduled retrievals on AWS Lambda. The event carries
// a saved search, either as the detail of an EventBridge event or as the
// whole payload of a direct invocation.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/profile"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/usecase"
)

// Runner executes one retrieval.
type Runner interface {
	Run(ctx context.Context, req usecase.RetrieveRequest) (*usecase.RunSummary, error)
}

// RunnerFactory builds a runner bound to the request's catalog and
// credentials. A zero step selects the configured tile step.
type RunnerFactory func(req usecase.RetrieveRequest, step domain.TileStep) Runner

// LambdaConfig contains Lambda-specific configuration
type LambdaConfig struct {
	// ProcessingTimeout bounds one run; zero leaves only the Lambda deadline.
	ProcessingTimeout time.Duration
	// Credentials are used when the event names no user.
	Credentials domain.Credentials
}

// Response is returned to the invoker and shows up in the Lambda console.
type Response struct {
	RunID          string `json:"run_id"`
	Queries        int    `json:"queries"`
	FailedQueries  int    `json:"failed_queries"`
	Matches        int    `json:"matches"`
	Downloaded     int    `json:"downloaded"`
	Skipped        int    `json:"skipped"`
	FailedChecksum int    `json:"failed_checksum"`
	FailedTransfer int    `json:"failed_transfer"`
	Message        string `json:"message"`
}

// LambdaAdapter adapts the retriever worker to the AWS Lambda runtime
type LambdaAdapter struct {
	factory RunnerFactory
	config  LambdaConfig
	logger  types.Logger
}

func NewLambdaAdapter(factory RunnerFactory, config LambdaConfig, logger types.Logger) *LambdaAdapter {
	return &LambdaAdapter{factory: factory, config: config, logger: logger}
}

// Start begins the Lambda runtime handler
func (a *LambdaAdapter) Start() {
	lambda.Start(a.HandleEvent)
}

// HandleEvent decodes the saved search and runs it.
func (a *LambdaAdapter) HandleEvent(ctx context.Context, event json.RawMessage) (Response, error) {
	prof, err := a.decode(event)
	if err != nil {
		return Response{}, err
	}

	kind, err := domain.ParseArtifactKind(prof.Download)
	if err != nil {
		return Response{}, err
	}

	req := usecase.RetrieveRequest{
		CatalogURI: prof.Catalog,
		Username:   a.config.Credentials.Username,
		Password:   a.config.Credentials.Password,
		Criteria:   prof.Criteria(),
		Kind:       kind,
	}
	if prof.User != "" {
		req.Username = prof.User
	}

	var step domain.TileStep
	if prof.TileStep > 0 {
		step = domain.UniformStep(prof.TileStep)
	}

	if a.config.ProcessingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.ProcessingTimeout)
		defer cancel()
	}

	summary, err := a.factory(req, step).Run(ctx, req)
	if err != nil {
		a.logger.Error(ctx, "scheduled run failed", err, types.Fields{"catalog": req.CatalogURI})
		return Response{}, fmt.Errorf("handler error: %w", err)
	}

	return Response{
		RunID:          summary.RunID,
		Queries:        summary.Queries,
		FailedQueries:  summary.FailedQueries,
		Matches:        summary.Matches,
		Downloaded:     summary.Count(domain.OutcomeSucceeded),
		Skipped:        summary.Count(domain.OutcomeSkipped),
		FailedChecksum: summary.Count(domain.OutcomeFailedChecksum),
		FailedTransfer: summary.Count(domain.OutcomeFailedTransfer),
		Message:        summary.Message(),
	}, nil
}

// decode accepts an EventBridge event whose detail is the saved search, or
// the saved search itself. JSON is valid YAML, so the profile parser reads both.
func (a *LambdaAdapter) decode(event json.RawMessage) (*profile.Profile, error) {
	var ev events.EventBridgeEvent
	if err := json.Unmarshal(event, &ev); err == nil && ev.Source != "" {
		if len(ev.Detail) == 0 || string(ev.Detail) == "null" {
			return nil, fmt.Errorf("event %s from %s has no detail", ev.ID, ev.Source)
		}
		return profile.Parse(ev.Detail)
	}
	return profile.Parse(event)
}
