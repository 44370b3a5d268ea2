package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"forecast/internal/amqp"
	"forecast/internal/core"
	"forecast/internal/projection"
	"forecast/internal/scenarios"
	"forecast/internal/services"
)

// Projector is the slice of the projection service the worker drives.
type Projector interface {
	GenerateProjections(ctx context.Context, scenarioID int, opts projection.Options) (scenarios.Bundle, error)
}

// RequestConsumer delivers projection requests to a handler until ctx ends.
type RequestConsumer interface {
	ConsumeProjectionRequests(ctx context.Context, handler func(context.Context, *amqp.ProjectionRequestMessage) error) error
}

// ProjectionWorker turns projection request messages into projection runs
type ProjectionWorker struct {
	projector Projector
}

func NewProjectionWorker(projector Projector) *ProjectionWorker {
	return &ProjectionWorker{projector: projector}
}

// HandleRequest runs one request. Requests that can never succeed (unknown
// scenario, unusable window) are logged and swallowed so the broker drops
// them; anything else is returned for redelivery.
func (w *ProjectionWorker) HandleRequest(ctx context.Context, msg *amqp.ProjectionRequestMessage) error {
	slog.InfoContext(ctx, "Processing projection request",
		"scenario_id", msg.ScenarioID,
		"requested_at", msg.Timestamp)

	bundle, err := w.projector.GenerateProjections(ctx, msg.ScenarioID, msg.Options)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Projection request completed",
			"scenario_id", msg.ScenarioID,
			"bundle_id", bundle.ID.String(),
			"rows", len(bundle.Rows))
		return nil
	case errors.Is(err, core.ErrScenarioNotFound), services.IsConfigError(err):
		slog.WarnContext(ctx, "Dropping projection request",
			"scenario_id", msg.ScenarioID,
			"error", err)
		return nil
	default:
		return fmt.Errorf("generate projections for scenario %d: %w", msg.ScenarioID, err)
	}
}

// Run starts concurrency consumers (at least one) and blocks until ctx ends
// or a consumer fails for good.
func (w *ProjectionWorker) Run(ctx context.Context, consumer RequestConsumer, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			err := consumer.ConsumeProjectionRequests(gctx, w.HandleRequest)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	slog.InfoContext(ctx, "Projection worker running", "consumers", concurrency)
	return g.Wait()
}
