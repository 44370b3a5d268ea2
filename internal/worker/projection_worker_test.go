package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"

	"forecast/internal/amqp"
	"forecast/internal/core"
	"forecast/internal/projection"
	"forecast/internal/scenarios"
)

type fakeProjector struct {
	err   error
	calls []int
	opts  projection.Options
}

func (f *fakeProjector) GenerateProjections(_ context.Context, scenarioID int, opts projection.Options) (scenarios.Bundle, error) {
	f.calls = append(f.calls, scenarioID)
	f.opts = opts
	return scenarios.Bundle{Rows: make([]core.ProjectionRecord, 3)}, f.err
}

func TestProjectionWorker_HandleRequest(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success", err: nil},
		{name: "unknown scenario is dropped", err: fmt.Errorf("get scenario 9: %w", core.ErrScenarioNotFound)},
		{name: "missing dates are dropped", err: fmt.Errorf("project: %w", core.ErrMissingDates)},
		{name: "inverted window is dropped", err: fmt.Errorf("project: %w", projection.ErrInvalidWindow)},
		{name: "storage failure is retried", err: errors.New("database is locked"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projector := &fakeProjector{err: tt.err}
			w := NewProjectionWorker(projector)

			msg := amqp.NewProjectionRequestMessage(9, projection.Options{Periodicity: "weekly"})
			err := w.HandleRequest(context.Background(), msg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(projector.calls) != 1 || projector.calls[0] != 9 {
				t.Errorf("projector calls = %v, want [9]", projector.calls)
			}
			if projector.opts.Periodicity != "weekly" {
				t.Errorf("options not forwarded: %+v", projector.opts)
			}
		})
	}
}

type fakeConsumer struct {
	started atomic.Int32
	err     error
}

func (f *fakeConsumer) ConsumeProjectionRequests(ctx context.Context, handler func(context.Context, *amqp.ProjectionRequestMessage) error) error {
	f.started.Add(1)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestProjectionWorker_Run(t *testing.T) {
	t.Run("stops cleanly on cancel", func(t *testing.T) {
		consumer := &fakeConsumer{}
		w := NewProjectionWorker(&fakeProjector{})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx, consumer, 3) }()

		for consumer.started.Load() < 3 {
			runtime.Gosched()
		}
		cancel()

		if err := <-done; err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	})

	t.Run("consumer failure is returned", func(t *testing.T) {
		boom := errors.New("access refused")
		w := NewProjectionWorker(&fakeProjector{})

		if err := w.Run(context.Background(), &fakeConsumer{err: boom}, 0); !errors.Is(err, boom) {
			t.Fatalf("Run() error = %v, want %v", err, boom)
		}
	})
}
