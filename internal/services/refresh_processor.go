package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"forecast/internal/projection"
	"forecast/internal/scenarios"
)

// RefreshProcessorConfig holds configuration for the refresh processor
type RefreshProcessorConfig struct {
	// PollInterval is how often stored bundles are checked (default: 15m)
	PollInterval time.Duration

	// MaxAge is how old a bundle may get before it is regenerated (default: 24h)
	MaxAge time.Duration

	// Concurrency bounds how many scenarios are projected at once (default: 4)
	Concurrency int
}

// DefaultRefreshProcessorConfig returns sensible defaults
func DefaultRefreshProcessorConfig() RefreshProcessorConfig {
	return RefreshProcessorConfig{
		PollInterval: 15 * time.Minute,
		MaxAge:       24 * time.Hour,
		Concurrency:  4,
	}
}

// RefreshProcessor regenerates projections whose stored bundle is missing or
// older than MaxAge. Cleared bundles are left alone.
type RefreshProcessor struct {
	lister   scenarios.ScenarioLister
	bundles  scenarios.ProjectionReader
	projects *ProjectionService
	config   RefreshProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefreshProcessor creates a new refresh processor
func NewRefreshProcessor(
	lister scenarios.ScenarioLister,
	bundles scenarios.ProjectionReader,
	projects *ProjectionService,
	config RefreshProcessorConfig,
) *RefreshProcessor {
	return &RefreshProcessor{
		lister:   lister,
		bundles:  bundles,
		projects: projects,
		config:   config,
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (p *RefreshProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("refresh processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Refresh processor started",
		"poll_interval", p.config.PollInterval,
		"max_age", p.config.MaxAge,
		"concurrency", p.config.Concurrency)

	return nil
}

// Stop gracefully stops the processor and waits for the current cycle.
func (p *RefreshProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Refresh processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *RefreshProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RefreshProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.RefreshStale(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RefreshStale(ctx)
		}
	}
}

// RefreshStale runs one cycle and returns how many scenarios were projected.
func (p *RefreshProcessor) RefreshStale(ctx context.Context) int {
	stale, err := p.staleScenarios(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to find stale projections", "error", err)
		return 0
	}
	if len(stale) == 0 {
		return 0
	}

	var refreshed atomic.Int64
	g := new(errgroup.Group)
	if p.config.Concurrency > 0 {
		g.SetLimit(p.config.Concurrency)
	}
	for _, id := range stale {
		g.Go(func() error {
			// Scenarios fail independently; one bad window must not stop the cycle.
			if _, err := p.projects.GenerateProjections(ctx, id, projection.Options{}); err != nil {
				slog.WarnContext(ctx, "Failed to refresh projections",
					"scenario_id", id, "error", err)
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "Refresh cycle completed",
		"stale", len(stale),
		"refreshed", refreshed.Load(),
		"failed", int64(len(stale))-refreshed.Load())
	return int(refreshed.Load())
}

func (p *RefreshProcessor) staleScenarios(ctx context.Context) ([]int, error) {
	list, err := p.lister.ListScenarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}

	now := p.projects.now()
	var stale []int
	for _, sc := range list {
		b, err := p.bundles.GetProjectionBundle(ctx, sc.ID)
		switch {
		case errors.Is(err, scenarios.ErrBundleNotFound):
			stale = append(stale, sc.ID)
		case err != nil:
			return nil, fmt.Errorf("get projection bundle %d: %w", sc.ID, err)
		case b.GeneratedAt != nil && now.Sub(*b.GeneratedAt) > p.config.MaxAge:
			stale = append(stale, sc.ID)
		}
	}
	return stale, nil
}
