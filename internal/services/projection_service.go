package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"forecast/assets"
	"forecast/internal/core"
	"forecast/internal/log"
	"forecast/internal/lookup"
	"forecast/internal/projection"
	"forecast/internal/scenarios"
)

// EventPublisher announces finished projection runs.
type EventPublisher interface {
	PublishProjectionGenerated(ctx context.Context, scenarioID int, b scenarios.Bundle) error
}

// LookupLoader resolves a named set of lookup tables.
type LookupLoader interface {
	Load(ctx context.Context, name string) (*lookup.Data, error)
}

// BundleStore persists and reads projection bundles.
type BundleStore interface {
	scenarios.ProjectionWriter
	scenarios.ProjectionReader
}

// ProjectionService orchestrates a projection run from the scenario store
// through the engine into the bundle store, then publishes an event.
type ProjectionService struct {
	scenarios  scenarios.ScenarioReader
	bundles    BundleStore
	lookups    LookupLoader
	lookupName string
	publisher  EventPublisher

	defaultPeriodicity string

	now   func() time.Time
	newID func() uuid.UUID
}

// NewProjectionService wires a service. A nil lookups serves the embedded
// tables and a nil publisher disables events.
func NewProjectionService(reader scenarios.ScenarioReader, bundles BundleStore, lookups LookupLoader, publisher EventPublisher) *ProjectionService {
	if lookups == nil {
		lookups = lookup.NewLoader(nil)
	}
	return &ProjectionService{
		scenarios:  reader,
		bundles:    bundles,
		lookups:    lookups,
		lookupName: assets.LookupFile,
		publisher:  publisher,
		now:        time.Now,
		newID:      uuid.New,
	}
}

// WithLookupFile selects which lookup file the loader is asked for.
func (s *ProjectionService) WithLookupFile(name string) *ProjectionService {
	if name != "" {
		s.lookupName = name
	}
	return s
}

// WithDefaultPeriodicity sets the periodicity used when neither the request
// nor the scenario's stored config names one.
func (s *ProjectionService) WithDefaultPeriodicity(periodicity string) *ProjectionService {
	s.defaultPeriodicity = periodicity
	return s
}

// IsConfigError reports whether err came from an unusable projection window,
// as opposed to a storage or lookup failure.
func IsConfigError(err error) bool {
	return errors.Is(err, core.ErrMissingDates) || errors.Is(err, projection.ErrInvalidWindow)
}

// GenerateProjections runs the engine over scenarioID and replaces its stored
// bundle with the result.
func (s *ProjectionService) GenerateProjections(ctx context.Context, scenarioID int, opts projection.Options) (scenarios.Bundle, error) {
	data, err := s.lookups.Load(ctx, s.lookupName)
	if err != nil {
		return scenarios.Bundle{}, fmt.Errorf("load lookup data: %w", err)
	}

	scenario, err := s.scenarios.GetScenario(ctx, scenarioID)
	if err != nil {
		return scenarios.Bundle{}, fmt.Errorf("get scenario %d: %w", scenarioID, err)
	}

	opts = s.withDefaults(scenario, opts)

	started := s.now()
	rows, cfg, err := projection.NewEngine(data).Run(scenario, opts)
	if err != nil {
		return scenarios.Bundle{}, fmt.Errorf("project scenario %d: %w", scenarioID, err)
	}

	generatedAt := s.now().UTC()
	bundle := scenarios.Bundle{
		ID:          s.newID(),
		Config:      &cfg,
		Rows:        rows,
		GeneratedAt: &generatedAt,
	}
	if err := s.bundles.SaveProjectionBundle(ctx, scenarioID, bundle); err != nil {
		return scenarios.Bundle{}, fmt.Errorf("save projection bundle: %w", err)
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogProjectionGenerated(ctx,
		scenarioID, bundle.ID.String(), len(rows),
		cfg.PeriodType.String(), cfg.StartDate.String(), cfg.EndDate.String())
	slog.DebugContext(ctx, "Projection timing", "scenario_id", scenarioID, "duration", generatedAt.Sub(started.UTC()))

	if err := s.publishGenerated(ctx, scenarioID, bundle); err != nil {
		slog.ErrorContext(ctx, "Failed to publish projection event",
			"scenario_id", scenarioID, "error", err)
	}

	return bundle, nil
}

// GetProjections returns the stored bundle of scenarioID. A scenario that was
// never projected yields an empty bundle.
func (s *ProjectionService) GetProjections(ctx context.Context, scenarioID int) (scenarios.Bundle, error) {
	if _, err := s.scenarios.GetScenario(ctx, scenarioID); err != nil {
		return scenarios.Bundle{}, fmt.Errorf("get scenario %d: %w", scenarioID, err)
	}
	b, err := s.bundles.GetProjectionBundle(ctx, scenarioID)
	if errors.Is(err, scenarios.ErrBundleNotFound) {
		return scenarios.Bundle{Rows: []core.ProjectionRecord{}}, nil
	}
	if err != nil {
		return scenarios.Bundle{}, fmt.Errorf("get projection bundle: %w", err)
	}
	return b, nil
}

// ClearProjections stores an empty bundle for scenarioID.
func (s *ProjectionService) ClearProjections(ctx context.Context, scenarioID int) error {
	if _, err := s.scenarios.GetScenario(ctx, scenarioID); err != nil {
		return fmt.Errorf("get scenario %d: %w", scenarioID, err)
	}
	empty := scenarios.Bundle{ID: s.newID(), Rows: []core.ProjectionRecord{}}
	if err := s.bundles.SaveProjectionBundle(ctx, scenarioID, empty); err != nil {
		return fmt.Errorf("clear projection bundle: %w", err)
	}
	slog.InfoContext(ctx, "Projections cleared", "scenario_id", scenarioID)
	return nil
}

// GenerateMany projects several scenarios concurrently, at most limit at a
// time (limit <= 0 means no bound). Runs share nothing but the stores; the
// first failure cancels the rest and is returned. Successful bundles are
// keyed by scenario ID.
func (s *ProjectionService) GenerateMany(ctx context.Context, ids []int, opts projection.Options, limit int) (map[int]scenarios.Bundle, error) {
	results := make([]scenarios.Bundle, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := s.GenerateProjections(gctx, id, opts)
			if err != nil {
				return err
			}
			results[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int]scenarios.Bundle, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

func (s *ProjectionService) withDefaults(scenario *core.Scenario, opts projection.Options) projection.Options {
	if s.defaultPeriodicity == "" || opts.Periodicity != "" || projection.PeriodType(opts.PeriodTypeID).Valid() {
		return opts
	}
	if scenario != nil && scenario.Projection != nil && projection.PeriodType(scenario.Projection.Config.PeriodTypeID).Valid() {
		return opts
	}
	opts.Periodicity = s.defaultPeriodicity
	return opts
}

func (s *ProjectionService) publishGenerated(ctx context.Context, scenarioID int, b scenarios.Bundle) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping projection event")
		return nil
	}
	return s.publisher.PublishProjectionGenerated(ctx, scenarioID, b)
}
