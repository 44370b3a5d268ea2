// Package scenarios defines the ports the projection service reads scenarios
// from and writes projection bundles to.
package scenarios

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"forecast/internal/core"
	"forecast/internal/projection"
)

var ErrBundleNotFound = errors.New("projection bundle not found")

// Bundle is the persisted result of one projection run. A cleared bundle has
// no rows, no config and no generation time.
type Bundle struct {
	ID          uuid.UUID               `json:"id"`
	Config      *projection.Config      `json:"config,omitempty"`
	Rows        []core.ProjectionRecord `json:"rows"`
	GeneratedAt *time.Time              `json:"generatedAt"`
}

// Summary identifies a stored scenario.
type Summary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Ports for outbound adapters.
type (
	ScenarioReader interface {
		// GetScenario returns core.ErrScenarioNotFound for unknown IDs.
		GetScenario(ctx context.Context, id int) (*core.Scenario, error)
	}

	ScenarioWriter interface {
		SaveScenario(ctx context.Context, s *core.Scenario) error
	}

	ScenarioLister interface {
		ListScenarios(ctx context.Context) ([]Summary, error)
	}

	ProjectionWriter interface {
		SaveProjectionBundle(ctx context.Context, scenarioID int, b Bundle) error
	}

	ProjectionReader interface {
		// GetProjectionBundle returns ErrBundleNotFound when nothing was saved.
		GetProjectionBundle(ctx context.Context, scenarioID int) (Bundle, error)
	}

	// Store is the full set of ports a backend provides.
	Store interface {
		ScenarioReader
		ScenarioWriter
		ScenarioLister
		ProjectionWriter
		ProjectionReader
		Close() error
	}
)
