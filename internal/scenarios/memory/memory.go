// Package memory is a file-seeded, in-memory scenario store.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"forecast/internal/core"
	"forecast/internal/scenarios"
)

type Store struct {
	mu        sync.RWMutex
	scenarios map[int]core.Scenario
	bundles   map[int]scenarios.Bundle
}

var _ scenarios.Store = (*Store)(nil)

func New(seed ...core.Scenario) *Store {
	s := &Store{
		scenarios: make(map[int]core.Scenario, len(seed)),
		bundles:   make(map[int]scenarios.Bundle),
	}
	for _, sc := range seed {
		s.scenarios[sc.ID] = sc
	}
	return s
}

// NewFromDir loads scenarios from dir/scenarios.json (a JSON array) or, when
// that file is absent, from every *.json file in dir (one scenario each).
// A missing directory yields an empty store.
func NewFromDir(dir string) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenarios.json"))
	switch {
	case err == nil:
		var list []core.Scenario
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode scenarios.json: %w", err)
		}
		return New(list...), nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read scenarios.json: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list scenario files: %w", err)
	}
	slices.Sort(files)

	var list []core.Scenario
	for _, f := range files {
		sc, err := ReadScenarioFile(f)
		if err != nil {
			return nil, err
		}
		list = append(list, *sc)
	}
	return New(list...), nil
}

// ReadScenarioFile decodes a single scenario document.
func ReadScenarioFile(path string) (*core.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var sc core.Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", filepath.Base(path), err)
	}
	return &sc, nil
}

func (s *Store) GetScenario(_ context.Context, id int) (*core.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("scenario %d: %w", id, core.ErrScenarioNotFound)
	}
	return &sc, nil
}

func (s *Store) SaveScenario(_ context.Context, sc *core.Scenario) error {
	if sc == nil {
		return errors.New("nil scenario")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios[sc.ID] = *sc
	return nil
}

func (s *Store) ListScenarios(_ context.Context) ([]scenarios.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scenarios.Summary, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		out = append(out, scenarios.Summary{ID: sc.ID, Name: sc.Name})
	}
	slices.SortFunc(out, func(a, b scenarios.Summary) int { return a.ID - b.ID })
	return out, nil
}

// All returns every stored scenario ordered by ID.
func (s *Store) All() []core.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Scenario, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		out = append(out, sc)
	}
	slices.SortFunc(out, func(a, b core.Scenario) int { return a.ID - b.ID })
	return out
}

func (s *Store) SaveProjectionBundle(_ context.Context, scenarioID int, b scenarios.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Rows = slices.Clone(b.Rows)
	s.bundles[scenarioID] = b
	return nil
}

func (s *Store) GetProjectionBundle(_ context.Context, scenarioID int) (scenarios.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[scenarioID]
	if !ok {
		return scenarios.Bundle{}, fmt.Errorf("scenario %d: %w", scenarioID, scenarios.ErrBundleNotFound)
	}
	b.Rows = slices.Clone(b.Rows)
	return b, nil
}

func (s *Store) Close() error { return nil }
