// Package backend opens the scenario store selected by DATA_BACKEND.
package backend

import (
	"context"

	"forecast/internal/scenarios"
)

// BackendResult is an opened store. Cleanup releases it and is never nil.
type BackendResult struct {
	Store   scenarios.Store
	Cleanup func() error
}

// Factory opens stores.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType names a store implementation.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	MemoryBackend   BackendType = "memory"
	PostgresBackend BackendType = "postgres"
)

var backendTypes = []BackendType{SQLiteBackend, MemoryBackend, PostgresBackend}

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	for _, t := range backendTypes {
		if bt == t {
			return true
		}
	}
	return false
}
