package backend

import (
	"errors"
	"fmt"
	"strings"

	"forecast/internal/config"
)

// Config is the subset of the application config a Factory needs.
type Config struct {
	Type         BackendType
	SQLiteDBPath string
	DatabaseURL  string

	// DataDirectory holds scenario JSON files. The memory backend serves
	// them as is; sqlite and postgres import them when the database is empty.
	DataDirectory string
}

// FromAppConfig picks the backend fields out of cfg.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("backend: nil config")
	}
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("backend: unknown type %q (want one of %s)",
			cfg.DataBackend, strings.Join(GetBackendTypeStrings(), ", "))
	}
	return Config{
		Type:          bt,
		SQLiteDBPath:  cfg.SQLiteDBPath,
		DatabaseURL:   cfg.DatabaseURL,
		DataDirectory: cfg.DataDirectory,
	}, nil
}

// Validate checks that the settings the chosen type depends on are present.
// An empty DataDirectory is fine everywhere; memory falls back to "data".
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("backend: sqlite needs SQLITE_DB_PATH")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("backend: postgres needs DATABASE_URL")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("backend: unknown type %q", c.Type)
	}
	return nil
}

// GetBackendTypeStrings lists the accepted DATA_BACKEND values.
func GetBackendTypeStrings() []string {
	out := make([]string, len(backendTypes))
	for i, t := range backendTypes {
		out[i] = t.String()
	}
	return out
}
