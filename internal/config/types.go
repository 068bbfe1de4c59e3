// Package config provides shared configuration types for sqlsift.
// This package is decoupled from CLI concerns so the playground server and
// other tools can load project configuration without importing the CLI.
package config

import (
	"strings"

	"github.com/sqlsift/sqlsift/pkg/adapter"
)

// AdapterConfig holds database adapter configuration.
type AdapterConfig struct {
	Driver string `koanf:"driver"` // duckdb, postgres, sqlite

	// DSN is the driver connection string. Empty selects the driver's
	// default (in-memory for duckdb and sqlite).
	DSN string `koanf:"dsn"`

	// Options contains additional driver-specific settings.
	Options map[string]string `koanf:"options"`
}

// ToAdapterConfig converts to the pkg/adapter connection config.
func (a *AdapterConfig) ToAdapterConfig() adapter.Config {
	return adapter.Config{
		Driver:  strings.ToLower(a.Driver),
		DSN:     a.DSN,
		Options: a.Options,
	}
}

// Validate checks if the adapter configuration is valid.
// It uses the adapter registry to determine which drivers are available.
func (a *AdapterConfig) Validate() error {
	if a.Driver == "" {
		return nil // driver is optional until a command needs a database
	}
	if !adapter.IsRegistered(strings.ToLower(a.Driver)) {
		return &adapter.UnknownDriverError{
			Driver:    a.Driver,
			Available: adapter.ListDrivers(),
		}
	}
	return nil
}

// HistoryConfig holds run-history store configuration.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// ServerConfig holds playground server configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// WatchConfig holds file-watch configuration.
type WatchConfig struct {
	// DebounceMS is the quiet period after a change before re-analyzing.
	DebounceMS int `koanf:"debounce_ms"`

	// Extensions lists the file extensions the watcher reacts to.
	Extensions []string `koanf:"extensions"`
}

// WantsFile reports whether the watcher should react to changes in path.
func (w *WatchConfig) WantsFile(path string) bool {
	for _, ext := range w.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
