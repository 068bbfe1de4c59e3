// Package config provides configuration management for the sqlsift CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields and the koanf loading chain. The shared types
// (AdapterConfig, HistoryConfig, ServerConfig, WatchConfig) are defined in
// internal/config and re-exported here via type aliases for convenience.
package config

import (
	sharedcfg "github.com/sqlsift/sqlsift/internal/config"
)

// AdapterConfig is an alias for the shared adapter configuration.
type AdapterConfig = sharedcfg.AdapterConfig

// HistoryConfig is an alias for the shared history configuration.
type HistoryConfig = sharedcfg.HistoryConfig

// ServerConfig is an alias for the shared server configuration.
type ServerConfig = sharedcfg.ServerConfig

// WatchConfig is an alias for the shared watch configuration.
type WatchConfig = sharedcfg.WatchConfig

// Config holds all CLI configuration options.
type Config struct {
	TemplatesDir string         `koanf:"templates_dir"`
	VarsFile     string         `koanf:"vars_file"`
	OutputFormat string         `koanf:"output"`
	NoColor      bool           `koanf:"no_color"`
	Verbose      bool           `koanf:"verbose"`
	History      *HistoryConfig `koanf:"history"`
	Server       *ServerConfig  `koanf:"server"`
	Adapter      *AdapterConfig `koanf:"adapter"`
	Watch        *WatchConfig   `koanf:"watch"`

	// ProjectRoot is the directory all relative paths resolve against.
	// Set by the loader, never read from a file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values - uses shared defaults from internal/config.
const (
	DefaultTemplatesDir = sharedcfg.DefaultTemplatesDir
	DefaultOutput       = sharedcfg.DefaultOutput
	DefaultHistoryPath  = sharedcfg.DefaultHistoryPath
)

// GetHistory returns the history config with defaults applied for any unset values.
func (c *Config) GetHistory() *HistoryConfig {
	if c.History == nil {
		c.History = &HistoryConfig{Enabled: true}
	}
	sharedcfg.ApplyHistoryDefaults(c.History)
	return c.History
}

// GetServer returns the server config with defaults applied for any unset values.
func (c *Config) GetServer() *ServerConfig {
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	sharedcfg.ApplyServerDefaults(c.Server)
	return c.Server
}

// GetAdapter returns the adapter config with defaults applied for any unset values.
func (c *Config) GetAdapter() *AdapterConfig {
	if c.Adapter == nil {
		c.Adapter = &AdapterConfig{}
	}
	sharedcfg.ApplyAdapterDefaults(c.Adapter)
	return c.Adapter
}

// GetWatch returns the watch config with defaults applied for any unset values.
func (c *Config) GetWatch() *WatchConfig {
	if c.Watch == nil {
		c.Watch = &WatchConfig{}
	}
	sharedcfg.ApplyWatchDefaults(c.Watch)
	return c.Watch
}
