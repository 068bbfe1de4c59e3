package config

// Default configuration values.
const (
	DefaultTemplatesDir = "."
	DefaultOutput       = "text"
	DefaultDriver       = "duckdb"
	DefaultHistoryPath  = ".sqlsift/history.db"
	DefaultServerHost   = "127.0.0.1"
	DefaultServerPort   = 4455
	DefaultDebounceMS   = 100
)

// DefaultWatchExtensions returns the file extensions watched by default.
func DefaultWatchExtensions() []string {
	return []string{".sql", ".sql.j2"}
}

// ApplyAdapterDefaults applies default values to an AdapterConfig.
func ApplyAdapterDefaults(a *AdapterConfig) {
	if a == nil {
		return
	}
	if a.Driver == "" {
		a.Driver = DefaultDriver
	}
}

// ApplyHistoryDefaults applies default values to a HistoryConfig.
func ApplyHistoryDefaults(h *HistoryConfig) {
	if h == nil {
		return
	}
	if h.Path == "" {
		h.Path = DefaultHistoryPath
	}
}

// ApplyServerDefaults applies default values to a ServerConfig.
func ApplyServerDefaults(s *ServerConfig) {
	if s == nil {
		return
	}
	if s.Host == "" {
		s.Host = DefaultServerHost
	}
	if s.Port == 0 {
		s.Port = DefaultServerPort
	}
}

// ApplyWatchDefaults applies default values to a WatchConfig.
func ApplyWatchDefaults(w *WatchConfig) {
	if w == nil {
		return
	}
	if w.DebounceMS == 0 {
		w.DebounceMS = DefaultDebounceMS
	}
	if len(w.Extensions) == 0 {
		w.Extensions = DefaultWatchExtensions()
	}
}
