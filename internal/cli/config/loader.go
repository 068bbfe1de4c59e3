package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/sqlsift/sqlsift/internal/config"
)

// loggerKey is used to store the logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "SQLSIFT_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// configExistsIn checks if a sqlsift config file exists in the directory.
func configExistsIn(dir string) bool {
	return sharedcfg.FindConfigFile(dir) != ""
}

// findProjectRootUpward searches upward from startDir for a sqlsift config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and filesystem.
// Priority:
//  1. Infer from --templates-dir (the directory itself or its parent when one
//     of them carries a config file)
//  2. Directory of an explicit --config file
//  3. Search upward from CWD for sqlsift.yml
//  4. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if flags != nil && flags.Changed("templates-dir") {
		if templatesDir, _ := flags.GetString("templates-dir"); templatesDir != "" {
			if abs, err := filepath.Abs(templatesDir); err == nil {
				if configExistsIn(abs) {
					return abs
				}
				if parent := filepath.Dir(abs); configExistsIn(parent) {
					return parent
				}
			}
		}
	}

	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// flagConfigKeys maps persistent flag names to their config keys.
var flagConfigKeys = map[string]string{
	"templates-dir": "templates_dir",
	"vars-file":     "vars_file",
	"output":        "output",
	"no-color":      "no_color",
	"verbose":       "verbose",
}

// envTransform maps SQLSIFT_ environment variables to config keys.
// Section variables nest: SQLSIFT_SERVER_PORT -> server.port. Top-level
// variables map flat: SQLSIFT_TEMPLATES_DIR -> templates_dir. Unrecognized
// top-level variables are ignored so unrelated SQLSIFT_ entries in the
// environment don't fail the strict unmarshal.
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range []string{"adapter", "history", "server", "watch"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	if _, ok := topLevelKeys[key]; ok {
		return key
	}
	return ""
}

// topLevelKeys are the flat config keys settable from the environment.
var topLevelKeys = map[string]struct{}{
	"templates_dir": {},
	"vars_file":     {},
	"output":        {},
	"no_color":      {},
	"verbose":       {},
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile, flags)

	// Track paths that were explicitly provided as flags (relative to CWD).
	// These are converted to absolute paths before the normal resolution
	// step, to prevent resolving them against an inferred project root.
	var flagTemplatesDir, flagVarsFile string
	if flags != nil {
		if flags.Changed("templates-dir") {
			if v, _ := flags.GetString("templates-dir"); v != "" {
				flagTemplatesDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("vars-file") {
			if v, _ := flags.GetString("vars-file"); v != "" {
				flagVarsFile, _ = filepath.Abs(v)
			}
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"templates_dir":     sharedcfg.DefaultTemplatesDir,
		"output":            sharedcfg.DefaultOutput,
		"no_color":          false,
		"verbose":           false,
		"history.enabled":   true,
		"history.path":      sharedcfg.DefaultHistoryPath,
		"server.host":       sharedcfg.DefaultServerHost,
		"server.port":       sharedcfg.DefaultServerPort,
		"adapter.driver":    sharedcfg.DefaultDriver,
		"watch.debounce_ms": sharedcfg.DefaultDebounceMS,
		"watch.extensions":  sharedcfg.DefaultWatchExtensions(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	// Search in project root if no explicit config file provided
	if cfgFile == "" {
		cfgFile = sharedcfg.FindConfigFile(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (SQLSIFT_ prefix)
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set and that map to a
			// config key. Command-local flags like --demo stay out of the
			// config map, which unmarshals strictly.
			if !f.Changed {
				return "", nil
			}
			key, ok := flagConfigKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct. ErrorUnused turns typos in
	// sqlsift.yml or SQLSIFT_ variables into load errors.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root, expand ${VAR} references, and resolve relative
	// paths against the project root.
	cfg.ProjectRoot = projectRoot

	cfg.TemplatesDir = expandEnvVars(cfg.TemplatesDir)
	cfg.VarsFile = expandEnvVars(cfg.VarsFile)
	history := cfg.GetHistory()
	history.Path = expandEnvVars(history.Path)
	adapterCfg := cfg.GetAdapter()
	adapterCfg.DSN = expandEnvVars(adapterCfg.DSN)
	cfg.GetServer()
	cfg.GetWatch()

	// For paths explicitly provided via flags, use the pre-computed
	// absolute paths. For paths from config file or defaults, resolve
	// relative to project root.
	if flagTemplatesDir != "" {
		cfg.TemplatesDir = flagTemplatesDir
	} else {
		cfg.TemplatesDir = resolvePathRelativeTo(cfg.TemplatesDir, projectRoot)
	}
	if flagVarsFile != "" {
		cfg.VarsFile = flagVarsFile
	} else {
		cfg.VarsFile = resolvePathRelativeTo(cfg.VarsFile, projectRoot)
	}
	history.Path = resolvePathRelativeTo(history.Path, projectRoot)

	// Validate adapter configuration against the driver registry
	if err := adapterCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid adapter configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}
