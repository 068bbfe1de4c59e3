package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import the adapter package to ensure drivers are registered via init()
	_ "github.com/sqlsift/sqlsift/internal/adapter"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "sqlsift.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, root, cfg.TemplatesDir)
	assert.Equal(t, "text", cfg.OutputFormat)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Verbose)

	assert.True(t, cfg.GetHistory().Enabled)
	assert.Equal(t, filepath.Join(root, DefaultHistoryPath), cfg.GetHistory().Path)

	assert.Equal(t, "127.0.0.1", cfg.GetServer().Host)
	assert.Equal(t, 4455, cfg.GetServer().Port)

	assert.Equal(t, "duckdb", cfg.GetAdapter().Driver)

	assert.Equal(t, 100, cfg.GetWatch().DebounceMS)
	assert.Equal(t, []string{".sql", ".sql.j2"}, cfg.GetWatch().Extensions)
}

func TestLoadConfig_FileValues(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, `
templates_dir: queries
vars_file: vars.yml
output: json
no_color: true
verbose: true
history:
  enabled: false
  path: custom/history.db
server:
  host: 0.0.0.0
  port: 9000
adapter:
  driver: sqlite
  dsn: file:test.db
watch:
  debounce_ms: 250
  extensions: [".sql"]
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "queries"), cfg.TemplatesDir)
	assert.Equal(t, filepath.Join(root, "vars.yml"), cfg.VarsFile)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Verbose)

	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(root, "custom/history.db"), cfg.History.Path)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)

	assert.Equal(t, "sqlite", cfg.Adapter.Driver)
	assert.Equal(t, "file:test.db", cfg.Adapter.DSN)

	assert.Equal(t, 250, cfg.Watch.DebounceMS)
	assert.Equal(t, []string{".sql"}, cfg.Watch.Extensions)
}

func TestLoadConfig_StrictUnknownKey(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "templtes_dir: queries\n")

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to decode config")
	assert.Contains(t, err.Error(), "invalid keys")
}

func TestLoadConfig_InvalidOutputFormat(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "output: yaml\n")

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestLoadConfig_UnknownAdapterDriver(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "adapter:\n  driver: oracle\n")

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid adapter configuration")
	assert.Contains(t, err.Error(), "oracle")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "output: json\n")

	require.NoError(t, os.Setenv("SQLSIFT_OUTPUT", "markdown"))
	defer func() { _ = os.Unsetenv("SQLSIFT_OUTPUT") }()

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat, "env var should override config file")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "output: json\n")

	require.NoError(t, os.Setenv("SQLSIFT_OUTPUT", "markdown"))
	defer func() { _ = os.Unsetenv("SQLSIFT_OUTPUT") }()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output format")
	require.NoError(t, flags.Set("output", "table"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "table", cfg.OutputFormat, "flag should override env var and config file")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "output: json\n")

	require.NoError(t, os.Setenv("SQLSIFT_OUTPUT", "markdown"))
	defer func() { _ = os.Unsetenv("SQLSIFT_OUTPUT") }()

	// Flag registered but not set, so Changed is false
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output format")

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat, "env var should be used when flag is not set")
}

func TestLoadConfig_EnvSectionMapping(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "")

	require.NoError(t, os.Setenv("SQLSIFT_SERVER_PORT", "9999"))
	require.NoError(t, os.Setenv("SQLSIFT_ADAPTER_DRIVER", "postgres"))
	defer func() {
		_ = os.Unsetenv("SQLSIFT_SERVER_PORT")
		_ = os.Unsetenv("SQLSIFT_ADAPTER_DRIVER")
	}()

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Adapter.Driver)
}

func TestLoadConfig_UnrelatedEnvIgnored(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "")

	require.NoError(t, os.Setenv("SQLSIFT_EDITOR_THEME", "dark"))
	defer func() { _ = os.Unsetenv("SQLSIFT_EDITOR_THEME") }()

	_, err := LoadConfig(cfgPath, nil)
	assert.NoError(t, err, "unrecognized SQLSIFT_ variables should be ignored")
}

func TestLoadConfig_DSNExpansion(t *testing.T) {
	ResetConfig()

	require.NoError(t, os.Setenv("TEST_DB_HOST", "db.internal"))
	defer func() { _ = os.Unsetenv("TEST_DB_HOST") }()

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "adapter:\n  driver: postgres\n  dsn: postgres://${TEST_DB_HOST}:5432/app\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres://db.internal:5432/app", cfg.Adapter.DSN)
}

func TestLoadConfig_ProjectRootFromTemplatesDirFlag(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	writeConfig(t, root, "output: json\n")
	queries := filepath.Join(root, "queries")
	require.NoError(t, os.MkdirAll(queries, 0o755))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("templates-dir", "", "templates directory")
	require.NoError(t, flags.Set("templates-dir", queries))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot, "project root should be inferred from templates dir parent")
	assert.Equal(t, "json", cfg.OutputFormat, "config file in inferred root should be loaded")
	assert.Equal(t, queries, cfg.TemplatesDir)
	assert.Equal(t, filepath.Join(root, DefaultHistoryPath), cfg.History.Path)
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SQLSIFT_TEMPLATES_DIR", "templates_dir"},
		{"SQLSIFT_VARS_FILE", "vars_file"},
		{"SQLSIFT_OUTPUT", "output"},
		{"SQLSIFT_NO_COLOR", "no_color"},
		{"SQLSIFT_SERVER_PORT", "server.port"},
		{"SQLSIFT_SERVER_HOST", "server.host"},
		{"SQLSIFT_HISTORY_ENABLED", "history.enabled"},
		{"SQLSIFT_HISTORY_PATH", "history.path"},
		{"SQLSIFT_ADAPTER_DRIVER", "adapter.driver"},
		{"SQLSIFT_ADAPTER_DSN", "adapter.dsn"},
		{"SQLSIFT_WATCH_DEBOUNCE_MS", "watch.debounce_ms"},
		{"SQLSIFT_SOMETHING_ELSE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envTransform(tt.in))
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	require.NoError(t, os.Setenv("TEST_VAR_ONE", "value_one"))
	require.NoError(t, os.Setenv("TEST_VAR_TWO", "value_two"))
	defer func() {
		_ = os.Unsetenv("TEST_VAR_ONE")
		_ = os.Unsetenv("TEST_VAR_TWO")
	}()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"multiple variables", "${TEST_VAR_ONE}/${TEST_VAR_TWO}", "value_one/value_two"},
		{"variable in path", "/path/to/${TEST_VAR_ONE}/file", "/path/to/value_one/file"},
		{"unset variable stays as-is", "${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"no variables", "plain string", "plain string"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{TemplatesDir: "queries", OutputFormat: "text"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty templates_dir", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "templates_dir is required")
	})

	t.Run("invalid output format", func(t *testing.T) {
		cfg := &Config{TemplatesDir: "queries", OutputFormat: "yaml"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output format")
	})
}

func TestConfig_Accessors(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, DefaultHistoryPath, cfg.GetHistory().Path)
	assert.Equal(t, 4455, cfg.GetServer().Port)
	assert.Equal(t, "duckdb", cfg.GetAdapter().Driver)
	assert.Equal(t, []string{".sql", ".sql.j2"}, cfg.GetWatch().Extensions)
}
