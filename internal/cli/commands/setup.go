package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/analyze"
	"github.com/sqlsift/sqlsift/internal/cli/config"
	intconfig "github.com/sqlsift/sqlsift/internal/config"
	"github.com/sqlsift/sqlsift/internal/output"
	"github.com/sqlsift/sqlsift/internal/reduce"
	"github.com/sqlsift/sqlsift/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Analyzer *analyze.Analyzer
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's config
// and writers.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	if cfg.NoColor {
		r.WithColor(false)
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Analyzer: analyze.New(logger),
		Renderer: r,
	}
}

// getConfig returns the current configuration, falling back to defaults
// when no root command loaded one (direct command invocation in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		TemplatesDir: config.DefaultTemplatesDir,
		OutputFormat: config.DefaultOutput,
	}
}

// OpenHistory opens the history store when enabled. A nil store with a
// nil error means history is turned off.
func (c *CommandContext) OpenHistory() (*state.Store, func(), error) {
	hist := c.Cfg.GetHistory()
	if !hist.Enabled {
		return nil, func() {}, nil
	}

	store, err := state.Open(hist.Path, c.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// RecordRun persists a run when the store is open. History failures are
// logged, never fatal.
func (c *CommandContext) RecordRun(ctx context.Context, store *state.Store, run *state.Run) {
	if store == nil {
		return
	}
	if err := store.RecordRun(ctx, run); err != nil {
		c.Logger.Warn("failed to record run", "error", err)
	}
}

// LoadContextVars merges the configured vars file with --var overrides.
// Returns nil when neither source provided anything, which callers treat
// as "synthesize a demo context".
func (c *CommandContext) LoadContextVars(varFlags []string) (map[string]any, error) {
	var vars map[string]any

	if c.Cfg.VarsFile != "" {
		fileVars, err := intconfig.LoadVarsFile(c.Cfg.VarsFile)
		if err != nil {
			return nil, err
		}
		vars = fileVars
	}

	flagVars, err := parseVarFlags(varFlags)
	if err != nil {
		return nil, err
	}
	if len(flagVars) > 0 {
		if vars == nil {
			vars = make(map[string]any, len(flagVars))
		}
		for k, v := range flagVars {
			vars[k] = v
		}
	}

	return vars, nil
}

// readTemplate reads a template from path, or stdin when path is "-".
func readTemplate(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

// parseVarFlags parses repeated --var NAME=VALUE pairs.
func parseVarFlags(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q (want NAME=VALUE)", pair)
		}
		vars[name] = parseVarValue(raw)
	}
	return vars, nil
}

// parseVarValue types a flag value: int, float, bool, and null literals
// parse to their Go values, everything else stays a string.
func parseVarValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	case "null", "none":
		return nil
	}
	return raw
}

// decisionsJSON marshals a decision log for history storage. Empty input
// and marshal failures both produce the empty string.
func decisionsJSON(decisions []reduce.Decision) string {
	if len(decisions) == 0 {
		return ""
	}
	data, err := json.Marshal(decisions)
	if err != nil {
		return ""
	}
	return string(data)
}
