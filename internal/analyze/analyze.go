// Package analyze orchestrates extraction, reduction, and rendering into
// the report shared by the CLI, REPL, and playground server.
package analyze

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sqlsift/sqlsift/internal/condition"
	"github.com/sqlsift/sqlsift/internal/extract"
	"github.com/sqlsift/sqlsift/internal/reduce"
	"github.com/sqlsift/sqlsift/internal/render"
	"github.com/sqlsift/sqlsift/internal/template"

	starctx "github.com/sqlsift/sqlsift/internal/starlark"
)

// Report is the full analysis of one template.
type Report struct {
	Success         bool               `json:"success"`
	Variables       []extract.Variable `json:"variables"`
	Reduced         string             `json:"reduced,omitempty"`
	Removed         int                `json:"removed_blocks"`
	Kept            int                `json:"kept_blocks"`
	Decisions       []reduce.Decision  `json:"decisions,omitempty"`
	DemoSQL         string             `json:"demo_sql,omitempty"`
	HasConditionals bool               `json:"has_conditionals"`
	HasLoops        bool               `json:"has_loops"`
	Error           string             `json:"error,omitempty"`
}

// RenderResult is the outcome of a render-only request.
type RenderResult struct {
	Success bool   `json:"success"`
	SQL     string `json:"sql,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FileReport pairs a report with the file it came from.
type FileReport struct {
	Path string `json:"path"`
	Report
}

// Analyzer runs template analyses.
type Analyzer struct {
	extractor *extract.Extractor
	logger    *slog.Logger
}

// New creates an analyzer. A nil logger discards log output.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{
		extractor: extract.New(starctx.NewEngine(), logger),
		logger:    logger,
	}
}

// Extract returns the variable descriptors for a template without
// reducing or rendering it.
func (a *Analyzer) Extract(ctx context.Context, input string) []extract.Variable {
	return a.extractor.Extract(ctx, input)
}

// Analyze extracts variables, reduces conditionals, and renders demo SQL.
// When vars is nil a demo context is synthesized from the extracted
// defaults. Loops are surfaced but never reduced or rendered.
func (a *Analyzer) Analyze(ctx context.Context, input string, vars map[string]any) Report {
	report := Report{
		Variables:       a.extractor.Extract(ctx, input),
		HasConditionals: template.HasConditionals(input),
		HasLoops:        template.HasLoops(input),
	}

	if vars == nil {
		vars = extract.DemoContext(report.Variables)
	}

	result, err := reduce.Process(input, "", condition.Context(vars))
	if err != nil {
		report.Error = err.Error()
		return report
	}

	report.Success = true
	report.Reduced = result.Reduced
	report.Removed = result.Removed
	report.Kept = result.Kept
	report.Decisions = result.Decisions

	rendered, err := render.Render(result.Reduced, vars)
	if err != nil {
		// Demo output is best effort: fall back to the reduced template.
		a.logger.Debug("demo render failed", "error", err)
		rendered = result.Reduced
	}
	report.DemoSQL = render.CleanupSQL(rendered)

	return report
}

// RenderOnly reduces and renders a template against the given variables.
// Unlike demo rendering, substitution failures are reported as errors.
func (a *Analyzer) RenderOnly(ctx context.Context, input string, vars map[string]any) RenderResult {
	if err := ctx.Err(); err != nil {
		return RenderResult{Error: err.Error()}
	}

	result, err := reduce.Process(input, "", condition.Context(vars))
	if err != nil {
		return RenderResult{Error: err.Error()}
	}

	sql, err := render.Render(result.Reduced, vars)
	if err != nil {
		return RenderResult{Error: err.Error()}
	}

	return RenderResult{Success: true, SQL: render.CleanupSQL(sql)}
}

// AnalyzeFiles fans analysis out over the given paths with bounded
// concurrency. Results are ordered by input; per-file failures land in
// their slot rather than aborting the batch.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string, vars map[string]any) ([]FileReport, error) {
	reports := make([]FileReport, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			content, err := os.ReadFile(path)
			if err != nil {
				reports[i] = FileReport{Path: path, Report: Report{Error: err.Error()}}
				return nil
			}

			reports[i] = FileReport{Path: path, Report: a.Analyze(gctx, string(content), vars)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
