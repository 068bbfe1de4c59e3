package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/output"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Vars []string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Re-analyze templates when they change",
		Long: `Watch a directory tree for template changes and re-analyze each
changed file, printing a one-line summary per analysis.

Without an argument the configured templates directory is watched. The
debounce window and watched extensions come from the watch section of
sqlsift.yml.`,
		Example: `  # Watch the configured templates directory
  sqlsift watch

  # Watch a specific directory with a fixed context
  sqlsift watch queries/ --var region=eu`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			return runWatch(cmd, dir, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Variable as NAME=VALUE (repeatable)")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, opts *WatchOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	if dir == "" {
		dir = cmdCtx.Cfg.TemplatesDir
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	vars, err := cmdCtx.LoadContextVars(opts.Vars)
	if err != nil {
		return err
	}

	watchCfg := cmdCtx.Cfg.GetWatch()

	// Initial pass over templates already on disk.
	initial := findTemplates(dir, watchCfg.WantsFile)
	for _, path := range initial {
		analyzeAndSummarize(ctx, cmdCtx, path, vars)
	}
	r.Printf("watching %s (%d templates)\n", dir, len(initial))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addWatchDirs(watcher, dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	debounce := time.Duration(watchCfg.DebounceMS) * time.Millisecond

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// New directories join the watch set.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addWatchDirs(watcher, event.Name)
					continue
				}
			}

			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !watchCfg.WantsFile(event.Name) {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(debounce, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				analyzeAndSummarize(ctx, cmdCtx, path, vars)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.Error(fmt.Sprintf("watch error: %v", err))
		}
	}
}

// analyzeAndSummarize analyzes one file and prints a single summary line.
func analyzeAndSummarize(ctx context.Context, cmdCtx *CommandContext, path string, vars map[string]any) {
	r := cmdCtx.Renderer

	content, err := os.ReadFile(path)
	if err != nil {
		r.Error(fmt.Sprintf("%s: %v", path, err))
		return
	}

	report := cmdCtx.Analyzer.Analyze(ctx, string(content), vars)
	if report.Error != "" {
		r.Error(fmt.Sprintf("%s: %s", path, report.Error))
		return
	}

	if r.EffectiveMode() == output.ModeJSON {
		_ = r.JSON(struct {
			Path      string `json:"path"`
			Variables int    `json:"variables"`
			Kept      int    `json:"kept_blocks"`
			Removed   int    `json:"removed_blocks"`
		}{path, len(report.Variables), report.Kept, report.Removed})
		return
	}

	r.Success(fmt.Sprintf("%s: %d variables, kept %d, removed %d",
		path, len(report.Variables), report.Kept, report.Removed))
}

// findTemplates lists matching files under dir, sorted for stable output.
func findTemplates(dir string, wants func(string) bool) []string {
	var paths []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && wants(path) {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths
}

// addWatchDirs adds dir and every subdirectory to the watcher.
func addWatchDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
