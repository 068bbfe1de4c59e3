package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/output"
)

const (
	replPrompt     = "sqlsift> "
	replContinue   = "    ...> "
	replTerminator = ";;"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive template analysis session",
		Long: `Start an interactive session for analyzing templates.

Paste a template and finish it with ";;" on its own line to analyze it.
Dot-commands inspect and transform the current template:

  .help            Show available commands
  .vars            Show the current template's variable descriptors
  .reduce          Reduce the current template against the session context
  .render          Render the current template (demo values when no context)
  .context         Show the session variables
  .set NAME VALUE  Set a session variable
  .unset NAME      Remove a session variable
  .load FILE       Load a template from a file
  .clear           Reset the template and session variables
  .quit            Exit the session`,
		Example: `  sqlsift repl`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}

	return cmd
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)

	session := &replSession{
		cmdCtx: cmdCtx,
		ctx:    cmd.Context(),
		vars:   make(map[string]any),
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     replHistoryFile(cmdCtx),
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "sqlsift template REPL")
	_, _ = fmt.Fprintf(out, "Paste a template and finish with %q, or type .help for commands\n", replTerminator)
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.resetBuffer()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		quit, prompt := session.feed(line)
		if quit {
			break
		}
		rl.SetPrompt(prompt)
	}

	return nil
}

// replSession holds the REPL state: the template being typed, the last
// complete template, and the variable context.
type replSession struct {
	cmdCtx   *CommandContext
	ctx      context.Context
	buf      strings.Builder
	template string
	vars     map[string]any
}

func (s *replSession) resetBuffer() {
	s.buf.Reset()
}

func (s *replSession) buffering() bool {
	return s.buf.Len() > 0
}

// feed processes one input line and reports whether the session is done
// plus the prompt for the next read.
func (s *replSession) feed(line string) (quit bool, prompt string) {
	trimmed := strings.TrimSpace(line)

	if !s.buffering() {
		if trimmed == "" {
			return false, replPrompt
		}
		if strings.HasPrefix(trimmed, ".") {
			return s.handleDotCommand(trimmed), replPrompt
		}
	}

	// Terminator ends the paste; everything before it still counts.
	if idx := strings.LastIndex(line, replTerminator); idx >= 0 && strings.TrimSpace(line[idx+len(replTerminator):]) == "" {
		if head := line[:idx]; strings.TrimSpace(head) != "" {
			s.buf.WriteString(head)
			s.buf.WriteString("\n")
		}
		s.analyzeBuffer()
		return false, replPrompt
	}

	s.buf.WriteString(line)
	s.buf.WriteString("\n")
	return false, replContinue
}

// analyzeBuffer promotes the buffer to the current template and prints
// its analysis.
func (s *replSession) analyzeBuffer() {
	template := strings.TrimRight(s.buf.String(), "\n")
	s.buf.Reset()
	if strings.TrimSpace(template) == "" {
		return
	}

	s.template = template
	s.showAnalysis()
}

func (s *replSession) showAnalysis() {
	r := s.cmdCtx.Renderer

	report := s.cmdCtx.Analyzer.Analyze(s.ctx, s.template, s.contextVars())
	if report.Error != "" {
		r.Error(report.Error)
		return
	}

	output.VariablesTable(r.Writer(), report.Variables)
	if report.HasConditionals {
		r.Println("")
		output.DecisionsTable(r.Writer(), report.Decisions)
	}
	if report.DemoSQL != "" {
		r.Println("")
		r.Header(2, "Demo SQL")
		r.Println(report.DemoSQL)
	}
	r.Println("")
}

// contextVars returns the session variables, or nil when none are set
// so analyses fall back to demo synthesis.
func (s *replSession) contextVars() map[string]any {
	if len(s.vars) == 0 {
		return nil
	}
	return s.vars
}

// handleDotCommand runs one dot-command and reports whether to quit.
func (s *replSession) handleDotCommand(line string) bool {
	r := s.cmdCtx.Renderer
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.Writer())

	case ".vars":
		if !s.requireTemplate() {
			return false
		}
		vars := s.cmdCtx.Analyzer.Extract(s.ctx, s.template)
		output.VariablesTable(r.Writer(), vars)

	case ".reduce":
		if !s.requireTemplate() {
			return false
		}
		vars := s.vars
		if len(vars) == 0 {
			vars = map[string]any{}
		}
		report := s.cmdCtx.Analyzer.Analyze(s.ctx, s.template, vars)
		if report.Error != "" {
			r.Error(report.Error)
			return false
		}
		r.Println(report.Reduced)
		r.Println("")
		output.DecisionsTable(r.Writer(), report.Decisions)

	case ".render":
		if !s.requireTemplate() {
			return false
		}
		if len(s.vars) == 0 {
			report := s.cmdCtx.Analyzer.Analyze(s.ctx, s.template, nil)
			if report.Error != "" {
				r.Error(report.Error)
				return false
			}
			r.Println(report.DemoSQL)
			return false
		}
		res := s.cmdCtx.Analyzer.RenderOnly(s.ctx, s.template, s.vars)
		if res.Error != "" {
			r.Error(res.Error)
			return false
		}
		r.Println(res.SQL)

	case ".context":
		if len(s.vars) == 0 {
			r.Println("(no session variables)")
			return false
		}
		names := make([]string, 0, len(s.vars))
		for name := range s.vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r.Printf("%s = %v\n", name, s.vars[name])
		}

	case ".set":
		if len(parts) < 3 {
			r.Error("usage: .set NAME VALUE")
			return false
		}
		name := parts[1]
		s.vars[name] = parseVarValue(strings.Join(parts[2:], " "))
		r.Printf("%s = %v\n", name, s.vars[name])

	case ".unset":
		if len(parts) < 2 {
			r.Error("usage: .unset NAME")
			return false
		}
		delete(s.vars, parts[1])

	case ".load":
		if len(parts) < 2 {
			r.Error("usage: .load FILE")
			return false
		}
		content, err := readTemplate(parts[1])
		if err != nil {
			r.Error(err.Error())
			return false
		}
		s.template = strings.TrimRight(content, "\n")
		s.showAnalysis()

	case ".clear":
		s.template = ""
		s.vars = make(map[string]any)
		s.buf.Reset()
		r.Println("session cleared")

	default:
		r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
	}

	return false
}

func (s *replSession) requireTemplate() bool {
	if s.template == "" {
		s.cmdCtx.Renderer.Error("no template loaded (paste one ending with \";;\" or use .load)")
		return false
	}
	return true
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .vars            Show the current template's variable descriptors
  .reduce          Reduce the current template against the session context
  .render          Render the current template (demo values when no context)
  .context         Show the session variables
  .set NAME VALUE  Set a session variable
  .unset NAME      Remove a session variable
  .load FILE       Load a template from a file
  .clear           Reset the template and session variables
  .quit / .exit    Exit the session

Tips:
  - End a pasted template with ";;" on its own line to analyze it
  - Values given to .set parse as numbers, booleans, and null
  - Use arrow keys to navigate input history
`
	_, _ = fmt.Fprintln(w, help)
}

// replHistoryFile places the readline history next to the history
// database. Empty disables persistent history.
func replHistoryFile(cmdCtx *CommandContext) string {
	hist := cmdCtx.Cfg.GetHistory()
	dir := filepath.Dir(hist.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "repl_history")
}

// replCompleter completes dot-commands.
func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".vars"),
		readline.PcItem(".reduce"),
		readline.PcItem(".render"),
		readline.PcItem(".context"),
		readline.PcItem(".set"),
		readline.PcItem(".unset"),
		readline.PcItem(".load"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
