// Package output renders command results as styled text, tables,
// markdown, or JSON. Colors follow the terminal: styling is disabled
// when stdout is not a TTY or NO_COLOR is set.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

const (
	ModeText     Mode = "text"
	ModeJSON     Mode = "json"
	ModeMarkdown Mode = "markdown"
	ModeTable    Mode = "table"
)

// Renderer writes command output in the configured mode.
type Renderer struct {
	stdout  io.Writer
	stderr  io.Writer
	mode    Mode
	lip     *lipgloss.Renderer
	styles  *Styles
	isTTY   bool
	profile termenv.Profile
}

// NewRenderer creates a renderer for the given writers and mode.
func NewRenderer(stdout, stderr io.Writer, mode Mode) *Renderer {
	isTTY := writerIsTerminal(stdout)
	profile := termenv.EnvColorProfile()
	if !isTTY {
		profile = termenv.Ascii
	}

	lip := lipgloss.NewRenderer(stdout)
	lip.SetColorProfile(profile)

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		mode:    mode,
		lip:     lip,
		styles:  NewStyles(lip),
		isTTY:   isTTY,
		profile: profile,
	}
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves the configured mode, defaulting to text.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode == "" {
		return ModeText
	}
	return r.mode
}

// WithColor forces colors on or off, overriding terminal detection.
func (r *Renderer) WithColor(enabled bool) *Renderer {
	if enabled {
		r.profile = termenv.ANSI256
	} else {
		r.profile = termenv.Ascii
	}
	r.lip.SetColorProfile(r.profile)
	return r
}

// IsTerminal reports whether stdout is a terminal.
func (r *Renderer) IsTerminal() bool {
	return r.isTTY
}

// Writer returns the stdout writer for direct encoding.
func (r *Renderer) Writer() io.Writer {
	return r.stdout
}

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.stderr
}

// Styles returns the style set matching the terminal capabilities.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Println writes a line to stdout.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.stdout, args...)
}

// Printf writes formatted output to stdout.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.stdout, format, args...)
}

// Header writes a styled section header.
func (r *Renderer) Header(level int, text string) {
	if level <= 1 {
		r.Println(r.styles.Header1.Render(text))
		return
	}
	r.Println(r.styles.Header2.Render(text))
}

// Success writes a success line to stdout.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Warning writes a warning line to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.stderr, r.styles.Warning.Render("! "+msg))
}

// Error writes an error line to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.stderr, r.styles.Error.Render("✗ "+msg))
}

// JSON writes v to stdout as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
