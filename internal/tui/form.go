// Package tui provides an interactive terminal form for filling
// template variables before a render.
package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sqlsift/sqlsift/internal/extract"
	"github.com/sqlsift/sqlsift/internal/output"
)

// ErrCancelled is returned when the user aborts the form.
var ErrCancelled = errors.New("input cancelled")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(output.ColorHeader)
	focusedStyle  = lipgloss.NewStyle().Bold(true).Foreground(output.ColorAccent)
	requiredStyle = lipgloss.NewStyle().Foreground(output.ColorWarning)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(output.ColorSuccess)
	errorStyle    = lipgloss.NewStyle().Foreground(output.ColorError)
	helpStyle     = lipgloss.NewStyle().Foreground(output.ColorMuted)
)

type field struct {
	v       extract.Variable
	input   textinput.Model
	isBool  bool
	boolVal bool
	err     string
}

// Form is a bubbletea model collecting one value per variable.
type Form struct {
	fields    []field
	focused   int
	done      bool
	cancelled bool
	values    map[string]any
}

// NewForm builds a form with one line per variable descriptor.
func NewForm(vars []extract.Variable) Form {
	fields := make([]field, 0, len(vars))
	for _, v := range vars {
		if v.Type == extract.TypeBoolean {
			boolVal := false
			if b, ok := v.Default.(bool); ok {
				boolVal = b
			}
			fields = append(fields, field{v: v, isBool: true, boolVal: boolVal})
			continue
		}

		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 48
		if v.Default != nil {
			ti.Placeholder = fmt.Sprintf("%v", v.Default)
		}
		fields = append(fields, field{v: v, input: ti})
	}

	f := Form{fields: fields}
	if len(f.fields) > 0 && !f.fields[0].isBool {
		f.fields[0].input.Focus()
	}
	return f
}

// Run shows the form and returns the collected values parsed per type.
func Run(vars []extract.Variable) (map[string]any, error) {
	if len(vars) == 0 {
		return map[string]any{}, nil
	}

	final, err := tea.NewProgram(NewForm(vars)).Run()
	if err != nil {
		return nil, fmt.Errorf("form failed: %w", err)
	}

	form, ok := final.(Form)
	if !ok || form.cancelled {
		return nil, ErrCancelled
	}
	return form.values, nil
}

// Init implements tea.Model.
func (f Form) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (f Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateFocusedInput(msg)
	}

	if len(f.fields) == 0 {
		f.done = true
		f.values = map[string]any{}
		return f, tea.Quit
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		f.cancelled = true
		return f, tea.Quit

	case tea.KeyEnter:
		return f.advance()

	case tea.KeyTab, tea.KeyDown:
		return f.focus(f.focused + 1), nil

	case tea.KeyShiftTab, tea.KeyUp:
		return f.focus(f.focused - 1), nil
	}

	if f.fields[f.focused].isBool {
		return f.updateToggle(keyMsg), nil
	}
	return f.updateFocusedInput(msg)
}

// advance validates the focused field and moves on, finishing the form
// after the last field.
func (f Form) advance() (tea.Model, tea.Cmd) {
	if _, err := parseField(f.fields[f.focused]); err != nil {
		f.fields[f.focused].err = err.Error()
		return f, nil
	}
	f.fields[f.focused].err = ""

	if f.focused < len(f.fields)-1 {
		return f.focus(f.focused + 1), nil
	}
	return f.finish()
}

// finish parses every field. The first invalid one regains focus.
func (f Form) finish() (tea.Model, tea.Cmd) {
	values := make(map[string]any, len(f.fields))
	for i, fld := range f.fields {
		val, err := parseField(fld)
		if err != nil {
			f.fields[i].err = err.Error()
			return f.focus(i), nil
		}
		values[fld.v.Name] = val
	}

	f.values = values
	f.done = true
	return f, tea.Quit
}

func (f Form) focus(i int) Form {
	if i < 0 {
		i = len(f.fields) - 1
	}
	if i >= len(f.fields) {
		i = 0
	}

	if !f.fields[f.focused].isBool {
		f.fields[f.focused].input.Blur()
	}
	f.focused = i
	if !f.fields[i].isBool {
		f.fields[i].input.Focus()
	}
	return f
}

func (f Form) updateToggle(msg tea.KeyMsg) Form {
	fld := &f.fields[f.focused]
	switch msg.String() {
	case "y", "Y":
		fld.boolVal = true
	case "n", "N":
		fld.boolVal = false
	case " ", "left", "right", "h", "l":
		fld.boolVal = !fld.boolVal
	}
	return f
}

func (f Form) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(f.fields) == 0 || f.fields[f.focused].isBool {
		return f, nil
	}

	var cmd tea.Cmd
	f.fields[f.focused].input, cmd = f.fields[f.focused].input.Update(msg)
	return f, cmd
}

// View implements tea.Model.
func (f Form) View() string {
	if f.done || f.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Fill template variables"))
	b.WriteString("\n\n")

	for i, fld := range f.fields {
		label := fmt.Sprintf("%s (%s)", fld.v.Name, fld.v.Type)
		if i == f.focused {
			label = focusedStyle.Render(label)
		}
		if fld.v.Required {
			label += requiredStyle.Render(" *")
		}
		b.WriteString(label)
		b.WriteString("\n")

		if fld.isBool {
			b.WriteString("  " + renderToggle(fld.boolVal))
		} else {
			b.WriteString(fld.input.View())
		}
		b.WriteString("\n")

		if fld.err != "" {
			b.WriteString(errorStyle.Render("  " + fld.err))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter: next  •  tab/↑↓: move  •  y/n: toggle  •  esc: cancel"))
	return b.String()
}

func renderToggle(on bool) string {
	yes, no := "yes", "no"
	if on {
		yes = selectedStyle.Render("[yes]")
		no = " no "
	} else {
		yes = " yes "
		no = selectedStyle.Render("[no]")
	}
	return yes + " / " + no
}

// parseField converts the raw input to the descriptor's type. An empty
// input falls back to the demo default.
func parseField(fld field) (any, error) {
	if fld.isBool {
		return fld.boolVal, nil
	}

	raw := strings.TrimSpace(fld.input.Value())
	if raw == "" {
		if fld.v.Default != nil {
			return fld.v.Default, nil
		}
		if fld.v.Required {
			return nil, errors.New("value required")
		}
		return "", nil
	}

	switch fld.v.Type {
	case extract.TypeNumber:
		if n, err := strconv.Atoi(raw); err == nil {
			return n, nil
		}
		if fl, err := strconv.ParseFloat(raw, 64); err == nil {
			return fl, nil
		}
		return nil, errors.New("not a number")

	case extract.TypeJSON:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, errors.New("invalid JSON")
		}
		return v, nil

	default:
		return raw, nil
	}
}
