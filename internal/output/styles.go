package output

import "github.com/charmbracelet/lipgloss"

// Palette shared with the interactive form so both surfaces match.
const (
	ColorHeader  = lipgloss.Color("12")
	ColorAccent  = lipgloss.Color("14")
	ColorMuted   = lipgloss.Color("8")
	ColorSuccess = lipgloss.Color("10")
	ColorWarning = lipgloss.Color("11")
	ColorError   = lipgloss.Color("9")
)

// Styles holds the lipgloss styles used for styled text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles builds the style set on the given lipgloss renderer. The
// renderer's color profile decides whether escapes are emitted at all.
func NewStyles(lip *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: lip.NewStyle().Bold(true).Foreground(ColorHeader),
		Header2: lip.NewStyle().Bold(true).Foreground(ColorAccent),
		Bold:    lip.NewStyle().Bold(true),
		Muted:   lip.NewStyle().Foreground(ColorMuted),
		Success: lip.NewStyle().Foreground(ColorSuccess),
		Warning: lip.NewStyle().Foreground(ColorWarning),
		Error:   lip.NewStyle().Bold(true).Foreground(ColorError),
	}
}
