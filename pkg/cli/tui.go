package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the call screen color scheme.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	User    lipgloss.Color
	Agent   lipgloss.Color
	Alert   lipgloss.Color
}

// DefaultTheme is the default theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	User:    lipgloss.Color("#58a6ff"),
	Agent:   lipgloss.Color("#d2a8ff"),
	Alert:   lipgloss.Color("#ff7b72"),
}

// Styles holds the render styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Border lipgloss.Style
	Dim    lipgloss.Style
	User   lipgloss.Style
	Agent  lipgloss.Style
	Alert  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Dim:    lipgloss.NewStyle().Foreground(t.Dim),
		User:   lipgloss.NewStyle().Foreground(t.User),
		Agent:  lipgloss.NewStyle().Foreground(t.Agent),
		Alert:  lipgloss.NewStyle().Foreground(t.Alert),
	}
}

// CallFrame renders the call screen: a bordered box with a title bar,
// the tail of the transcript, and a footer line for status and help.
type CallFrame struct {
	Styles Styles
	Title  string
	Status string
	Lines  []string
	Footer string
}

// Render renders the frame into a width x height cell box.
func (f CallFrame) Render(width, height int) string {
	if width < 8 || height < 5 {
		return f.Title
	}

	bc := f.Styles.Border
	contentWidth := width - 4

	var out []string
	out = append(out, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	title := f.Styles.Title.Render(f.Title)
	status := f.Styles.Dim.Render("[" + f.Status + "]")
	pad := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	out = append(out, bc.Render("│")+" "+title+" "+status+strings.Repeat(" ", pad)+" "+bc.Render("│"))

	// Transcript window: the last rows that fit.
	rows := height - 4
	lines := f.Lines
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	for i := 0; i < rows; i++ {
		text := ""
		if i < len(lines) {
			text = lines[i]
		}
		if lipgloss.Width(text) > contentWidth {
			text = truncate(text, contentWidth-1) + "…"
		}
		pad := max(0, contentWidth-lipgloss.Width(text))
		out = append(out, bc.Render("│")+" "+text+strings.Repeat(" ", pad)+" "+bc.Render("│"))
	}

	out = append(out, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	out = append(out, f.Styles.Dim.Render(f.Footer))
	return strings.Join(out, "\n")
}

// truncate cuts s to at most width display cells, multi-byte safe.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	w := 0
	for i, r := range runes {
		rw := lipgloss.Width(string(r))
		if w+rw > width {
			return string(runes[:i])
		}
		w += rw
	}
	return s
}
