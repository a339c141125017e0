package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/caelumsys/caelum/command"
)

var (
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8787"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	patternStyle = lipgloss.NewStyle().Bold(true)
	unsafeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF5F"))
)

// render formats a result for the terminal. Fuzzy matches get a hint
// line showing what was understood.
func render(res command.Result) string {
	if !res.OK() {
		return failStyle.Render(res.String())
	}
	if res.Exact || res.Correction == "" {
		return res.String()
	}
	hint := hintStyle.Render(fmt.Sprintf("(understood %q as %s)", res.Input, res.Correction))
	return hint + "\n" + res.String()
}

// renderTemplate formats one line of the command listing.
func renderTemplate(t *command.Template, width int) string {
	var b strings.Builder
	b.WriteString(patternStyle.Render(fmt.Sprintf("%-*s", width, t.Pattern())))
	if d := t.Description(); d != "" {
		b.WriteString("  ")
		b.WriteString(d)
	}
	if !t.Safe() {
		b.WriteString(" ")
		b.WriteString(unsafeStyle.Render("(unsafe)"))
	}
	return b.String()
}
