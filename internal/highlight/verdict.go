package highlight

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Verdict formats the outcome of a check. With color unset the output is
// plain text.
func Verdict(cmd, reason string, blocked, color bool, theme string) string {
	label := "approve"
	if blocked {
		label = "block"
	}
	if !color {
		var b strings.Builder
		b.WriteString(cmd)
		b.WriteString("\n")
		b.WriteString(label)
		if reason != "" {
			b.WriteString(": ")
			b.WriteString(reason)
		}
		return b.String()
	}

	p := ThemePalette(theme)
	mark := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Accent))
	if blocked {
		mark = mark.Foreground(lipgloss.Color(p.Error))
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Dim))

	line := mark.Render(label)
	if reason != "" {
		line += dim.Render(": ") + reason
	}
	return Command(cmd, theme) + "\n" + line
}
