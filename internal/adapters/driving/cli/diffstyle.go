package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	diffAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	diffRemovedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	diffHunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	diffHeaderStyle  = lipgloss.NewStyle().Bold(true)
)

// renderDiff colours a unified diff line by line. With colour off the
// text is returned unchanged.
func renderDiff(diff string, colour bool) string {
	if !colour {
		return diff
	}

	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case body == "":
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			body = diffHeaderStyle.Render(body)
		case strings.HasPrefix(body, "@@"):
			body = diffHunkStyle.Render(body)
		case strings.HasPrefix(body, "+"):
			body = diffAddedStyle.Render(body)
		case strings.HasPrefix(body, "-"):
			body = diffRemovedStyle.Render(body)
		}
		b.WriteString(body)
		b.WriteString(nl)
	}
	return b.String()
}
