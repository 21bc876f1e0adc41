// Package components holds render-only helpers shared by the console
// models.
package components

import (
	"strings"

	"nathanbeddoewebdev/dockctl/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Header renders the top bar: the app name and breadcrumb on the left and
// the backend address on the right.
//
//	dockctl > containers                 http://nas.local:12712
func Header(width int, breadcrumb string, backendURL string) string {
	if width < 10 {
		return ""
	}

	left := styles.Title.Foreground(styles.Blue).Render("dockctl")
	if breadcrumb != "" {
		left += styles.MutedText.Render(" > ") + styles.Title.Render(breadcrumb)
	}

	right := ""
	if backendURL != "" {
		right = styles.Subtitle.Render(backendURL)
	}

	gap := max(width-4-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(left + strings.Repeat(" ", gap) + right)
}
