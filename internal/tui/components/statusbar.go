package components

import (
	"nathanbeddoewebdev/dockctl/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// StatusBar renders the message line between content and footer. Multi-line
// messages (such as a name-conflict hint) are kept intact.
func StatusBar(width int, message string, isError bool) string {
	if message == "" {
		return ""
	}

	style := styles.SuccessText
	if isError {
		style = styles.ErrorText
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		Render(style.Render(message))
}
