package styles

import (
	"github.com/charmbracelet/lipgloss"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(White)

	Subtitle = lipgloss.NewStyle().
			Foreground(Gray)

	// Label is used for field names in the detail pane.
	Label = lipgloss.NewStyle().
		Foreground(Gray).
		Bold(true)

	Value = lipgloss.NewStyle().
		Foreground(White)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	AccentText = lipgloss.NewStyle().
			Foreground(Blue)

	ErrorText = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	SuccessText = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// UpdateBadge marks containers whose image has a newer version.
	UpdateBadge = lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true)
)

// StatusStyle returns the style for a container status. A container with an
// operation in flight is rendered as busy regardless of its status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case domain.StatusRunning:
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	case domain.StatusRestarting, "starting", "updating":
		return lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	case domain.StatusPaused, "stopping":
		return lipgloss.NewStyle().Foreground(Yellow)
	case domain.StatusStopped, "exited", "dead":
		return lipgloss.NewStyle().Foreground(Red)
	default:
		return lipgloss.NewStyle().Foreground(Gray)
	}
}

// StatusIndicator returns a coloured dot followed by the status text.
func StatusIndicator(status string) string {
	style := StatusStyle(status)
	return style.Render("●") + " " + style.Render(status)
}

var (
	Border = lipgloss.RoundedBorder()

	// Card is a rounded panel used by the operations overlay and prompts.
	Card = lipgloss.NewStyle().
		Border(Border).
		BorderForeground(DimGray).
		Padding(1, 2)

	CardActive = lipgloss.NewStyle().
			Border(Border).
			BorderForeground(Blue).
			Padding(1, 2)
)

var (
	KeyStyle = lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true)

	KeyDescStyle = lipgloss.NewStyle().
			Foreground(Muted)

	KeySepStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// FormatKeyBinding formats a single key binding for the footer.
func FormatKeyBinding(key, desc string) string {
	return KeyStyle.Render(key) + " " + KeyDescStyle.Render(desc)
}

var (
	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(Gray).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Foreground(White).
			Padding(0, 1)

	TableSelectedRow = lipgloss.NewStyle().
				Foreground(White).
				Background(DarkBlue).
				Bold(true).
				Padding(0, 1)

	// TableMarkedRow highlights rows picked for a batch action.
	TableMarkedRow = lipgloss.NewStyle().
			Foreground(Blue).
			Padding(0, 1)
)

var InputFocused = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Blue).
	Padding(0, 1)
