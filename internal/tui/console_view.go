package tui

import (
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/iconprefs"
	"nathanbeddoewebdev/dockctl/internal/tui/components"
	"nathanbeddoewebdev/dockctl/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	colMark   = 2
	colName   = 22
	colStatus = 18
	colUpdate = 8
)

func (m consoleModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "containers", m.backendURL)
	footer := components.Footer(m.width, m.bindings())
	statusBar := components.StatusBar(m.width, m.status, m.statusIsError)

	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if statusBar != "" {
		contentH -= lipgloss.Height(statusBar)
	}
	contentH = max(contentH, 3)

	parts := []string{header, m.renderContent(contentH)}
	if statusBar != "" {
		parts = append(parts, statusBar)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m consoleModel) bindings() []components.KeyBinding {
	switch m.mode {
	case modeRename, modeUpdate:
		return []components.KeyBinding{
			{Key: "enter", Desc: "confirm"},
			{Key: "esc", Desc: "cancel"},
		}
	}
	return []components.KeyBinding{
		{Key: "j/k", Desc: "move"},
		{Key: "space", Desc: "mark"},
		{Key: "s", Desc: "start"},
		{Key: "x", Desc: "stop"},
		{Key: "r", Desc: "restart"},
		{Key: "u", Desc: "update"},
		{Key: "n", Desc: "rename"},
		{Key: "R", Desc: "refresh"},
		{Key: "q", Desc: "quit"},
	}
}

func (m consoleModel) renderContent(height int) string {
	place := func(s string) string {
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, s)
	}

	switch {
	case m.loading && len(m.items) == 0:
		return place(m.spinner.View() + " Loading containers...")
	case m.err != nil && len(m.items) == 0:
		return place(styles.ErrorText.Render("Error: " + m.err.Error()))
	case len(m.items) == 0:
		return place(styles.MutedText.Render("No containers found."))
	}

	detail := m.renderDetail()
	if m.mode != modeList {
		detail = m.renderPrompt()
	}
	tableH := max(height-lipgloss.Height(detail), 2)

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTable(tableH), detail)
}

func (m consoleModel) renderTable(height int) string {
	imageW := max(m.width-colMark-colName-colStatus-colUpdate-8, 10)

	var b strings.Builder
	b.WriteString(styles.TableHeader.Render(
		pad("", colMark) + pad("NAME", colName) + pad("STATUS", colStatus) +
			pad("IMAGE", imageW) + pad("UPDATE", colUpdate)))
	b.WriteString("\n")

	visible := max(height-1, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.items))

	for i := start; i < end; i++ {
		c := m.items[i]

		mark := " "
		if m.marked[c.ID] {
			mark = "●"
		}
		update := ""
		if c.HaveUpdate {
			update = "yes"
		}

		row := pad(mark, colMark) + pad(c.Name, colName) + pad(m.statusCell(c), colStatus) +
			pad(c.UsingImage, imageW) + pad(update, colUpdate)

		style := styles.TableCell
		switch {
		case i == m.cursor:
			style = styles.TableSelectedRow
		case m.marked[c.ID]:
			style = styles.TableMarkedRow
		}
		b.WriteString(style.Render(row))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().Height(height).Render(b.String())
}

// statusCell shows the in-flight operation in place of the status.
func (m consoleModel) statusCell(c domain.Container) string {
	rec, ok := m.ops.Get(c.ID)
	if !ok {
		return c.Status
	}
	if rec.TaskHandle != "" {
		return fmt.Sprintf("%s %s %.0f%%", m.spinner.View(), rec.Action.Verb(), rec.Percentage)
	}
	return m.spinner.View() + " " + rec.Action.Verb()
}

func (m consoleModel) renderDetail() string {
	c, ok := m.selected()
	if !ok {
		return ""
	}

	field := func(label, value string) string {
		return styles.Label.Render(pad(label, 10)) + styles.Value.Render(value)
	}

	image := dash(c.UsingImage)
	if c.HaveUpdate {
		image += "  " + styles.UpdateBadge.Render("update available")
	}

	icon := "-"
	if url, source := iconprefs.Resolve(c, m.mappings); url != "" {
		icon = ansi.Truncate(url, max(m.width-30, 20), "…") + styles.MutedText.Render(" ["+source+"]")
	}

	lines := []string{
		styles.Title.Render(c.Name) + styles.MutedText.Render("  "+shortID(c.ID)),
		field("Status", styles.StatusIndicator(c.Status)),
		field("Image", image),
		field("Created", dash(c.CreateTime)),
		field("Uptime", dash(c.RunningTime)),
		field("Icon", icon),
	}

	if rec, ok := m.ops.Get(c.ID); ok {
		op := fmt.Sprintf("%s %s (%s)", m.spinner.View(), rec.Action.Verb(), rec.Elapsed(time.Now()).Round(time.Second))
		if rec.TaskHandle != "" {
			op += styles.MutedText.Render("  task " + string(rec.TaskHandle))
		}
		lines = append(lines, field("Operation", op))
		if rec.Message != "" {
			lines = append(lines, field("", rec.Message))
		}
		if rec.TaskHandle != "" {
			lines = append(lines, field("", m.bar.ViewAs(rec.Percentage/100)))
		}
	} else if msg, ok := m.ops.LastError(c.ID); ok {
		lines = append(lines, field("Error", styles.ErrorText.Render(msg)))
	}

	return styles.Card.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

func (m consoleModel) renderPrompt() string {
	title := "Rename " + m.target.Name
	hint := "Letters, digits, '.', '_' and '-'."
	if m.mode == modeUpdate {
		title = "Update " + m.target.Name
		hint = "Leave empty to pull the current image again."
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render(title),
		styles.MutedText.Render(hint),
		"",
		styles.InputFocused.Render(m.input.View()),
	)
	return styles.CardActive.Width(max(m.width-2, 20)).Render(body)
}

// pad truncates or right-pads s to exactly w cells.
func pad(s string, w int) string {
	s = ansi.Truncate(s, w-1, "…")
	if gap := w - ansi.StringWidth(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func shortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
