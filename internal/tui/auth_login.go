package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/tui/components"
	"nathanbeddoewebdev/dockctl/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoginFunc exchanges a secret key for a session token and stores it.
type LoginFunc func(ctx context.Context, key string) error

const loginTimeout = 30 * time.Second

// --- Messages ---

type loginDoneMsg struct {
	err error
}

// --- Auth login model ---

type authLoginModel struct {
	baseURL string
	login   LoginFunc

	keyInput textinput.Model
	spinner  spinner.Model

	width  int
	height int

	err        error
	submitting bool
	saved      bool
	quitting   bool
}

// RunAuthLogin prompts for the backend secret key and calls login with it
// until it succeeds or the user cancels. It reports whether a session was
// saved.
func RunAuthLogin(baseURL string, login LoginFunc) (bool, error) {
	p := tea.NewProgram(newAuthLoginModel(baseURL, login), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("failed to run auth login: %w", err)
	}
	return result.(authLoginModel).saved, nil
}

func newAuthLoginModel(baseURL string, login LoginFunc) authLoginModel {
	ti := textinput.New()
	ti.Placeholder = "backend secret key"
	ti.Focus()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentText

	return authLoginModel{
		baseURL:  baseURL,
		login:    login,
		keyInput: ti,
		spinner:  sp,
	}
}

func (m authLoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m authLoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err
			m.keyInput.SetValue("")
			return m, nil
		}
		m.saved = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m authLoginModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		if m.submitting {
			return m, nil
		}
		key := strings.TrimSpace(m.keyInput.Value())
		if key == "" {
			m.err = fmt.Errorf("secret key cannot be empty")
			return m, nil
		}
		m.err = nil
		m.submitting = true
		return m, tea.Batch(m.submit(key), m.spinner.Tick)
	}

	if m.submitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	m.err = nil
	return m, cmd
}

func (m authLoginModel) submit(key string) tea.Cmd {
	login := m.login
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		return loginDoneMsg{err: login(ctx, key)}
	}
}

func (m authLoginModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "auth login", m.baseURL)
	footer := components.Footer(m.width, []components.KeyBinding{
		{Key: "enter", Desc: "log in"},
		{Key: "esc", Desc: "cancel"},
	})

	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentH < 1 {
		contentH = 1
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderContent(contentH), footer)
}

func (m authLoginModel) renderContent(height int) string {
	title := styles.Title.Render("Secret Key")
	hint := styles.MutedText.Render("Enter the secret key configured on " + m.baseURL)

	var status string
	switch {
	case m.submitting:
		status = "\n" + m.spinner.View() + " Logging in..."
	case m.err != nil:
		status = "\n" + styles.ErrorText.Render(loginErrorText(m.err))
	}

	card := lipgloss.JoinVertical(lipgloss.Left,
		title,
		hint,
		"",
		m.keyInput.View(),
		status,
	)

	return lipgloss.Place(
		m.width, height,
		lipgloss.Center, lipgloss.Center,
		card,
	)
}

func loginErrorText(err error) string {
	if errors.Is(err, domain.ErrUnauthorized) {
		return "Secret key rejected. Check the key and try again."
	}
	return err.Error()
}
