package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/dockctl/internal/actionstore"
	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/entities"
	"nathanbeddoewebdev/dockctl/internal/iconprefs"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/opstate"
	"nathanbeddoewebdev/dockctl/internal/services/container"
	"nathanbeddoewebdev/dockctl/internal/tui/styles"
	"nathanbeddoewebdev/dockctl/internal/util"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// resumeWindow bounds how old a persisted task may be for the console to
// pick it up again on start.
const resumeWindow = 10 * time.Minute

// ConsoleOptions configures RunConsole.
type ConsoleOptions struct {
	Service    *container.Service
	BackendURL string

	// Tasks holds update tasks left running by an earlier session. Optional.
	Tasks actionstore.Repository

	// Mappings are the user's custom icon mappings for the detail pane.
	Mappings []iconprefs.Mapping
}

// --- Messages ---

type containersLoadedMsg struct {
	items []domain.Container
	err   error
}

// reconcileTickMsg drives the periodic refresh.
type reconcileTickMsg struct{}

// settleTickMsg fires SettleDelay after an untracked action was accepted.
type settleTickMsg struct{}

type renameDoneMsg struct {
	res container.Result
}

// --- Modes ---

type consoleMode int

const (
	modeList consoleMode = iota
	modeRename
	modeUpdate
)

// --- Console model ---

type consoleModel struct {
	svc        *container.Service
	ops        *opstate.Store
	tasks      actionstore.Repository
	backendURL string
	mappings   []iconprefs.Mapping

	// ctx is cancelled on quit; every request the console issues derives
	// from it.
	ctx    context.Context
	cancel context.CancelFunc

	items  []domain.Container
	cursor int
	marked map[string]bool

	// trackers holds the poll state machine of every tracked task, keyed by
	// container ID.
	trackers map[string]opTracker

	mode   consoleMode
	input  textinput.Model
	target domain.Container

	spinner spinner.Model
	bar     progressbar.Model

	width  int
	height int

	loading       bool
	err           error
	status        string
	statusIsError bool
	quitting      bool
}

// RunConsole starts the full-window container console and blocks until the
// user quits. Operations still in flight are cancelled on exit; tracked
// update tasks stay persisted and are picked up by the next session.
func RunConsole(opts ConsoleOptions) error {
	m := newConsoleModel(opts)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run console: %w", err)
	}
	return nil
}

func newConsoleModel(opts ConsoleOptions) consoleModel {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	ti := textinput.New()
	ti.CharLimit = 255
	ti.Width = 40

	bar := progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithWidth(30))

	return consoleModel{
		svc:        opts.Service,
		ops:        opts.Service.Store(),
		tasks:      opts.Tasks,
		backendURL: opts.BackendURL,
		mappings:   opts.Mappings,
		ctx:        ctx,
		cancel:     cancel,
		marked:     map[string]bool{},
		trackers:   map[string]opTracker{},
		input:      ti,
		spinner:    s,
		bar:        bar,
		loading:    true,
	}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchContainers(),
		scheduleReconcile(),
		m.adoptTasks(),
	)
}

func (m consoleModel) fetchContainers() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		items, err := svc.Refresh(ctx)
		return containersLoadedMsg{items: items, err: err}
	}
}

func scheduleReconcile() tea.Cmd {
	return tea.Tick(entities.RefreshInterval, func(time.Time) tea.Msg {
		return reconcileTickMsg{}
	})
}

// --- Update ---

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeList {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)

	case containersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if m.ctx.Err() != nil {
				return m, nil
			}
			logging.L().WithError(msg.err).Debug("console refresh failed")
			if len(m.items) == 0 {
				m.err = msg.err
			} else {
				m.setError("Refresh failed: " + msg.err.Error())
			}
			return m, nil
		}
		m.err = nil
		m.setItems(msg.items)
		if m.status == "" {
			m.setStatus(fmt.Sprintf("%d container(s)", len(m.items)))
		}
		return m, nil

	case reconcileTickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(m.fetchContainers(), scheduleReconcile())

	case settleTickMsg:
		if m.quitting {
			return m, nil
		}
		return m, m.fetchContainers()

	case opSubmittedMsg:
		return m.handleSubmitted(msg)

	case opPollTickMsg:
		return m.handlePollTick(msg)

	case opPollResultMsg:
		return m.handlePollResult(msg)

	case opFinishedMsg:
		return m.handleFinished(msg)

	case tasksAdoptedMsg:
		return m.handleAdopted(msg)

	case renameDoneMsg:
		if msg.res.Err != nil {
			m.setError(resultText(msg.res))
		} else {
			m.setStatus(fmt.Sprintf("Renamed to %s", msg.res.ContainerName))
		}
		m.setItems(m.svc.Collection().Items())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m consoleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ", "space":
		if c, ok := m.selected(); ok {
			if m.marked[c.ID] {
				delete(m.marked, c.ID)
			} else {
				m.marked[c.ID] = true
			}
		}
	case "a":
		if len(m.marked) > 0 {
			m.marked = map[string]bool{}
		} else {
			for _, c := range m.items {
				m.marked[c.ID] = true
			}
		}
	case "s":
		return m.runAction(domain.ActionStart)
	case "x":
		return m.runAction(domain.ActionStop)
	case "r":
		return m.runAction(domain.ActionRestart)
	case "u":
		if len(m.marked) > 0 {
			return m.runAction(domain.ActionUpdate)
		}
		return m.openPrompt(modeUpdate)
	case "n":
		return m.openPrompt(modeRename)
	case "R":
		m.loading = true
		m.setStatus("Refreshing...")
		return m, m.fetchContainers()
	case "c":
		if c, ok := m.selected(); ok {
			m.ops.ClearError(c.ID)
		}
	}
	return m, nil
}

func (m consoleModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.ops.CancelAll()
	m.cancel()
	return m, tea.Quit
}

// runAction issues action on every marked container, or on the selected
// one when nothing is marked.
func (m consoleModel) runAction(action domain.Action) (tea.Model, tea.Cmd) {
	targets := m.targets()
	if len(targets) == 0 {
		return m, nil
	}

	var cmds []tea.Cmd
	var busy []string
	for _, c := range targets {
		if m.ops.Busy(c.ID) {
			busy = append(busy, c.Name)
			continue
		}
		if action == domain.ActionUpdate {
			cmds = append(cmds, m.submitUpdate(container.UpdateParams{ID: c.ID}))
			continue
		}
		m.items, _ = entities.ApplyOptimistic(m.items, c.ID, action)
		cmds = append(cmds, m.submitAction(c.ID, action))
	}
	m.marked = map[string]bool{}

	switch {
	case len(cmds) == 0:
		m.setError(fmt.Sprintf("%s: %s", strings.Join(busy, ", "), opstate.ErrBusy))
		return m, nil
	case len(cmds) == 1:
		m.setStatus(fmt.Sprintf("%s %s...", capitalize(action.Verb()), targets[0].Name))
	default:
		m.setStatus(fmt.Sprintf("%s %d containers...", capitalize(action.Verb()), len(cmds)))
	}
	return m, tea.Batch(cmds...)
}

func (m consoleModel) openPrompt(mode consoleMode) (tea.Model, tea.Cmd) {
	c, ok := m.selected()
	if !ok {
		return m, nil
	}
	if m.ops.Busy(c.ID) {
		m.setError(fmt.Sprintf("%s: %s", c.Name, opstate.ErrBusy))
		return m, nil
	}

	m.mode = mode
	m.target = c
	switch mode {
	case modeRename:
		m.input.Placeholder = "new container name"
		m.input.SetValue(c.Name)
	case modeUpdate:
		m.input.Placeholder = "image reference, e.g. nginx:1.27"
		m.input.SetValue(c.UsingImage)
	}
	m.input.CursorEnd()
	m.input.Focus()
	return m, textinput.Blink
}

func (m consoleModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		m.closePrompt()
		return m, nil
	case "enter":
		return m.submitPrompt()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *consoleModel) closePrompt() {
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")
}

func (m consoleModel) submitPrompt() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	target := m.target

	switch m.mode {
	case modeRename:
		if err := util.ValidateContainerName(value); err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.closePrompt()
		if value == target.Name {
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Renaming %s...", target.Name))
		return m, m.rename(target.ID, value)

	case modeUpdate:
		if value == "" {
			value = target.UsingImage
		}
		ref, err := container.NormalizeImageRef(value)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.closePrompt()
		m.setStatus(fmt.Sprintf("Updating %s to %s...", target.Name, ref))
		return m, m.submitUpdate(container.UpdateParams{ID: target.ID, ImageRef: ref})
	}

	m.closePrompt()
	return m, nil
}

func (m consoleModel) rename(id, name string) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		return renameDoneMsg{res: svc.Rename(ctx, id, name)}
	}
}

// --- Helpers ---

func (m consoleModel) selected() (domain.Container, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return domain.Container{}, false
	}
	return m.items[m.cursor], true
}

// targets returns the marked containers in list order, or the selected one.
func (m consoleModel) targets() []domain.Container {
	if len(m.marked) == 0 {
		if c, ok := m.selected(); ok {
			return []domain.Container{c}
		}
		return nil
	}
	var out []domain.Container
	for _, c := range m.items {
		if m.marked[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func (m *consoleModel) setItems(items []domain.Container) {
	m.items = items
	if m.cursor >= len(m.items) {
		m.cursor = max(len(m.items)-1, 0)
	}
	present := make(map[string]bool, len(items))
	for _, c := range items {
		present[c.ID] = true
	}
	for id := range m.marked {
		if !present[id] {
			delete(m.marked, id)
		}
	}
}

func (m *consoleModel) setStatus(s string) {
	m.status = s
	m.statusIsError = false
}

// setError shows the first line of s; the detail pane carries the rest.
func (m *consoleModel) setError(s string) {
	if line, _, ok := strings.Cut(s, "\n"); ok {
		s = line
	}
	m.status = s
	m.statusIsError = true
}

// resultText renders a failed Result for the status bar.
func resultText(res container.Result) string {
	var apiErr *domain.APIError
	if errors.As(res.Err, &apiErr) {
		return fmt.Sprintf("Failed to %s %s: %s", res.Action, res.ContainerName, domain.RejectionText(apiErr))
	}
	if errors.Is(res.Err, container.ErrUnconfirmed) {
		return fmt.Sprintf("%s: %s", res.ContainerName, res.Err)
	}
	return res.Err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
