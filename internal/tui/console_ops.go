package tui

import (
	"errors"
	"fmt"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/entities"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/poller"
	"nathanbeddoewebdev/dockctl/internal/progress"
	"nathanbeddoewebdev/dockctl/internal/services/container"

	tea "github.com/charmbracelet/bubbletea"
)

// --- Messages ---

// All operation messages carry the container ID and the generation of the
// record they belong to. Anything that no longer matches the live record is
// dropped, so a late tick can never revive a finished operation.

type opSubmittedMsg struct {
	id      string
	action  domain.Action
	pending *container.Pending
	res     container.Result
}

type opPollTickMsg struct {
	id  string
	gen uint64
}

type opPollResultMsg struct {
	id   string
	gen  uint64
	resp progress.Response
	err  error
}

type opFinishedMsg struct {
	id  string
	res container.Result
}

type tasksAdoptedMsg struct {
	pending []*container.Pending
}

// opTracker is the poll state of one tracked task.
type opTracker struct {
	pending *container.Pending
	machine poller.Machine
}

func (t opTracker) gen() uint64 { return t.pending.Record.Generation }

// --- Commands ---

func (m consoleModel) submitAction(id string, action domain.Action) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		p, res := svc.SubmitAction(ctx, id, action)
		return opSubmittedMsg{id: id, action: action, pending: p, res: res}
	}
}

func (m consoleModel) submitUpdate(params container.UpdateParams) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		p, res := svc.SubmitUpdate(ctx, params)
		return opSubmittedMsg{id: params.ID, action: domain.ActionUpdate, pending: p, res: res}
	}
}

// adoptTasks claims update tasks a previous session left running.
func (m consoleModel) adoptTasks() tea.Cmd {
	if m.tasks == nil {
		return nil
	}
	svc, ctx, repo := m.svc, m.ctx, m.tasks
	return func() tea.Msg {
		records, err := repo.ListPending()
		if err != nil {
			logging.L().WithError(err).Debug("failed to list pending tasks")
			return nil
		}
		var adopted []*container.Pending
		cutoff := time.Now().Add(-resumeWindow)
		for i := range records {
			if records[i].UpdatedAt.Before(cutoff) {
				continue
			}
			p, res := svc.AdoptTask(ctx, &records[i])
			if res.Err != nil {
				logging.Entity(records[i].ContainerID, nil).WithError(res.Err).Debug("task not adopted")
				continue
			}
			adopted = append(adopted, p)
		}
		if len(adopted) == 0 {
			return nil
		}
		return tasksAdoptedMsg{pending: adopted}
	}
}

// poll issues one progress query for the tracked task.
func (m consoleModel) poll(id string) tea.Cmd {
	tr, ok := m.trackers[id]
	if !ok {
		return nil
	}
	svc, p, gen := m.svc, tr.pending, tr.gen()
	return func() tea.Msg {
		resp, err := svc.Poll(p)
		return opPollResultMsg{id: id, gen: gen, resp: resp, err: err}
	}
}

func schedulePoll(id string, gen uint64) tea.Cmd {
	return tea.Tick(poller.PollInterval, func(time.Time) tea.Msg {
		return opPollTickMsg{id: id, gen: gen}
	})
}

func settleTick() tea.Cmd {
	return tea.Tick(entities.SettleDelay, func(time.Time) tea.Msg { return settleTickMsg{} })
}

func (m consoleModel) complete(id string, p *container.Pending, outcome poller.Outcome) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		return opFinishedMsg{id: id, res: svc.Complete(ctx, p, outcome)}
	}
}

// --- Handlers ---

// live returns the tracker for (id, gen) when it still owns the record.
func (m consoleModel) live(id string, gen uint64) (opTracker, bool) {
	tr, ok := m.trackers[id]
	if !ok || tr.gen() != gen || !m.ops.Active(id, gen) {
		return opTracker{}, false
	}
	return tr, true
}

// track starts polling p. The first query goes out at once.
func (m consoleModel) track(p *container.Pending) tea.Cmd {
	m.trackers[p.Record.EntityID] = opTracker{
		pending: p,
		machine: poller.New(p.Handle, poller.MaxAttempts).Begin(),
	}
	return m.poll(p.Record.EntityID)
}

func (m consoleModel) handleSubmitted(msg opSubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.res.Err != nil {
		m.setError(resultText(msg.res))
		m.setItems(m.svc.Collection().Items())
		if errors.Is(msg.res.Err, container.ErrUnconfirmed) {
			return m, settleTick()
		}
		// The service reconciled after the rejection.
		return m, nil
	}

	if msg.pending == nil {
		m.setStatus(fmt.Sprintf("%s: %s accepted", msg.res.ContainerName, msg.action))
		if msg.action == domain.ActionUpdate {
			m.setItems(m.svc.Collection().Items())
			return m, nil
		}
		return m, settleTick()
	}

	return m, m.track(msg.pending)
}

func (m consoleModel) handleAdopted(msg tasksAdoptedMsg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, len(msg.pending))
	for _, p := range msg.pending {
		cmds = append(cmds, m.track(p))
	}
	m.setStatus(fmt.Sprintf("Resumed %d task(s) from a previous session", len(msg.pending)))
	return m, tea.Batch(cmds...)
}

func (m consoleModel) handlePollTick(msg opPollTickMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.live(msg.id, msg.gen); !ok {
		return m, nil
	}
	return m, m.poll(msg.id)
}

func (m consoleModel) handlePollResult(msg opPollResultMsg) (tea.Model, tea.Cmd) {
	tr, ok := m.live(msg.id, msg.gen)
	if !ok || m.ctx.Err() != nil {
		return m, nil
	}

	var d poller.Decision
	if msg.err != nil {
		tr.machine, d = tr.machine.ObserveError(msg.err)
	} else {
		tr.machine, d = tr.machine.Observe(msg.resp)
	}

	if d.Outcome != nil {
		delete(m.trackers, msg.id)
		return m, m.complete(msg.id, tr.pending, *d.Outcome)
	}

	if !m.svc.Observe(tr.pending, d.Snapshot) {
		delete(m.trackers, msg.id)
		return m, nil
	}
	m.trackers[msg.id] = tr
	return m, schedulePoll(msg.id, msg.gen)
}

func (m consoleModel) handleFinished(msg opFinishedMsg) (tea.Model, tea.Cmd) {
	res := msg.res
	if res.Err != nil {
		m.setError(resultText(res))
	} else {
		m.setStatus(fmt.Sprintf("%s: %s completed", res.ContainerName, res.Action))
	}
	if m.quitting {
		return m, nil
	}
	return m, m.fetchContainers()
}
