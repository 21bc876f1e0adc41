package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/dockctl/internal/actionstore"
	"nathanbeddoewebdev/dockctl/internal/backend"
	"nathanbeddoewebdev/dockctl/internal/backend/backendtest"
	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/entities"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/poller"
	"nathanbeddoewebdev/dockctl/internal/retry"
	"nathanbeddoewebdev/dockctl/internal/services/container"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

func newTestConsole(t *testing.T, opts ...container.Option) (*backendtest.Server, consoleModel) {
	t.Helper()
	return newTestConsoleWithClient(t, nil, opts...)
}

func newTestConsoleWithClient(t *testing.T, clientOpts []backend.Option, opts ...container.Option) (*backendtest.Server, consoleModel) {
	t.Helper()
	logging.Discard()

	oldPoll, oldSettle := poller.PollInterval, entities.SettleDelay
	poller.PollInterval = time.Millisecond
	entities.SettleDelay = time.Millisecond
	t.Cleanup(func() {
		poller.PollInterval = oldPoll
		entities.SettleDelay = oldSettle
	})

	srv := backendtest.New(t)
	srv.SetContainers(
		domain.Container{ID: "c1", Name: "web", Status: domain.StatusStopped, UsingImage: "nginx:1.27"},
		domain.Container{ID: "c2", Name: "api", Status: domain.StatusRunning, UsingImage: "ghcr.io/acme/api:1.4", HaveUpdate: true},
		domain.Container{ID: "c3", Name: "db", Status: domain.StatusRunning, UsingImage: "postgres:16"},
	)

	clientOpts = append([]backend.Option{backend.WithRetry(retry.Config{MaxAttempts: 1})}, clientOpts...)
	client := backend.New(srv.URL, clientOpts...)
	m := newConsoleModel(ConsoleOptions{
		Service:    container.NewService(client, opts...),
		BackendURL: srv.URL,
	})
	t.Cleanup(m.cancel)

	m = step(t, m, m.fetchContainers()())
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return srv, m
}

func step(t *testing.T, m consoleModel, msg tea.Msg) consoleModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(consoleModel)
}

func stepCmd(t *testing.T, m consoleModel, msg tea.Msg) (consoleModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(consoleModel), cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func running(data map[string]any) backendtest.Reply {
	return backendtest.Reply{Code: 200, Msg: "processing", Data: data}
}

func statuses(m consoleModel) map[string]string {
	out := map[string]string{}
	for _, c := range m.items {
		out[c.Name] = c.Status
	}
	return out
}

func TestConsole_LoadAndNavigate(t *testing.T) {
	_, m := newTestConsole(t)

	if len(m.items) != 3 || m.loading {
		t.Fatalf("items = %d, loading = %v", len(m.items), m.loading)
	}
	m = step(t, m, key("j"))
	m = step(t, m, key("j"))
	m = step(t, m, key("j"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	m = step(t, m, key("k"))
	if c, _ := m.selected(); c.Name != "api" {
		t.Errorf("selected = %q", c.Name)
	}
}

func TestConsole_StartIsOptimistic(t *testing.T) {
	srv, m := newTestConsole(t)

	m, cmd := stepCmd(t, m, key("s"))
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if got := statuses(m)["web"]; got != domain.StatusRunning {
		t.Errorf("optimistic status = %q, want running", got)
	}
	if !strings.Contains(m.status, "Starting web") {
		t.Errorf("status = %q", m.status)
	}

	m, cmd = stepCmd(t, m, m.submitAction("c1", domain.ActionStart)())
	if cmd == nil {
		t.Error("expected settle refresh to be scheduled")
	}
	if len(m.trackers) != 0 {
		t.Error("untracked action should not be polled")
	}
	if n := srv.CallCount("POST /api/container/c1/start"); n != 1 {
		t.Errorf("start calls = %d", n)
	}

	m = step(t, m, settleTickMsg{})
	m = step(t, m, m.fetchContainers()())
	if got := statuses(m)["web"]; got != domain.StatusRunning {
		t.Errorf("reconciled status = %q", got)
	}
}

func TestConsole_RejectionShowsErrorAndReverts(t *testing.T) {
	srv, m := newTestConsole(t)
	srv.SetOverride("POST /api/container/c1/start", backendtest.Reject(500, "启动失败"))

	m = step(t, m, key("s"))
	m = step(t, m, m.submitAction("c1", domain.ActionStart)())

	if !m.statusIsError || !strings.Contains(m.status, "启动失败") {
		t.Errorf("status = %q (error %v)", m.status, m.statusIsError)
	}
	if got := statuses(m)["web"]; got != domain.StatusStopped {
		t.Errorf("status after rejection = %q, want stopped", got)
	}
}

func TestConsole_UnconfirmedStartKeepsOptimisticStatus(t *testing.T) {
	srv, m := newTestConsoleWithClient(t, []backend.Option{backend.WithTimeout(20 * time.Millisecond)})
	srv.SetOverride("POST /api/container/c1/start", backendtest.Reply{Code: 200, Delay: 200 * time.Millisecond})

	m = step(t, m, key("s"))
	m, cmd := stepCmd(t, m, m.submitAction("c1", domain.ActionStart)())

	if !m.statusIsError || !strings.Contains(m.status, "web: start submitted") || !strings.Contains(m.status, "check back later") {
		t.Errorf("status = %q (error %v)", m.status, m.statusIsError)
	}
	if got := statuses(m)["web"]; got != domain.StatusRunning {
		t.Errorf("status = %q, want optimistic running until the settle refresh", got)
	}
	if cmd == nil {
		t.Error("expected settle refresh to be scheduled")
	}
	if n := srv.CallCount("GET /api/containers"); n != 1 {
		t.Errorf("GET /api/containers calls = %d, want no immediate reconcile", n)
	}
}

func TestConsole_UpdateIsPolledToCompletion(t *testing.T) {
	tasks, err := actionstore.OpenAt(filepath.Join(t.TempDir(), "dockctl.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tasks.Close() })

	srv, m := newTestConsole(t, container.WithTaskRepository(tasks))
	srv.TaskIDs["c2"] = "t-1"
	srv.SetProgress("t-1",
		running(map[string]any{"progress": "拉取镜像 40%"}),
		backendtest.Reply{Code: 200, Msg: "更新完成"},
	)

	m, cmd := stepCmd(t, m, m.submitUpdate(container.UpdateParams{ID: "c2"})())
	tr, ok := m.trackers["c2"]
	if !ok || cmd == nil {
		t.Fatal("expected tracked update with an immediate poll")
	}
	gen := tr.gen()

	m, cmd = stepCmd(t, m, m.poll("c2")())
	if cmd == nil {
		t.Fatal("expected next poll to be scheduled")
	}
	rec, ok := m.ops.Get("c2")
	if !ok || rec.Percentage != 40 || rec.Message != "拉取镜像 40%" {
		t.Errorf("record = %+v", rec)
	}

	// A tick from another generation is dropped.
	if _, cmd := stepCmd(t, m, opPollTickMsg{id: "c2", gen: gen + 7}); cmd != nil {
		t.Error("stale tick should be ignored")
	}
	if _, cmd := stepCmd(t, m, opPollTickMsg{id: "c2", gen: gen}); cmd == nil {
		t.Error("live tick should poll")
	}

	m, cmd = stepCmd(t, m, m.poll("c2")())
	if cmd == nil {
		t.Fatal("expected completion command")
	}
	if _, ok := m.trackers["c2"]; ok {
		t.Error("tracker should be removed on a terminal reply")
	}

	m = step(t, m, cmd())
	if m.statusIsError || !strings.Contains(m.status, "api: update completed") {
		t.Errorf("status = %q", m.status)
	}
	if m.ops.Busy("c2") {
		t.Error("record should be released")
	}

	// A result arriving after release cannot revive the record.
	if _, cmd := stepCmd(t, m, opPollResultMsg{id: "c2", gen: gen}); cmd != nil {
		t.Error("late result should be dropped")
	}
	if n := srv.CallCount("GET /api/progress/t-1"); n != 2 {
		t.Errorf("progress queries = %d, want 2", n)
	}

	recent, _ := tasks.ListRecent(1)
	if len(recent) != 1 || recent[0].Status != actionstore.StatusCompleted {
		t.Errorf("persisted task = %+v", recent)
	}
}

func TestConsole_FailedTaskReportsError(t *testing.T) {
	srv, m := newTestConsole(t)
	srv.TaskIDs["c2"] = "t-2"
	srv.SetProgress("t-2", backendtest.Reject(500, "pull access denied"))

	m = step(t, m, m.submitUpdate(container.UpdateParams{ID: "c2"})())
	m, cmd := stepCmd(t, m, m.poll("c2")())
	m = step(t, m, cmd())

	if !m.statusIsError || !strings.Contains(m.status, "pull access denied") {
		t.Errorf("status = %q", m.status)
	}
	if msg, ok := m.ops.LastError("c2"); !ok || msg != "pull access denied" {
		t.Errorf("LastError() = %q, %v", msg, ok)
	}
}

func TestConsole_BusyContainerRejected(t *testing.T) {
	_, m := newTestConsole(t)
	if _, err := m.ops.TryAcquire("c1", "web", domain.ActionUpdate, nil); err != nil {
		t.Fatal(err)
	}

	m, cmd := stepCmd(t, m, key("x"))
	if cmd != nil {
		t.Error("expected no request for a busy container")
	}
	if !m.statusIsError || !strings.Contains(m.status, "already in progress") {
		t.Errorf("status = %q", m.status)
	}
}

func TestConsole_BatchMarks(t *testing.T) {
	_, m := newTestConsole(t)

	m = step(t, m, key(" "))
	m = step(t, m, key("j"))
	m = step(t, m, key("j"))
	m = step(t, m, key(" "))

	var names []string
	for _, c := range m.targets() {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"web", "db"}, names); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}

	m, cmd := stepCmd(t, m, key("x"))
	if cmd == nil {
		t.Fatal("expected batch command")
	}
	if len(m.marked) != 0 {
		t.Error("marks should clear after dispatch")
	}
	want := map[string]string{"web": domain.StatusStopped, "api": domain.StatusRunning, "db": domain.StatusStopped}
	if diff := cmp.Diff(want, statuses(m)); diff != "" {
		t.Errorf("optimistic statuses mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(m.status, "Stopping 2 containers") {
		t.Errorf("status = %q", m.status)
	}
}

func TestConsole_RenamePrompt(t *testing.T) {
	srv, m := newTestConsole(t)

	m = step(t, m, key("n"))
	if m.mode != modeRename || m.input.Value() != "web" {
		t.Fatalf("mode = %v, input = %q", m.mode, m.input.Value())
	}

	m.input.SetValue("a")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeRename || !m.statusIsError {
		t.Fatalf("expected validation error, status = %q", m.status)
	}

	m.input.SetValue("frontend")
	m, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeList || cmd == nil {
		t.Fatal("expected rename command")
	}
	m = step(t, m, cmd())

	if m.status != "Renamed to frontend" {
		t.Errorf("status = %q", m.status)
	}
	if got := srv.Form("POST /api/container/c1/rename")["newName"]; got != "frontend" {
		t.Errorf("newName = %q", got)
	}
	if _, ok := statuses(m)["frontend"]; !ok {
		t.Error("list should show the new name")
	}
}

func TestConsole_UpdatePromptValidatesImage(t *testing.T) {
	_, m := newTestConsole(t)

	m = step(t, m, key("u"))
	if m.mode != modeUpdate || m.input.Value() != "nginx:1.27" {
		t.Fatalf("mode = %v, input = %q", m.mode, m.input.Value())
	}
	m.input.SetValue("Not A Ref")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeUpdate || !strings.Contains(m.status, "invalid image reference") {
		t.Errorf("status = %q", m.status)
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeList {
		t.Error("esc should close the prompt")
	}
}

func TestConsole_AdoptsPendingTasks(t *testing.T) {
	tasks, err := actionstore.OpenAt(filepath.Join(t.TempDir(), "dockctl.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tasks.Close() })
	if err := tasks.Save(&actionstore.TaskRecord{TaskID: "t-5", ContainerID: "c3", ContainerName: "db", Action: "update"}); err != nil {
		t.Fatal(err)
	}

	_, m := newTestConsole(t, container.WithTaskRepository(tasks))
	m.tasks = tasks

	msg := m.adoptTasks()()
	adopted, ok := msg.(tasksAdoptedMsg)
	if !ok || len(adopted.pending) != 1 {
		t.Fatalf("adoptTasks() = %#v", msg)
	}
	m, cmd := stepCmd(t, m, adopted)
	if cmd == nil || !m.ops.Busy("c3") {
		t.Error("adopted task should be polled")
	}
}

func TestConsole_QuitCancelsOperations(t *testing.T) {
	_, m := newTestConsole(t)
	rec, err := m.ops.TryAcquire("c1", "web", domain.ActionStart, func() {})
	if err != nil {
		t.Fatal(err)
	}

	m, cmd := stepCmd(t, m, key("q"))
	if !m.quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if m.ctx.Err() == nil {
		t.Error("console context should be cancelled")
	}
	if m.ops.Active("c1", rec.Generation) {
		t.Error("in-flight records should be cancelled")
	}
	if _, cmd := stepCmd(t, m, reconcileTickMsg{}); cmd != nil {
		t.Error("no refresh after quit")
	}
}

func TestConsole_View(t *testing.T) {
	_, m := newTestConsole(t)
	m = step(t, m, key("j"))

	view := m.View()
	for _, want := range []string{"dockctl", "containers", "web", "api", "update available", "ghcr.io/acme/api:1.4"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestConsole_RefreshErrorKeepsList(t *testing.T) {
	_, m := newTestConsole(t)

	m = step(t, m, containersLoadedMsg{err: context.DeadlineExceeded})
	if len(m.items) != 3 || !m.statusIsError {
		t.Errorf("items = %d, status = %q", len(m.items), m.status)
	}
}
