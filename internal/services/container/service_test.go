package container

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/dockctl/internal/actionstore"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/backend"
	"nathanbeddoewebdev/dockctl/internal/backend/backendtest"
	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/entities"
	"nathanbeddoewebdev/dockctl/internal/opstate"
	"nathanbeddoewebdev/dockctl/internal/poller"
	"nathanbeddoewebdev/dockctl/internal/retry"
)

func fastTiming(t *testing.T) {
	t.Helper()
	oldPoll, oldSettle := poller.PollInterval, entities.SettleDelay
	poller.PollInterval = time.Millisecond
	entities.SettleDelay = time.Millisecond
	t.Cleanup(func() {
		poller.PollInterval = oldPoll
		entities.SettleDelay = oldSettle
	})
}

func newFixture(t *testing.T, opts ...backend.Option) (*backendtest.Server, *Service) {
	t.Helper()
	fastTiming(t)
	srv := backendtest.New(t)
	srv.SetContainers(
		domain.Container{ID: "c1", Name: "web", Status: domain.StatusStopped, UsingImage: "nginx"},
		domain.Container{ID: "c2", Name: "api", Status: domain.StatusRunning, UsingImage: "ghcr.io/acme/api:1.4"},
		domain.Container{ID: "c3", Name: "db", Status: domain.StatusRunning, UsingImage: "postgres:16"},
		domain.Container{ID: "c4", Name: "cache", Status: domain.StatusRunning, UsingImage: "redis:7"},
		domain.Container{ID: "c5", Name: "queue", Status: domain.StatusRunning, UsingImage: "rabbitmq:3"},
	)
	opts = append([]backend.Option{backend.WithRetry(retry.Config{MaxAttempts: 1})}, opts...)
	svc := NewService(backend.New(srv.URL, opts...))
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}
	return srv, svc
}

// running is a progress reply that neither completes nor fails a task.
func running(data map[string]any) backendtest.Reply {
	return backendtest.Reply{Code: 200, Msg: "processing", Data: data}
}

func tempTasks(t *testing.T) *actionstore.SQLiteRepository {
	t.Helper()
	repo, err := actionstore.OpenAt(filepath.Join(t.TempDir(), "dockctl.db"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// observingBackend records what the cached list looked like when the
// action reached the backend.
type observingBackend struct {
	*backend.Client
	coll     *entities.Collection
	statusAt map[string]string
}

func (b *observingBackend) Act(ctx context.Context, id string, action domain.Action) (domain.TaskHandle, error) {
	if c, ok := b.coll.Find(id); ok {
		b.statusAt[id] = c.Status
	}
	return b.Client.Act(ctx, id, action)
}

func TestAct_StartIsOptimisticThenReconciled(t *testing.T) {
	fastTiming(t)
	srv := backendtest.New(t)
	srv.SetContainers(domain.Container{ID: "c1", Name: "web", Status: domain.StatusStopped})

	coll := entities.NewCollection()
	b := &observingBackend{
		Client:   backend.New(srv.URL, backend.WithRetry(retry.Config{MaxAttempts: 1})),
		coll:     coll,
		statusAt: map[string]string{},
	}
	svc := NewService(b, WithCollection(coll))
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	res := svc.Act(context.Background(), "c1", domain.ActionStart)
	if res.Err != nil {
		t.Fatalf("Act() error: %v", res.Err)
	}
	if res.Handle != "" || res.Outcome != nil {
		t.Errorf("expected untracked result, got %+v", res)
	}
	if b.statusAt["c1"] != domain.StatusRunning {
		t.Errorf("status when request was sent = %q, want optimistic %q", b.statusAt["c1"], domain.StatusRunning)
	}
	if c, _ := coll.Find("c1"); c.Status != domain.StatusRunning {
		t.Errorf("status after reconcile = %q", c.Status)
	}
	if svc.Store().Len() != 0 {
		t.Error("operation record should be released")
	}
	if n := srv.CallCount("GET /api/containers"); n != 2 {
		t.Errorf("expected initial fetch plus one reconcile, got %d", n)
	}
}

func TestAct_RejectionRevertsOptimisticStatus(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SetOverride("POST /api/container/c1/start", backendtest.Reject(500, "端口已被占用"))

	res := svc.Act(context.Background(), "c1", domain.ActionStart)

	var apiErr *domain.APIError
	if !errors.As(res.Err, &apiErr) || apiErr.Code != 500 {
		t.Fatalf("expected APIError 500, got %v", res.Err)
	}
	if c, _ := svc.Collection().Find("c1"); c.Status != domain.StatusStopped {
		t.Errorf("status = %q, want reverted to stopped", c.Status)
	}
	if msg, ok := svc.Store().LastError("c1"); !ok || msg != "端口已被占用" {
		t.Errorf("LastError() = %q, %v", msg, ok)
	}
}

func TestUpdate_FollowsTaskToCompletion(t *testing.T) {
	srv, svc := newFixture(t)
	tasks := tempTasks(t)
	WithTaskRepository(tasks)(svc)

	var seen []float64
	WithProgress(func(rec opstate.Record, snap domain.TaskSnapshot) {
		if rec.TaskHandle != "t-1" {
			t.Errorf("progress record handle = %q", rec.TaskHandle)
		}
		seen = append(seen, snap.Percentage)
	})(svc)

	srv.TaskIDs["c2"] = "t-1"
	srv.SetProgress("t-1",
		running(map[string]any{"progress": "拉取镜像 30%"}),
		running(map[string]any{"progress": "创建容器", "percentage": 80}),
		backendtest.Reply{Code: 200, Msg: "更新完成"},
	)

	res := svc.Update(context.Background(), UpdateParams{ID: "c2", RemoveOld: true})
	if res.Err != nil {
		t.Fatalf("Update() error: %v", res.Err)
	}
	if res.Handle != "t-1" {
		t.Errorf("Handle = %q", res.Handle)
	}
	if res.Outcome == nil || res.Outcome.State != poller.StateCompleted || res.Outcome.Attempts != 3 {
		t.Fatalf("Outcome = %+v", res.Outcome)
	}
	if diff := cmp.Diff([]float64{30, 80}, seen); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}

	wantForm := map[string]string{
		"containerName":   "api",
		"imageNameAndTag": "ghcr.io/acme/api:1.4",
		"delOldContainer": "true",
	}
	if diff := cmp.Diff(wantForm, srv.Form("POST /api/container/c2/update")); diff != "" {
		t.Errorf("update form mismatch (-want +got):\n%s", diff)
	}

	recent, err := tasks.ListRecent(1)
	if err != nil || len(recent) != 1 {
		t.Fatalf("ListRecent() = %v, %v", recent, err)
	}
	if recent[0].Status != actionstore.StatusCompleted || recent[0].Progress != 100 {
		t.Errorf("persisted task = %+v", recent[0])
	}
	if svc.Store().Busy("c2") {
		t.Error("record should be released")
	}
}

func TestUpdate_SynchronousCompletion(t *testing.T) {
	srv, svc := newFixture(t)

	res := svc.Update(context.Background(), UpdateParams{ID: "c1", ImageRef: "nginx:1.27"})
	if res.Err != nil {
		t.Fatalf("Update() error: %v", res.Err)
	}
	if res.Handle != "" {
		t.Errorf("Handle = %q, want none", res.Handle)
	}
	if got := srv.Form("POST /api/container/c1/update")["imageNameAndTag"]; got != "nginx:1.27" {
		t.Errorf("imageNameAndTag = %q", got)
	}
	for _, call := range srv.Calls() {
		if strings.HasPrefix(call, "GET /api/progress/") {
			t.Errorf("unexpected progress query %q", call)
		}
	}
}

func TestUpdate_TransportErrorIsUnconfirmed(t *testing.T) {
	srv, svc := newFixture(t, backend.WithTimeout(20*time.Millisecond))
	srv.SetOverride("POST /api/container/c3/update", backendtest.Reply{Code: 200, Delay: 200 * time.Millisecond})

	res := svc.Update(context.Background(), UpdateParams{ID: "c3"})

	if !errors.Is(res.Err, ErrUnconfirmed) || !errors.Is(res.Err, domain.ErrTransport) {
		t.Fatalf("expected unconfirmed transport error, got %v", res.Err)
	}
	if res.Err.Error() != "update submitted but confirmation timed out; check back later" {
		t.Errorf("message = %q", res.Err.Error())
	}
	if svc.Store().Busy("c3") {
		t.Error("record should be released")
	}
	for _, call := range srv.Calls() {
		if strings.HasPrefix(call, "GET /api/progress/") {
			t.Errorf("no poller should start, saw %q", call)
		}
	}
}

func TestAct_TransportErrorIsUnconfirmed(t *testing.T) {
	srv, svc := newFixture(t, backend.WithTimeout(20*time.Millisecond))
	srv.SetOverride("POST /api/container/c1/start", backendtest.Reply{Code: 200, Delay: 200 * time.Millisecond})

	res := svc.Act(context.Background(), "c1", domain.ActionStart)

	if !errors.Is(res.Err, ErrUnconfirmed) || !errors.Is(res.Err, domain.ErrTransport) {
		t.Fatalf("expected unconfirmed transport error, got %v", res.Err)
	}
	want := "start submitted but confirmation timed out; check back later"
	if res.Err.Error() != want {
		t.Errorf("message = %q, want %q", res.Err.Error(), want)
	}
	if svc.Store().Busy("c1") {
		t.Error("record should be released")
	}
	if msg, ok := svc.Store().LastError("c1"); !ok || msg != want {
		t.Errorf("LastError() = %q, %v", msg, ok)
	}
	if n := srv.CallCount("GET /api/containers"); n != 2 {
		t.Errorf("expected initial fetch plus one settled reconcile, got %d", n)
	}
}

func TestSubmitAction_TransportErrorKeepsOptimisticStatus(t *testing.T) {
	srv, svc := newFixture(t, backend.WithTimeout(20*time.Millisecond))
	srv.SetOverride("POST /api/container/c1/start", backendtest.Reply{Code: 200, Delay: 200 * time.Millisecond})

	p, res := svc.SubmitAction(context.Background(), "c1", domain.ActionStart)

	if p != nil || !errors.Is(res.Err, ErrUnconfirmed) {
		t.Fatalf("SubmitAction() = %v, %v", p, res.Err)
	}
	if c, _ := svc.Collection().Find("c1"); c.Status != domain.StatusRunning {
		t.Errorf("status = %q, want optimistic %q until the settled refresh", c.Status, domain.StatusRunning)
	}
	if n := srv.CallCount("GET /api/containers"); n != 1 {
		t.Errorf("GET /api/containers calls = %d, want no immediate reconcile", n)
	}
}

func TestUpdate_NameConflictHint(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SetOverride("POST /api/container/c2/update", backendtest.Reject(500, "容器重命名失败: name already in use"))

	res := svc.Update(context.Background(), UpdateParams{ID: "c2"})
	if !errors.Is(res.Err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", res.Err)
	}
	msg, _ := svc.Store().LastError("c2")
	if !strings.Contains(msg, domain.NameConflictHint) {
		t.Errorf("LastError() missing remediation hint: %q", msg)
	}
}

func TestUpdate_DuplicateRejected(t *testing.T) {
	srv, svc := newFixture(t)
	srv.TaskIDs["c2"] = "t-1"
	srv.SetProgress("t-1", running(map[string]any{"progress": "拉取镜像"}))

	old := poller.MaxAttempts
	poller.MaxAttempts = 1 << 20
	t.Cleanup(func() { poller.MaxAttempts = old })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- svc.Update(ctx, UpdateParams{ID: "c2"}) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.CallCount("GET /api/progress/t-1") == 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("first update never started")
		}
		time.Sleep(time.Millisecond)
	}

	second := svc.Update(context.Background(), UpdateParams{ID: "c2"})
	if !errors.Is(second.Err, opstate.ErrBusy) {
		t.Errorf("second Update() error = %v, want ErrBusy", second.Err)
	}

	cancel()
	first := <-done
	if n := srv.CallCount("POST /api/container/c2/update"); n != 1 {
		t.Errorf("backend saw %d update requests, want 1", n)
	}
	if !errors.Is(first.Err, context.Canceled) {
		t.Errorf("first Update() error = %v, want context.Canceled", first.Err)
	}
	if svc.Store().Busy("c2") {
		t.Error("cancelled update should release its record")
	}
}

func TestUpdate_TimesOutAfterSixtyChecks(t *testing.T) {
	srv, svc := newFixture(t)
	tasks := tempTasks(t)
	WithTaskRepository(tasks)(svc)
	srv.TaskIDs["c2"] = "t-9"
	srv.SetProgress("t-9", running(map[string]any{"progress": "拉取镜像"}))

	res := svc.Update(context.Background(), UpdateParams{ID: "c2"})

	var te *TimeoutError
	if !errors.As(res.Err, &te) {
		t.Fatalf("expected TimeoutError, got %v", res.Err)
	}
	if te.Attempts != 60 {
		t.Errorf("Attempts = %d, want 60", te.Attempts)
	}
	want := "stopped watching update of api after 60 checks; it may still be running on the server"
	if res.Err.Error() != want {
		t.Errorf("message = %q", res.Err.Error())
	}
	if !errors.Is(res.Err, poller.ErrTimedOut) {
		t.Error("expected errors.Is(err, poller.ErrTimedOut)")
	}
	if n := srv.CallCount("GET /api/progress/t-9"); n != 60 {
		t.Errorf("progress queries = %d, want 60", n)
	}
	recent, _ := tasks.ListRecent(1)
	if len(recent) != 1 || recent[0].Status != actionstore.StatusTimedOut {
		t.Errorf("persisted task = %+v", recent)
	}
}

func TestUpdate_ErrorCodeFails(t *testing.T) {
	srv, svc := newFixture(t)
	srv.TaskIDs["c2"] = "t-2"
	srv.SetProgress("t-2", backendtest.Reject(500, "pull access denied"))

	res := svc.Update(context.Background(), UpdateParams{ID: "c2"})

	var fe *TaskFailedError
	if !errors.As(res.Err, &fe) {
		t.Fatalf("expected TaskFailedError, got %v", res.Err)
	}
	if fe.Message != "pull access denied" {
		t.Errorf("Message = %q", fe.Message)
	}
	if res.Outcome.State != poller.StateFailed || res.Outcome.Attempts != 1 {
		t.Errorf("Outcome = %+v", res.Outcome)
	}
	if msg, _ := svc.Store().LastError("c2"); msg != "pull access denied" {
		t.Errorf("LastError() = %q", msg)
	}
}

func TestBatch_PartialFailure(t *testing.T) {
	for _, parallel := range []int{0, 2} {
		t.Run(map[int]string{0: "sequential", 2: "parallel"}[parallel], func(t *testing.T) {
			srv, svc := newFixture(t)
			srv.SetOverride("POST /api/container/c5/restart", backendtest.Reject(500, "重启失败"))

			results := svc.Batch(context.Background(), []string{"c4", "c5"}, domain.ActionRestart, BatchOptions{Parallel: parallel})

			if len(results) != 2 {
				t.Fatalf("got %d results", len(results))
			}
			if results[0].ContainerID != "c4" || results[0].Err != nil {
				t.Errorf("c4 result = %+v", results[0])
			}
			if results[1].ContainerID != "c5" || results[1].Err == nil {
				t.Errorf("c5 result = %+v", results[1])
			}
			if failed := Failed(results); len(failed) != 1 || failed[0].ContainerName != "queue" {
				t.Errorf("Failed() = %+v", failed)
			}
			if n := srv.CallCount("POST /api/container/c4/restart"); n != 1 {
				t.Errorf("c4 restart calls = %d", n)
			}
		})
	}
}

func TestBatch_AllOptimisticBeforeReconcile(t *testing.T) {
	fastTiming(t)
	srv := backendtest.New(t)
	srv.SetContainers(
		domain.Container{ID: "c1", Name: "web", Status: domain.StatusStopped},
		domain.Container{ID: "c2", Name: "api", Status: domain.StatusStopped},
		domain.Container{ID: "c3", Name: "db", Status: domain.StatusStopped},
	)
	srv.SetOverride("POST /api/container/c2/start", backendtest.Reject(500, "端口已被占用"))

	coll := entities.NewCollection()
	b := &observingBackend{
		Client:   backend.New(srv.URL, backend.WithRetry(retry.Config{MaxAttempts: 1})),
		coll:     coll,
		statusAt: map[string]string{},
	}
	svc := NewService(b, WithCollection(coll))
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	results := svc.Batch(context.Background(), []string{"c1", "c2", "c3"}, domain.ActionStart, BatchOptions{})

	want := map[string]string{"c1": domain.StatusRunning, "c2": domain.StatusRunning, "c3": domain.StatusRunning}
	if diff := cmp.Diff(want, b.statusAt); diff != "" {
		t.Errorf("status when each request was sent (-want +got):\n%s", diff)
	}
	if failed := Failed(results); len(failed) != 1 || failed[0].ContainerID != "c2" {
		t.Errorf("Failed() = %+v", failed)
	}
	if n := srv.CallCount("GET /api/containers"); n != 2 {
		t.Errorf("expected initial fetch plus one reconcile for the batch, got %d", n)
	}
	if c, _ := coll.Find("c2"); c.Status != domain.StatusStopped {
		t.Errorf("rejected c2 status = %q, want reconciled to stopped", c.Status)
	}
	if c, _ := coll.Find("c3"); c.Status != domain.StatusRunning {
		t.Errorf("c3 status = %q", c.Status)
	}
}

func TestBatch_UpdateEachGetsItsOwnPoller(t *testing.T) {
	srv, svc := newFixture(t)
	srv.TaskIDs["c4"] = "t-4"
	srv.TaskIDs["c5"] = "t-5"
	srv.SetProgress("t-4", backendtest.Reply{Code: 200, Msg: "更新成功"})
	srv.SetProgress("t-5", running(map[string]any{"status": "failed", "error": "镜像不存在"}))

	results := svc.Batch(context.Background(), []string{"c4", "c5"}, domain.ActionUpdate, BatchOptions{Parallel: 2})

	if results[0].Err != nil || results[0].Outcome.State != poller.StateCompleted {
		t.Errorf("c4 result = %+v", results[0])
	}
	var fe *TaskFailedError
	if !errors.As(results[1].Err, &fe) || fe.Message != "镜像不存在" {
		t.Errorf("c5 result = %+v", results[1])
	}
}

func TestRename(t *testing.T) {
	srv, svc := newFixture(t)

	res := svc.Rename(context.Background(), "c1", "frontend")
	if res.Err != nil {
		t.Fatalf("Rename() error: %v", res.Err)
	}
	if got := srv.Form("POST /api/container/c1/rename")["newName"]; got != "frontend" {
		t.Errorf("newName = %q", got)
	}
	if c, _ := svc.Collection().Find("c1"); c.Name != "frontend" {
		t.Errorf("cached name = %q", c.Name)
	}
}

func TestResumeTask(t *testing.T) {
	srv, svc := newFixture(t)
	tasks := tempTasks(t)
	WithTaskRepository(tasks)(svc)

	task := &actionstore.TaskRecord{TaskID: "t-7", ContainerID: "c2", ContainerName: "api", Action: "update"}
	if err := tasks.Save(task); err != nil {
		t.Fatal(err)
	}
	srv.SetProgress("t-7", backendtest.OK(map[string]any{"status": "done"}))

	res := svc.ResumeTask(context.Background(), task)
	if res.Err != nil {
		t.Fatalf("ResumeTask() error: %v", res.Err)
	}
	pending, _ := tasks.ListPending()
	if len(pending) != 0 {
		t.Errorf("expected no pending tasks, got %+v", pending)
	}

	if again := svc.ResumeTask(context.Background(), task); again.Err == nil {
		t.Error("expected error resuming a finished task")
	}
}

func TestSubmitUpdate_StepwisePolling(t *testing.T) {
	srv, svc := newFixture(t)
	tasks := tempTasks(t)
	WithTaskRepository(tasks)(svc)
	srv.TaskIDs["c2"] = "t-3"
	srv.SetProgress("t-3",
		running(map[string]any{"percentage": 40}),
		backendtest.OK(map[string]any{"status": "finished"}),
	)

	pending, res := svc.SubmitUpdate(context.Background(), UpdateParams{ID: "c2"})
	if res.Err != nil || pending == nil {
		t.Fatalf("SubmitUpdate() = %v, %v", pending, res.Err)
	}
	if pending.Record.TaskHandle != "t-3" || !svc.Store().Busy("c2") {
		t.Fatalf("record = %+v", pending.Record)
	}

	m := poller.New(pending.Handle, poller.MaxAttempts).Begin()
	var d poller.Decision
	for d.Outcome == nil {
		resp, err := svc.Poll(pending)
		if err != nil {
			m, d = m.ObserveError(err)
			continue
		}
		m, d = m.Observe(resp)
		if d.Outcome == nil && !svc.Observe(pending, d.Snapshot) {
			t.Fatal("Observe() dropped a live reading")
		}
	}

	final := svc.Complete(context.Background(), pending, *d.Outcome)
	if final.Err != nil || final.Outcome.State != poller.StateCompleted {
		t.Fatalf("Complete() = %+v", final)
	}
	if svc.Store().Busy("c2") {
		t.Error("record should be released")
	}
	if svc.Observe(pending, domain.TaskSnapshot{Message: "late"}) {
		t.Error("Observe() accepted a reading after release")
	}
	recent, _ := tasks.ListRecent(1)
	if len(recent) != 1 || recent[0].Status != actionstore.StatusCompleted {
		t.Errorf("persisted task = %+v", recent)
	}
}

func TestAdoptTask_Abandon(t *testing.T) {
	_, svc := newFixture(t)
	tasks := tempTasks(t)
	WithTaskRepository(tasks)(svc)

	task := &actionstore.TaskRecord{TaskID: "t-8", ContainerID: "c3", ContainerName: "db", Action: "update", Status: actionstore.StatusRunning}
	if err := tasks.Save(task); err != nil {
		t.Fatal(err)
	}

	pending, res := svc.AdoptTask(context.Background(), task)
	if res.Err != nil || pending == nil {
		t.Fatalf("AdoptTask() = %v, %v", pending, res.Err)
	}
	abandoned := svc.Abandon(pending, context.Canceled)
	if !errors.Is(abandoned.Err, context.Canceled) {
		t.Errorf("Abandon() err = %v", abandoned.Err)
	}
	if svc.Store().Busy("c3") {
		t.Error("record should be released")
	}
	open, _ := tasks.ListPending()
	if len(open) != 1 {
		t.Errorf("abandoned task should stay pending, got %+v", open)
	}
}

func TestAudit(t *testing.T) {
	srv, svc := newFixture(t)
	repo, err := auditlog.OpenAt(filepath.Join(t.TempDir(), "dockctl.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	WithAudit(repo, srv.URL)(svc)
	srv.SetOverride("POST /api/container/c4/stop", backendtest.Reject(500, "停止失败"))

	svc.Act(context.Background(), "c1", domain.ActionStart)
	svc.Act(context.Background(), "c4", domain.ActionStop)

	entries, err := repo.List(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	outcomes := map[string]string{}
	for _, e := range entries {
		outcomes[e.ResourceID] = e.Outcome
		if e.Backend != srv.URL || e.ResourceType != "container" {
			t.Errorf("entry = %+v", e)
		}
	}
	want := map[string]string{"c1": auditlog.OutcomeSuccess, "c4": auditlog.OutcomeError}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeImageRef(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "nginx", want: "nginx:latest"},
		{in: "docker.io/library/nginx:1.25", want: "nginx:1.25"},
		{in: "ghcr.io/acme/api:v2", want: "ghcr.io/acme/api:v2"},
		{in: "  redis:7 ", want: "redis:7"},
		{in: "", wantErr: true},
		{in: "Nginx:latest", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeImageRef(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeImageRef(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeImageRef(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
