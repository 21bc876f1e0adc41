// Package container runs lifecycle actions against containers: it claims the
// per-container operation slot, applies the optimistic status, calls the
// backend, follows tracked tasks to the end and reconciles the list.
package container

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/distribution/reference"
	"github.com/sirupsen/logrus"

	"nathanbeddoewebdev/dockctl/internal/actionstore"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/backend"
	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/entities"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/opstate"
	"nathanbeddoewebdev/dockctl/internal/poller"
	"nathanbeddoewebdev/dockctl/internal/progress"
)

// Backend is the subset of the backend client the service drives.
type Backend interface {
	entities.Lister
	poller.Fetcher
	Act(ctx context.Context, id string, action domain.Action) (domain.TaskHandle, error)
	Update(ctx context.Context, r backend.UpdateRequest) (domain.TaskHandle, error)
	Rename(ctx context.Context, id, newName string) error
}

// ProgressFunc receives every non-terminal progress reading.
type ProgressFunc func(rec opstate.Record, snap domain.TaskSnapshot)

// Service coordinates container actions. It is safe for concurrent use.
type Service struct {
	backend    Backend
	ops        *opstate.Store
	reconciler *entities.Reconciler
	tasks      actionstore.Repository
	audit      auditlog.Repository
	auditTag   string
	onProgress ProgressFunc
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStore shares an operation store, e.g. with a TUI view.
func WithStore(ops *opstate.Store) Option {
	return func(s *Service) { s.ops = ops }
}

// WithCollection shares the cached container collection.
func WithCollection(coll *entities.Collection) Option {
	return func(s *Service) { s.reconciler = entities.NewReconciler(s.backend, coll) }
}

// WithTaskRepository persists tracked tasks so they can be resumed.
func WithTaskRepository(repo actionstore.Repository) Option {
	return func(s *Service) { s.tasks = repo }
}

// WithAudit records one audit entry per container action. The CLI audits
// whole commands instead and leaves this unset.
func WithAudit(repo auditlog.Repository, backendURL string) Option {
	return func(s *Service) {
		s.audit = repo
		s.auditTag = backendURL
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) { s.onProgress = fn }
}

// NewService returns a Service driving b.
func NewService(b Backend, opts ...Option) *Service {
	s := &Service{
		backend: b,
		ops:     opstate.NewStore(),
		now:     time.Now,
	}
	s.reconciler = entities.NewReconciler(b, entities.NewCollection())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the operation store.
func (s *Service) Store() *opstate.Store { return s.ops }

// Reconciler returns the reconciler that owns the cached collection.
func (s *Service) Reconciler() *entities.Reconciler { return s.reconciler }

// Collection returns the cached container collection.
func (s *Service) Collection() *entities.Collection { return s.reconciler.Collection() }

// Refresh re-fetches the container list.
func (s *Service) Refresh(ctx context.Context) ([]domain.Container, error) {
	return s.reconciler.Refresh(ctx)
}

// Lookup resolves ref (ID, name or unique ID prefix) against the cached
// list, fetching it first when it is empty.
func (s *Service) Lookup(ctx context.Context, ref string) (domain.Container, error) {
	items := s.Collection().Items()
	if s.Collection().FetchedAt().IsZero() {
		var err error
		if items, err = s.Refresh(ctx); err != nil {
			return domain.Container{}, err
		}
	}
	return entities.Resolve(items, ref)
}

// Result is the outcome of one action on one container.
type Result struct {
	ContainerID   string
	ContainerName string
	Action        domain.Action

	// Handle is set when the backend tracked the action as a task.
	Handle domain.TaskHandle

	// Outcome is set when a task was followed to a terminal state.
	Outcome *poller.Outcome

	Err error
}

// OK reports whether the action succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Pending is an accepted operation whose backend task has not been followed
// yet. Act and Update follow it themselves; the console drives its own
// polling and hands it back through Poll, Observe and Complete.
type Pending struct {
	Record opstate.Record
	Handle domain.TaskHandle

	opCtx   context.Context
	task    *actionstore.TaskRecord
	started time.Time
	res     Result
}

// Act runs start, stop or restart on the container. The cached list shows
// the predicted status at once; it is reconciled SettleDelay after the
// backend acknowledges.
func (s *Service) Act(ctx context.Context, id string, action domain.Action) Result {
	if action == domain.ActionUpdate {
		return s.Update(ctx, UpdateParams{ID: id})
	}
	s.Collection().ApplyOptimistic(id, action)
	return s.act(ctx, id, action)
}

func (s *Service) act(ctx context.Context, id string, action domain.Action) Result {
	p, res, next := s.submitAction(ctx, id, action)
	if p != nil {
		return s.follow(ctx, p)
	}
	s.reconcile(ctx, id, next)
	return res
}

// SubmitAction applies the optimistic status and sends start, stop or
// restart without waiting on any task. A nil Pending means the result is
// final. A rejection is reconciled before returning; otherwise the caller
// reconciles after SettleDelay.
func (s *Service) SubmitAction(ctx context.Context, id string, action domain.Action) (*Pending, Result) {
	s.Collection().ApplyOptimistic(id, action)
	p, res, next := s.submitAction(ctx, id, action)
	if next == reconcileNow {
		s.reconcile(ctx, id, next)
	}
	return p, res
}

// followUp says how the list must be reconciled after an untracked action.
type followUp int

const (
	reconcileNone followUp = iota
	// reconcileNow undoes the optimistic status of a rejected action.
	reconcileNow
	// reconcileSettled waits SettleDelay for the backend to catch up.
	reconcileSettled
)

// submitAction sends the action and leaves reconciling to the caller, so a
// batch can keep every optimistic status until all requests are out.
func (s *Service) submitAction(ctx context.Context, id string, action domain.Action) (*Pending, Result, followUp) {
	started := s.now()
	name := s.displayName(id)
	res := Result{ContainerID: id, ContainerName: name, Action: action}

	opCtx, cancel := context.WithCancel(ctx)
	rec, err := s.ops.TryAcquire(id, name, action, cancel)
	if err != nil {
		cancel()
		res.Err = err
		return nil, res, reconcileNone
	}
	log := logging.Entity(id, logrus.Fields{"action": action, "gen": rec.Generation})

	handle, err := s.backend.Act(opCtx, id, action)
	if err != nil {
		next := reconcileNow
		if errors.Is(err, domain.ErrTransport) {
			log.WithError(err).Warn("action submission unconfirmed")
			res.Err = &unconfirmedError{action: action, cause: err}
			next = reconcileSettled
		} else {
			log.WithError(err).Debug("action rejected")
			res.Err = fmt.Errorf("failed to %s %s: %w", action, name, err)
		}
		s.ops.Release(id, rec.Generation, describe(res.Err))
		s.record(ctx, res, started)
		return nil, res, next
	}

	if handle == "" {
		s.ops.Release(id, rec.Generation, "")
		log.Debug("action acknowledged")
		s.record(ctx, res, started)
		return nil, res, reconcileSettled
	}

	res.Handle = handle
	s.ops.SetHandle(id, rec.Generation, handle)
	rec.TaskHandle = handle
	return &Pending{Record: rec, Handle: handle, opCtx: opCtx, started: started, res: res}, res, reconcileNone
}

func (s *Service) reconcile(ctx context.Context, id string, next followUp) {
	var err error
	switch next {
	case reconcileNow:
		_, err = s.reconciler.Refresh(ctx)
	case reconcileSettled:
		_, err = s.reconciler.RefreshAfter(ctx, entities.SettleDelay)
	}
	if err != nil && ctx.Err() == nil {
		logging.Entity(id, nil).WithError(err).Debug("post-action refresh failed")
	}
}

// UpdateParams describes an image update. Zero fields default to the
// container's current name and image.
type UpdateParams struct {
	ID        string
	Name      string
	ImageRef  string
	RemoveOld bool
}

// Update moves the container to a new image and, when the backend returns a
// task handle, follows the task until it completes, fails or times out.
func (s *Service) Update(ctx context.Context, p UpdateParams) Result {
	pending, res := s.SubmitUpdate(ctx, p)
	if pending == nil {
		return res
	}
	return s.follow(ctx, pending)
}

// SubmitUpdate sends the update and persists its task without following it.
// A nil Pending means the result is final.
func (s *Service) SubmitUpdate(ctx context.Context, p UpdateParams) (*Pending, Result) {
	started := s.now()
	current, _ := s.Collection().Find(p.ID)
	name := firstNonEmpty(p.Name, current.Name, p.ID)
	res := Result{ContainerID: p.ID, ContainerName: name, Action: domain.ActionUpdate}

	imageRef, err := NormalizeImageRef(firstNonEmpty(p.ImageRef, current.UsingImage))
	if err != nil {
		res.Err = err
		return nil, res
	}

	opCtx, cancel := context.WithCancel(ctx)
	rec, err := s.ops.TryAcquire(p.ID, name, domain.ActionUpdate, cancel)
	if err != nil {
		cancel()
		res.Err = err
		return nil, res
	}
	log := logging.Entity(p.ID, logrus.Fields{"action": domain.ActionUpdate, "gen": rec.Generation, "image": imageRef})

	handle, err := s.backend.Update(opCtx, backend.UpdateRequest{
		ID:        p.ID,
		Name:      name,
		ImageRef:  imageRef,
		RemoveOld: p.RemoveOld,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransport):
			log.WithError(err).Warn("update submission unconfirmed")
			res.Err = &unconfirmedError{action: domain.ActionUpdate, cause: err}
		default:
			res.Err = fmt.Errorf("update of %s rejected: %w", name, err)
		}
		s.ops.Release(p.ID, rec.Generation, describe(res.Err))
		s.record(ctx, res, started)
		return nil, res
	}

	if handle == "" {
		s.ops.Release(p.ID, rec.Generation, "")
		_, _ = s.reconciler.Refresh(ctx)
		s.record(ctx, res, started)
		return nil, res
	}

	res.Handle = handle
	s.ops.SetHandle(p.ID, rec.Generation, handle)
	rec.TaskHandle = handle
	task := s.saveTask(&actionstore.TaskRecord{
		TaskID:        string(handle),
		ContainerID:   p.ID,
		ContainerName: name,
		Action:        string(domain.ActionUpdate),
		ImageRef:      imageRef,
		Status:        actionstore.StatusRunning,
	})
	return &Pending{Record: rec, Handle: handle, opCtx: opCtx, task: task, started: started, res: res}, res
}

// Rename renames the container and reconciles straight away.
func (s *Service) Rename(ctx context.Context, id, newName string) Result {
	started := s.now()
	name := s.displayName(id)
	res := Result{ContainerID: id, ContainerName: name, Action: "rename"}

	opCtx, cancel := context.WithCancel(ctx)
	rec, err := s.ops.TryAcquire(id, name, "rename", cancel)
	if err != nil {
		cancel()
		res.Err = err
		return res
	}

	if err := s.backend.Rename(opCtx, id, newName); err != nil {
		res.Err = fmt.Errorf("failed to rename %s: %w", name, err)
		s.ops.Release(id, rec.Generation, describe(res.Err))
		s.record(ctx, res, started)
		return res
	}
	s.ops.Release(id, rec.Generation, "")
	res.ContainerName = newName
	_, _ = s.reconciler.Refresh(ctx)
	s.record(ctx, res, started)
	return res
}

// ResumeTask picks up a persisted task and follows it to the end.
func (s *Service) ResumeTask(ctx context.Context, task *actionstore.TaskRecord) Result {
	pending, res := s.AdoptTask(ctx, task)
	if pending == nil {
		return res
	}
	return s.follow(ctx, pending)
}

// AdoptTask claims the container for a persisted task so its polling can be
// picked up again. A nil Pending means the task cannot be resumed.
func (s *Service) AdoptTask(ctx context.Context, task *actionstore.TaskRecord) (*Pending, Result) {
	res := Result{
		ContainerID:   task.ContainerID,
		ContainerName: task.ContainerName,
		Action:        domain.Action(task.Action),
		Handle:        domain.TaskHandle(task.TaskID),
	}
	if task.Terminal() {
		res.Err = fmt.Errorf("task %s already finished (%s)", task.TaskID, task.Status)
		return nil, res
	}

	opCtx, cancel := context.WithCancel(ctx)
	rec, err := s.ops.TryAcquire(task.ContainerID, task.ContainerName, res.Action, cancel)
	if err != nil {
		cancel()
		res.Err = err
		return nil, res
	}
	s.ops.SetHandle(task.ContainerID, rec.Generation, res.Handle)
	rec.TaskHandle = res.Handle
	return &Pending{Record: rec, Handle: res.Handle, opCtx: opCtx, task: task, started: s.now(), res: res}, res
}

// Poll issues one progress query for the pending task. The query is
// cancelled with the operation.
func (s *Service) Poll(p *Pending) (progress.Response, error) {
	return s.backend.Progress(p.opCtx, p.Handle)
}

// Observe records a non-terminal reading. It reports false when the
// operation has already been released or replaced, in which case the
// reading must be dropped.
func (s *Service) Observe(p *Pending, snap domain.TaskSnapshot) bool {
	rec := p.Record
	if !s.ops.SetProgress(rec.EntityID, rec.Generation, snap.Message, snap.Percentage) {
		return false
	}
	if p.task != nil {
		p.task.Progress = snap.Percentage
		p.task.Message = snap.Message
		s.saveTask(p.task)
	}
	if s.onProgress != nil {
		if cur, ok := s.ops.Get(rec.EntityID); ok {
			s.onProgress(cur, snap)
		}
	}
	return true
}

// Complete releases the operation with its terminal outcome, closes the
// persisted task and writes the audit entry. It does not reconcile.
func (s *Service) Complete(ctx context.Context, p *Pending, outcome poller.Outcome) Result {
	rec := p.Record
	res := p.res
	res.Outcome = &outcome
	name := firstNonEmpty(rec.EntityName, rec.EntityID)

	switch outcome.State {
	case poller.StateCompleted:
		s.ops.Release(rec.EntityID, rec.Generation, "")
		s.finishTask(p.task, actionstore.StatusCompleted, outcome, "")
	case poller.StateTimedOut:
		res.Err = &TimeoutError{Name: name, Attempts: outcome.Attempts}
		s.ops.Release(rec.EntityID, rec.Generation, res.Err.Error())
		s.finishTask(p.task, actionstore.StatusTimedOut, outcome, res.Err.Error())
	default:
		res.Err = &TaskFailedError{Name: name, Action: string(rec.Action), Message: outcome.Snapshot.Err, cause: outcome.Err}
		s.ops.Release(rec.EntityID, rec.Generation, outcome.Snapshot.Err)
		s.finishTask(p.task, actionstore.StatusFailed, outcome, outcome.Snapshot.Err)
	}
	logging.Entity(rec.EntityID, logrus.Fields{"task": p.Handle, "gen": rec.Generation}).
		WithField("state", outcome.State).Debug("task finished")

	s.record(ctx, res, p.started)
	return res
}

// Abandon stops tracking the operation without a terminal outcome. The
// persisted task stays running so it can be resumed.
func (s *Service) Abandon(p *Pending, cause error) Result {
	res := p.res
	res.Err = fmt.Errorf("stopped following %s: %w", firstNonEmpty(p.Record.EntityName, p.Record.EntityID), cause)
	s.ops.Release(p.Record.EntityID, p.Record.Generation, "")
	return res
}

// follow polls the pending task to a terminal state and reconciles. A
// cancelled ctx releases the record but leaves the persisted task running.
func (s *Service) follow(ctx context.Context, p *Pending) Result {
	outcome, err := poller.Run(p.opCtx, s.backend, p.Handle, func(_ int, snap domain.TaskSnapshot) {
		s.Observe(p, snap)
	})
	if err != nil {
		return s.Abandon(p, err)
	}
	res := s.Complete(ctx, p, outcome)

	if _, err := s.reconciler.Refresh(ctx); err != nil {
		logging.Entity(p.Record.EntityID, nil).WithError(err).Debug("post-task refresh failed")
	}
	return res
}

func (s *Service) saveTask(task *actionstore.TaskRecord) *actionstore.TaskRecord {
	if s.tasks == nil {
		return task
	}
	if err := s.tasks.Save(task); err != nil {
		logging.Entity(task.ContainerID, nil).WithError(err).Warn("failed to persist task")
	}
	return task
}

func (s *Service) finishTask(task *actionstore.TaskRecord, status string, outcome poller.Outcome, errMsg string) {
	if task == nil {
		return
	}
	task.Status = status
	task.Message = outcome.Snapshot.Message
	task.Progress = outcome.Snapshot.Percentage
	task.ErrorMessage = errMsg
	if status == actionstore.StatusCompleted {
		task.Progress = 100
	}
	s.saveTask(task)
}

func (s *Service) record(ctx context.Context, res Result, started time.Time) {
	if s.audit == nil {
		return
	}
	entry := &auditlog.AuditEntry{
		Timestamp:    started,
		Command:      "container " + string(res.Action),
		Backend:      s.auditTag,
		ResourceType: "container",
		ResourceID:   res.ContainerID,
		ResourceName: res.ContainerName,
		Outcome:      auditlog.OutcomeSuccess,
		DurationMs:   s.now().Sub(started).Milliseconds(),
	}
	if meta := auditlog.MetadataFromContext(ctx); meta.Backend != "" {
		entry.Backend = meta.Backend
	}
	if res.Err != nil {
		entry.Outcome = auditlog.OutcomeError
		if errors.Is(res.Err, poller.ErrTimedOut) {
			entry.Outcome = auditlog.OutcomeTimeout
		}
		entry.Detail = res.Err.Error()
	}
	if err := s.audit.Save(entry); err != nil {
		logging.L().WithError(err).Warn("failed to write audit entry")
	}
}

func (s *Service) displayName(id string) string {
	if c, ok := s.Collection().Find(id); ok && c.Name != "" {
		return c.Name
	}
	return id
}

// describe renders err for the operation store's error field.
func describe(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return domain.RejectionText(apiErr)
	}
	return err.Error()
}

// NormalizeImageRef validates an image reference and returns it in the
// short form the backend expects, adding ":latest" when no tag or digest is
// given.
func NormalizeImageRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("image reference is empty")
	}
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", ref, err)
	}
	return reference.FamiliarString(reference.TagNameOnly(named)), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
