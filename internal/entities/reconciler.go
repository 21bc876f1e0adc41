package entities

import (
	"context"
	"fmt"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/logging"
)

// Refresh timing. Package-level so tests can shorten them.
var (
	// RefreshInterval is the periodic refresh cadence while a view is open.
	RefreshInterval = 10 * time.Second

	// SettleDelay is how long to wait after a start, stop or restart before
	// re-fetching, giving the backend time to apply it.
	SettleDelay = 1500 * time.Millisecond
)

// Lister fetches the authoritative container list.
type Lister interface {
	ListContainers(ctx context.Context) ([]domain.Container, error)
}

// Reconciler replaces the cached collection with the backend's list. It
// only ever touches the collection; in-flight operation records are owned
// elsewhere and survive every refresh.
type Reconciler struct {
	lister Lister
	coll   *Collection
	now    func() time.Time
}

// NewReconciler returns a Reconciler feeding coll from lister.
func NewReconciler(lister Lister, coll *Collection) *Reconciler {
	return &Reconciler{lister: lister, coll: coll, now: time.Now}
}

// Collection returns the collection this reconciler maintains.
func (r *Reconciler) Collection() *Collection { return r.coll }

// Refresh fetches and replaces the collection. On error the cached list is
// left as it was.
func (r *Reconciler) Refresh(ctx context.Context) ([]domain.Container, error) {
	items, err := r.lister.ListContainers(ctx)
	if err != nil {
		logging.L().WithError(err).Debug("reconcile failed")
		return nil, fmt.Errorf("failed to refresh containers: %w", err)
	}
	r.coll.Replace(items, r.now())
	logging.L().WithField("containers", len(items)).Debug("reconciled")
	return items, nil
}

// RefreshAfter waits delay and then refreshes. It returns ctx.Err() if the
// context ends first.
func (r *Reconciler) RefreshAfter(ctx context.Context, delay time.Duration) ([]domain.Container, error) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return r.Refresh(ctx)
}

// Watch refreshes immediately and then every RefreshInterval until ctx is
// done, handing each result to fn. Fetch errors are reported to fn and do
// not stop the loop.
func (r *Reconciler) Watch(ctx context.Context, fn func([]domain.Container, error)) error {
	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()

	for {
		items, err := r.Refresh(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if fn != nil {
			fn(items, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
