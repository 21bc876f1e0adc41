package poller

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/progress"
)

// Fetcher queries the backend for a task's progress.
type Fetcher interface {
	Progress(ctx context.Context, handle domain.TaskHandle) (progress.Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, handle domain.TaskHandle) (progress.Response, error)

// Progress calls f.
func (f FetcherFunc) Progress(ctx context.Context, handle domain.TaskHandle) (progress.Response, error) {
	return f(ctx, handle)
}

// Observer receives every non-terminal snapshot.
type Observer func(attempt int, snap domain.TaskSnapshot)

// Run polls the task until it completes, fails or times out. The first query
// is sent immediately; each following query is sent PollInterval after the
// previous reply was processed, so queries never overlap.
//
// Run returns ctx.Err() if the context is cancelled before a terminal state
// is reached. A cancelled Run issues no further queries.
func Run(ctx context.Context, f Fetcher, handle domain.TaskHandle, observe Observer) (Outcome, error) {
	m := New(handle, MaxAttempts).Begin()
	log := logging.L().WithField("task", string(handle))

	for {
		resp, err := f.Progress(ctx, handle)
		if ctx.Err() != nil {
			return Outcome{State: m.State(), Attempts: m.Attempts()}, ctx.Err()
		}

		var d Decision
		if err != nil {
			m, d = m.ObserveError(err)
		} else {
			m, d = m.Observe(resp)
		}

		log.WithFields(logrus.Fields{
			"attempt":    m.Attempts(),
			"phase":      d.Snapshot.Phase,
			"percentage": d.Snapshot.Percentage,
		}).Debug("progress tick")

		if d.Outcome != nil {
			return *d.Outcome, nil
		}
		if observe != nil {
			observe(m.Attempts(), d.Snapshot)
		}

		if !sleep(ctx, PollInterval) {
			return Outcome{State: m.State(), Attempts: m.Attempts()}, ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
