package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/progress"
)

// withFastPolling shortens the poll interval for the duration of a test.
func withFastPolling(t *testing.T) {
	t.Helper()
	orig := PollInterval
	PollInterval = time.Millisecond
	t.Cleanup(func() { PollInterval = orig })
}

func withMaxAttempts(t *testing.T, n int) {
	t.Helper()
	orig := MaxAttempts
	MaxAttempts = n
	t.Cleanup(func() { MaxAttempts = orig })
}

type scriptedFetcher struct {
	replies []progress.Response
	errs    []error
	calls   int
	handles []domain.TaskHandle
}

func (f *scriptedFetcher) Progress(_ context.Context, h domain.TaskHandle) (progress.Response, error) {
	i := f.calls
	f.calls++
	f.handles = append(f.handles, h)
	if i < len(f.errs) && f.errs[i] != nil {
		return progress.Response{}, f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return progress.Response{Code: 200, Msg: "running"}, nil
}

func running(pct float64) progress.Response {
	return progress.Response{Code: 200, Data: map[string]any{"progress": "pulling", "percentage": pct}}
}

func TestMachine_TimesOutAfterMaxAttempts(t *testing.T) {
	m := New("t-9", 60).Begin()
	var d Decision
	for i := 1; i <= 60; i++ {
		m, d = m.Observe(progress.Response{Code: 200, Msg: "running"})
		if i < 60 && (d.Outcome != nil || !d.Next) {
			t.Fatalf("attempt %d: unexpected decision %+v", i, d)
		}
	}
	if d.Outcome == nil || d.Outcome.State != StateTimedOut {
		t.Fatalf("expected timed out outcome, got %+v", d.Outcome)
	}
	if d.Next {
		t.Error("no tick may follow a terminal outcome")
	}
	if !errors.Is(d.Outcome.Err, ErrTimedOut) {
		t.Errorf("Err = %v, want ErrTimedOut", d.Outcome.Err)
	}

	// A straggling reply after the terminal state changes nothing.
	m2, d2 := m.Observe(progress.Response{Code: 200, Msg: "更新完成"})
	if d2.Outcome != nil || d2.Next || m2.State() != StateTimedOut || m2.Attempts() != 60 {
		t.Errorf("terminal machine reacted to reply: state=%s decision=%+v", m2.State(), d2)
	}
}

func TestMachine_IdleIgnoresReplies(t *testing.T) {
	m := New("t-1", 60)
	m, d := m.Observe(running(10))
	if m.State() != StateIdle || d.Next || d.Outcome != nil {
		t.Errorf("idle machine reacted: %s %+v", m.State(), d)
	}
}

func TestMachine_QueryErrorIsTerminal(t *testing.T) {
	m := New("t-1", 60).Begin()
	m, d := m.ObserveError(errors.New("connection refused"))
	if m.State() != StateFailed || d.Outcome == nil || d.Next {
		t.Fatalf("unexpected: %s %+v", m.State(), d)
	}
	if d.Outcome.Snapshot.Err != "connection refused" {
		t.Errorf("Snapshot.Err = %q", d.Outcome.Snapshot.Err)
	}
}

func TestRun(t *testing.T) {
	withFastPolling(t)

	t.Run("completes on marker", func(t *testing.T) {
		f := &scriptedFetcher{replies: []progress.Response{
			running(30),
			{Code: 200, Data: map[string]any{"progress": "更新完成", "percentage": 100.0}},
		}}
		var seen []float64
		out, err := Run(context.Background(), f, "t-1", func(_ int, s domain.TaskSnapshot) {
			seen = append(seen, s.Percentage)
		})
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		if out.State != StateCompleted || out.Attempts != 2 {
			t.Errorf("outcome = %+v", out)
		}
		if f.calls != 2 {
			t.Errorf("queries = %d, want 2", f.calls)
		}
		if len(seen) != 1 || seen[0] != 30 {
			t.Errorf("observed = %v, want [30]", seen)
		}
		for _, h := range f.handles {
			if h != "t-1" {
				t.Errorf("queried handle %q", h)
			}
		}
	})

	t.Run("server error code fails", func(t *testing.T) {
		f := &scriptedFetcher{replies: []progress.Response{{Code: 500}}}
		out, err := Run(context.Background(), f, "t-2", nil)
		if err != nil {
			t.Fatal(err)
		}
		if out.State != StateFailed || out.Err == nil || out.Err.Error() != progress.DefaultError {
			t.Errorf("outcome = %+v", out)
		}
	})

	t.Run("times out without further queries", func(t *testing.T) {
		withMaxAttempts(t, 5)
		f := &scriptedFetcher{}
		out, err := Run(context.Background(), f, "t-3", nil)
		if err != nil {
			t.Fatal(err)
		}
		if out.State != StateTimedOut || f.calls != 5 {
			t.Errorf("state=%s calls=%d, want timed_out after 5", out.State, f.calls)
		}
	})

	t.Run("query error ends polling", func(t *testing.T) {
		f := &scriptedFetcher{errs: []error{nil, errors.New("boom")}, replies: []progress.Response{running(10)}}
		out, err := Run(context.Background(), f, "t-4", nil)
		if err != nil {
			t.Fatal(err)
		}
		if out.State != StateFailed || f.calls != 2 {
			t.Errorf("state=%s calls=%d", out.State, f.calls)
		}
	})

	t.Run("cancelled context stops polling", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		f := FetcherFunc(func(context.Context, domain.TaskHandle) (progress.Response, error) {
			cancel()
			return running(10), nil
		})
		_, err := Run(ctx, f, "t-5", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
