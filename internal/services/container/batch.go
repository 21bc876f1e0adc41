package container

import (
	"context"

	"golang.org/x/sync/errgroup"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

// BatchOptions controls how a batch is issued.
type BatchOptions struct {
	// Parallel is the number of containers worked on at once. Values below
	// 2 run the batch sequentially.
	Parallel int

	// Update carries the shared update settings. Name and ImageRef are
	// ignored; each container keeps its own.
	Update UpdateParams
}

// BatchResult is the per-container result of a batch.
type BatchResult = Result

// Batch applies action to every container in ids. Start, stop and restart
// are shown optimistically for all containers before anything is sent, and
// the list is reconciled once after the last request. A failure on one
// container never stops the others; results are returned in the order of
// ids.
func (s *Service) Batch(ctx context.Context, ids []string, action domain.Action, opts BatchOptions) []BatchResult {
	if action != domain.ActionUpdate {
		for _, id := range ids {
			s.Collection().ApplyOptimistic(id, action)
		}
	}

	results := make([]BatchResult, len(ids))
	next := make([]followUp, len(ids))
	run := func(i int) {
		id := ids[i]
		if action == domain.ActionUpdate {
			results[i] = s.Update(ctx, UpdateParams{ID: id, RemoveOld: opts.Update.RemoveOld})
			return
		}
		p, res, f := s.submitAction(ctx, id, action)
		if p != nil {
			results[i] = s.follow(ctx, p)
			return
		}
		results[i], next[i] = res, f
	}

	if opts.Parallel < 2 {
		for i := range ids {
			if ctx.Err() != nil {
				results[i] = Result{ContainerID: ids[i], ContainerName: s.displayName(ids[i]), Action: action, Err: ctx.Err()}
				continue
			}
			run(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Parallel)
		for i := range ids {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	s.reconcileBatch(ctx, next)
	return results
}

// reconcileBatch refreshes once for the whole batch: after SettleDelay when
// any action was sent, straight away when all of them were rejected.
func (s *Service) reconcileBatch(ctx context.Context, next []followUp) {
	overall := reconcileNone
	for _, f := range next {
		overall = max(overall, f)
	}
	s.reconcile(ctx, "", overall)
}

// Failed returns the results that carry an error.
func Failed(results []BatchResult) []BatchResult {
	var out []BatchResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
