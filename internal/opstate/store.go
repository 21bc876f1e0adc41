// Package opstate tracks the in-flight operation for each container.
//
// At most one operation runs per container. Every record carries a
// generation number; callers pass it back on each mutation so that a late
// tick or result belonging to an earlier operation can never modify or
// resurrect a record that has since been released or replaced.
package opstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

// ErrBusy is returned by TryAcquire when the container already has an
// operation in flight.
var ErrBusy = errors.New("operation already in progress")

// Record is the client-side view of one in-flight operation.
type Record struct {
	EntityID   string
	EntityName string
	Action     domain.Action
	TaskHandle domain.TaskHandle
	Message    string
	Percentage float64
	StartedAt  time.Time
	Generation uint64

	cancel context.CancelFunc
}

// Elapsed returns how long the operation has been running.
func (r Record) Elapsed(now time.Time) time.Duration { return now.Sub(r.StartedAt) }

// Store maps container IDs to their in-flight Record. Mutations build a new
// map and swap it in, so a map returned by Snapshot is never modified.
type Store struct {
	mu      sync.Mutex
	records map[string]Record
	errs    map[string]string
	gen     uint64

	// Now is the clock used for StartedAt. Tests may replace it.
	Now func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		records: map[string]Record{},
		errs:    map[string]string{},
		Now:     time.Now,
	}
}

// TryAcquire registers a new operation for the container. It fails fast
// with ErrBusy, leaving the existing record untouched, when one is already
// in flight. cancel may be nil; when set it is invoked on release.
func (s *Store) TryAcquire(entityID, entityName string, action domain.Action, cancel context.CancelFunc) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[entityID]; ok {
		return Record{}, fmt.Errorf("%s %s: %w (%s)", action, displayName(entityID, entityName), ErrBusy, existing.Action)
	}

	s.gen++
	rec := Record{
		EntityID:   entityID,
		EntityName: entityName,
		Action:     action,
		StartedAt:  s.Now(),
		Generation: s.gen,
		cancel:     cancel,
	}

	next := s.cloneRecords()
	next[entityID] = rec
	s.records = next

	if _, ok := s.errs[entityID]; ok {
		errs := s.cloneErrs()
		delete(errs, entityID)
		s.errs = errs
	}
	return rec, nil
}

// SetHandle attaches the backend task handle to the record. It reports
// false when the record is gone or belongs to another generation.
func (s *Store) SetHandle(entityID string, gen uint64, handle domain.TaskHandle) bool {
	return s.mutate(entityID, gen, func(r *Record) { r.TaskHandle = handle })
}

// SetProgress records the latest progress reading.
func (s *Store) SetProgress(entityID string, gen uint64, message string, percentage float64) bool {
	return s.mutate(entityID, gen, func(r *Record) {
		r.Message = message
		r.Percentage = percentage
	})
}

// Release removes the record and cancels its pending work. A non-empty
// errText is kept as the container's last error until the next acquire or
// ClearError.
func (s *Store) Release(entityID string, gen uint64, errText string) (Record, bool) {
	s.mu.Lock()
	rec, ok := s.records[entityID]
	if !ok || rec.Generation != gen {
		s.mu.Unlock()
		return Record{}, false
	}

	next := s.cloneRecords()
	delete(next, entityID)
	s.records = next

	if errText != "" {
		errs := s.cloneErrs()
		errs[entityID] = errText
		s.errs = errs
	}
	s.mu.Unlock()

	if rec.cancel != nil {
		rec.cancel()
	}
	return rec, true
}

// Active reports whether gen is still the live operation for the container.
func (s *Store) Active(entityID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[entityID]
	return ok && rec.Generation == gen
}

// Get returns the in-flight record for a container.
func (s *Store) Get(entityID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[entityID]
	return rec, ok
}

// Busy reports whether the container has an operation in flight.
func (s *Store) Busy(entityID string) bool {
	_, ok := s.Get(entityID)
	return ok
}

// Snapshot returns the current records. The map must not be modified.
func (s *Store) Snapshot() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// Len returns the number of in-flight operations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// LastError returns the error left by the container's last failed operation.
func (s *Store) LastError(entityID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.errs[entityID]
	return msg, ok
}

// ClearError forgets the container's last error.
func (s *Store) ClearError(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.errs[entityID]; !ok {
		return
	}
	errs := s.cloneErrs()
	delete(errs, entityID)
	s.errs = errs
}

// CancelAll releases every record and cancels its pending work. Used on
// shutdown.
func (s *Store) CancelAll() {
	s.mu.Lock()
	old := s.records
	s.records = map[string]Record{}
	s.mu.Unlock()

	for _, rec := range old {
		if rec.cancel != nil {
			rec.cancel()
		}
	}
}

func (s *Store) mutate(entityID string, gen uint64, fn func(*Record)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[entityID]
	if !ok || rec.Generation != gen {
		return false
	}
	fn(&rec)

	next := s.cloneRecords()
	next[entityID] = rec
	s.records = next
	return true
}

func (s *Store) cloneRecords() map[string]Record {
	next := make(map[string]Record, len(s.records)+1)
	for k, v := range s.records {
		next[k] = v
	}
	return next
}

func (s *Store) cloneErrs() map[string]string {
	next := make(map[string]string, len(s.errs)+1)
	for k, v := range s.errs {
		next[k] = v
	}
	return next
}

func displayName(id, name string) string {
	if name != "" {
		return name
	}
	return id
}
