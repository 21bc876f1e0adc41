// Package entities holds the client's cached container list and keeps it in
// step with the backend.
//
// The cache accepts optimistic status predictions so the console can react
// before the backend confirms an action; every fetch replaces the cache
// wholesale, so the backend's view always wins.
package entities

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

// Collection is the cached container list. The slice returned by Items is
// never modified in place.
type Collection struct {
	mu        sync.RWMutex
	items     []domain.Container
	fetchedAt time.Time
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection { return &Collection{} }

// Replace swaps in a freshly fetched list.
func (c *Collection) Replace(items []domain.Container, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.fetchedAt = at
}

// Items returns the cached containers.
func (c *Collection) Items() []domain.Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items
}

// FetchedAt returns when the cache was last replaced by a fetch.
func (c *Collection) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// Find returns the cached container with the given ID.
func (c *Collection) Find(id string) (domain.Container, bool) {
	for _, ct := range c.Items() {
		if ct.ID == id {
			return ct, true
		}
	}
	return domain.Container{}, false
}

// ApplyOptimistic writes the status the action is expected to produce. It
// reports whether anything changed.
func (c *Collection) ApplyOptimistic(id string, action domain.Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, changed := ApplyOptimistic(c.items, id, action)
	if changed {
		c.items = next
	}
	return changed
}

// ApplyOptimistic returns a copy of items with the predicted status applied
// to the container with the given ID. items is not modified. Applying the
// same action twice yields the same result as applying it once.
func ApplyOptimistic(items []domain.Container, id string, action domain.Action) ([]domain.Container, bool) {
	status, ok := action.PredictStatus()
	if !ok {
		return items, false
	}
	for i, ct := range items {
		if ct.ID != id {
			continue
		}
		if ct.Status == status {
			return items, false
		}
		next := make([]domain.Container, len(items))
		copy(next, items)
		next[i].Status = status
		return next, true
	}
	return items, false
}

// Resolve finds a container by exact ID, exact name, or unique ID prefix.
func Resolve(items []domain.Container, ref string) (domain.Container, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Container{}, fmt.Errorf("container reference is empty")
	}

	for _, ct := range items {
		if ct.ID == ref || ct.Name == ref || strings.TrimPrefix(ct.Name, "/") == ref {
			return ct, nil
		}
	}

	var matches []domain.Container
	for _, ct := range items {
		if strings.HasPrefix(ct.ID, ref) {
			matches = append(matches, ct)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Container{}, fmt.Errorf("container %q: %w", ref, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return domain.Container{}, fmt.Errorf("container %q is ambiguous (%d matches)", ref, len(matches))
	}
}
