package swrcache

import "time"

// Entry wraps cached data with the time it was fetched.
type Entry[T any] struct {
	Data      T         `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`

	// Stale is set on entries served past their fresh TTL while a
	// background refresh runs. It is never persisted.
	Stale bool `json:"-"`
}
