// Package swrcache is a file-backed stale-while-revalidate cache for slow
// backend lookups, such as the remote release check behind `dockctl version`.
package swrcache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"nathanbeddoewebdev/dockctl/internal/logging"
)

const (
	defaultFreshTTL = time.Hour
	defaultMaxStale = 24 * time.Hour
	refreshTimeout  = 30 * time.Second
)

// Cache stores one JSON file per key under dir.
type Cache struct {
	dir      string
	freshTTL time.Duration
	maxStale time.Duration
	now      func() time.Time

	wg sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long an entry is served without a refresh (fresh) and
// how long past that it may still be served while refreshing (maxStale).
// A maxStale of zero or less serves stale entries indefinitely.
func WithTTL(fresh, maxStale time.Duration) Option {
	return func(c *Cache) {
		c.freshTTL = fresh
		c.maxStale = maxStale
	}
}

// WithClock replaces time.Now. Intended for testing.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns a cache rooted at dir. An empty dir disables caching.
func New(dir string, opts ...Option) *Cache {
	c := &Cache{dir: dir, freshTTL: defaultFreshTTL, maxStale: defaultMaxStale, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefault returns a cache under the user cache directory.
func NewDefault(opts ...Option) *Cache {
	return New(defaultDir(), opts...)
}

// Get returns the entry for key. A missing or expired entry is fetched
// synchronously; a stale one is returned at once with Stale set while a
// refresh runs in the background.
func Get[T any](c *Cache, ctx context.Context, key string, fetch func(context.Context) (T, error)) (Entry[T], error) {
	if c == nil || c.dir == "" {
		data, err := fetch(ctx)
		return Entry[T]{Data: data, FetchedAt: time.Now()}, err
	}

	entry, ok := readEntry[T](c, key)
	if !ok {
		return fetchAndStore(c, ctx, key, fetch)
	}

	age := c.now().Sub(entry.FetchedAt)
	switch {
	case age < 0:
		return fetchAndStore(c, ctx, key, fetch)
	case age <= c.freshTTL:
		return entry, nil
	case c.maxStale <= 0 || age <= c.freshTTL+c.maxStale:
		c.revalidate(key, func(ctx context.Context) error {
			_, err := fetchAndStore(c, ctx, key, fetch)
			return err
		})
		entry.Stale = true
		return entry, nil
	}
	return fetchAndStore(c, ctx, key, fetch)
}

// GetOrFetch is Get without the metadata.
func GetOrFetch[T any](c *Cache, ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	entry, err := Get(c, ctx, key, fetch)
	return entry.Data, err
}

// Wait blocks until background refreshes finish or ctx ends.
func (c *Cache) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Invalidate removes a single cached entry.
func (c *Cache) Invalidate(key string) error {
	if c == nil || c.dir == "" {
		return nil
	}
	err := os.Remove(c.pathForKey(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	if c == nil || c.dir == "" {
		return nil
	}
	err := os.RemoveAll(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func fetchAndStore[T any](c *Cache, ctx context.Context, key string, fetch func(context.Context) (T, error)) (Entry[T], error) {
	data, err := fetch(ctx)
	if err != nil {
		return Entry[T]{}, err
	}
	entry := Entry[T]{Data: data, FetchedAt: c.now()}
	if err := writeEntry(c, key, entry); err != nil {
		logging.L().WithError(err).WithField("key", key).Debug("cache write failed")
	}
	return entry, nil
}

func (c *Cache) revalidate(key string, refresh func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := refresh(ctx); err != nil {
			logging.L().WithError(err).WithField("key", key).Debug("background refresh failed")
		}
	}()
}

// readEntry treats unreadable or corrupt files as a miss.
func readEntry[T any](c *Cache, key string) (Entry[T], bool) {
	data, err := os.ReadFile(c.pathForKey(key))
	if err != nil {
		return Entry[T]{}, false
	}
	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil || entry.FetchedAt.IsZero() {
		return Entry[T]{}, false
	}
	return entry, true
}

func writeEntry[T any](c *Cache, key string, entry Entry[T]) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, sanitizeKey(key)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, c.pathForKey(key))
}

func (c *Cache) pathForKey(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

var dirOverride string

// SetDir overrides the directory used by NewDefault. Intended for testing.
func SetDir(dir string) { dirOverride = dir }

// ResetDir clears the directory override. Intended for testing.
func ResetDir() { dirOverride = "" }

func defaultDir() string {
	if dirOverride != "" {
		return dirOverride
	}
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "dockctl")
}

// sanitizeKey maps a key such as "version:http://host:12712" to a safe
// file name.
func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
}
