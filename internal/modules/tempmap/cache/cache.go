// Package cache memoizes the most recent acquisition result for a fixed TTL.
package cache

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"kyushu-tempmap/internal/modules/tempmap/types"
)

// Loader produces a fresh snapshot. It is called with the load slot held, so
// at most one Loader call runs at a time per Cache. The context it receives is
// detached from the caller's cancellation; the loader bounds itself.
type Loader func(ctx context.Context) (types.Snapshot, error)

// Cache holds a single snapshot. There is exactly one cache line: no keys.
type Cache struct {
	ttl  time.Duration
	load Loader
	now  func() time.Time

	// loading serializes loads; a waiting caller can still give up via ctx.
	loading *semaphore.Weighted

	mu       sync.Mutex
	entry    *types.Snapshot
	storedAt time.Time
	hits     int
	misses   int
}

type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(ttl time.Duration, load Loader, opts ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		load:    load,
		now:     time.Now,
		loading: semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached snapshot while it is younger than the TTL, otherwise
// loads a new one. hit reports whether the loader was skipped. A loader error
// leaves the cache empty.
func (c *Cache) Get(ctx context.Context) (snap types.Snapshot, hit bool, err error) {
	if err := c.loading.Acquire(ctx, 1); err != nil {
		return types.Snapshot{}, false, err
	}
	defer c.loading.Release(1)

	c.mu.Lock()
	if c.entry != nil && c.now().Sub(c.storedAt) < c.ttl {
		c.hits++
		snap = clone(*c.entry)
		c.mu.Unlock()
		return snap, true, nil
	}
	c.misses++
	c.mu.Unlock()

	snap, err = c.fill(ctx)
	return snap, false, err
}

// Refresh drops the cached snapshot and loads a new one synchronously.
func (c *Cache) Refresh(ctx context.Context) (types.Snapshot, error) {
	if err := c.loading.Acquire(ctx, 1); err != nil {
		return types.Snapshot{}, err
	}
	defer c.loading.Release(1)

	c.Invalidate()
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	return c.fill(ctx)
}

// Invalidate drops the cached snapshot; the next Get loads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
	slog.Debug("snapshot cache invalidated")
}

// Stats returns hit and miss counts since construction.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// fill runs the loader even if the caller goes away mid-load, so a
// disconnecting visitor cannot turn in-flight fetches into cached failures.
func (c *Cache) fill(ctx context.Context) (types.Snapshot, error) {
	snap, err := c.load(context.WithoutCancel(ctx))
	if err != nil {
		return types.Snapshot{}, err
	}
	c.mu.Lock()
	stored := clone(snap)
	c.entry = &stored
	c.storedAt = c.now()
	c.mu.Unlock()
	return snap, nil
}

func clone(s types.Snapshot) types.Snapshot {
	s.Readings = slices.Clone(s.Readings)
	s.Failures = slices.Clone(s.Failures)
	return s
}
