package dataset

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sevaops/bskdash/errors"
)

// ErrLoadFailure marks errors from a failed snapshot load, letting handlers
// distinguish "no data to serve" from other failures.
var ErrLoadFailure = errors.New("dataset load failure")

// Cache memoizes the last successfully loaded snapshot for the process
// lifetime. It has two states, empty and loaded, and no automatic expiry;
// invalidation is caller-driven through Reload.
//
// A complete replacement snapshot is always built out-of-place and published
// with a single atomic pointer swap, so concurrent readers never block on a
// reload and never observe a half-replaced snapshot. A failed forced reload
// retains the last good snapshot and reports the error; callers that need a
// hard refresh can check Reload's error and act on it.
type Cache struct {
	backend Backend
	logger  *zap.SugaredLogger

	mu   sync.Mutex // serializes loads, never held by readers
	snap atomic.Pointer[Snapshot]
}

// NewCache creates an empty cache over the given backend.
func NewCache(backend Backend, logger *zap.SugaredLogger) *Cache {
	return &Cache{backend: backend, logger: logger}
}

// Get returns the held snapshot, loading one first when the cache is empty.
// A loaded cache serves Get without any I/O.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if snap := c.snap.Load(); snap != nil {
		return snap, nil
	}
	return c.load(ctx)
}

// Reload forces a fresh load from the backend. On success the new snapshot
// atomically replaces the held one. On failure the previous snapshot, if
// any, stays published and keeps serving readers.
func (c *Cache) Reload(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fill(ctx)
}

// Loaded reports whether the cache currently holds a snapshot.
func (c *Cache) Loaded() bool {
	return c.snap.Load() != nil
}

// Snapshot returns the currently held snapshot without triggering a load.
// Nil when the cache is empty.
func (c *Cache) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Backend exposes the backend identity for health reporting.
func (c *Cache) Backend() string {
	return c.backend.Name()
}

// load fills an empty cache, collapsing concurrent first-access loads into
// one backend call.
func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have filled the cache while we waited on the lock.
	if snap := c.snap.Load(); snap != nil {
		return snap, nil
	}
	return c.fill(ctx)
}

// fill invokes the backend and publishes the result. Caller holds c.mu.
func (c *Cache) fill(ctx context.Context) (*Snapshot, error) {
	snap, err := c.backend.Load(ctx)
	if err != nil {
		c.logger.Errorw("Dataset load failed",
			"backend", c.backend.Name(),
			"error", err)
		return nil, errors.Mark(
			errors.Wrapf(err, "load dataset from %s backend", c.backend.Name()),
			ErrLoadFailure,
		)
	}

	c.snap.Store(snap)
	c.logger.Infow("Dataset snapshot published",
		"backend", c.backend.Name(),
		"services", len(snap.Services),
		"bsks", len(snap.Centers),
		"deos", len(snap.Agents),
		"provisions", len(snap.Provisions))
	return snap, nil
}
