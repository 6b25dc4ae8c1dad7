package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sevaops/bskdash/errors"
)

// fakeBackend builds versioned snapshots so tests can detect torn reads and
// count backend invocations.
type fakeBackend struct {
	loads   atomic.Int64
	failing atomic.Bool
	delay   time.Duration
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Load(ctx context.Context) (*Snapshot, error) {
	n := b.loads.Add(1)
	if b.failing.Load() {
		return nil, errors.New("backend exploded")
	}

	version := fmt.Sprintf("v%d", n)
	snap := &Snapshot{
		Services: []Service{{ServiceID: n, ServiceName: version}},
		LoadedAt: time.Now(),
		Source:   b.Name(),
	}
	if b.delay > 0 {
		// Simulate a slow source: the snapshot is assembled over time,
		// entity by entity.
		time.Sleep(b.delay)
	}
	snap.Centers = []TrainingCenter{{BSKCode: version}}
	snap.Agents = []Agent{{AgentID: n, AgentName: version}}
	snap.Provisions = []Provision{{CustomerID: version}}
	return snap, nil
}

func TestCacheGetLoadsOnce(t *testing.T) {
	backend := &fakeBackend{}
	cache := NewCache(backend, zap.NewNop().Sugar())

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	second, err := cache.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "second Get must return the held snapshot")
	assert.Equal(t, int64(1), backend.loads.Load(), "a loaded cache serves Get without I/O")
}

func TestCacheGetAfterReloadServesNewSnapshotWithoutIO(t *testing.T) {
	backend := &fakeBackend{}
	cache := NewCache(backend, zap.NewNop().Sugar())

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	reloaded, err := cache.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), backend.loads.Load())

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, reloaded, got)
	assert.Equal(t, int64(2), backend.loads.Load(), "Get after Reload must not re-invoke the backend")
}

func TestCacheInitialLoadFailureStaysEmpty(t *testing.T) {
	backend := &fakeBackend{}
	backend.failing.Store(true)
	cache := NewCache(backend, zap.NewNop().Sugar())

	_, err := cache.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoadFailure))
	assert.False(t, cache.Loaded())
	assert.Nil(t, cache.Snapshot())
}

func TestCacheFailedForcedReloadRetainsLastGoodSnapshot(t *testing.T) {
	backend := &fakeBackend{}
	cache := NewCache(backend, zap.NewNop().Sugar())

	good, err := cache.Get(context.Background())
	require.NoError(t, err)

	backend.failing.Store(true)
	_, err = cache.Reload(context.Background())
	require.Error(t, err)

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, got, "failed forced reload must keep serving the prior snapshot")
	assert.True(t, cache.Loaded())
}

func TestCacheConcurrentReadsNeverObserveMixedSnapshot(t *testing.T) {
	backend := &fakeBackend{delay: 20 * time.Millisecond}
	cache := NewCache(backend, zap.NewNop().Sugar())

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Reload(context.Background())
	}()

	// Hammer reads while the reload is assembling its snapshot. Every
	// observed snapshot must be internally consistent: all four
	// collections stamped with the same version.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap, err := cache.Get(context.Background())
				if err != nil {
					t.Errorf("read during reload failed: %v", err)
					return
				}
				version := snap.Services[0].ServiceName
				if snap.Centers[0].BSKCode != version ||
					snap.Agents[0].AgentName != version ||
					snap.Provisions[0].CustomerID != version {
					t.Errorf("observed torn snapshot: services=%s centers=%s agents=%s provisions=%s",
						version, snap.Centers[0].BSKCode, snap.Agents[0].AgentName, snap.Provisions[0].CustomerID)
					return
				}
			}
		}()
	}

	<-done
	wg.Wait()
}

func TestCacheBackendName(t *testing.T) {
	cache := NewCache(&fakeBackend{}, zap.NewNop().Sugar())
	assert.Equal(t, "fake", cache.Backend())
}
