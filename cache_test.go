package cache_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/resource-cache"
	"github.com/krisalay/resource-cache/engine"
	"github.com/krisalay/resource-cache/loader"
	"github.com/krisalay/resource-cache/resource"
	"github.com/krisalay/resource-cache/types"
)

//
// ================= TEST COLLABORATORS =================
//

// TestLoader counts calls and can be told to fail.
type TestLoader struct {
	calls atomic.Int64
	fail  atomic.Bool
}

var errUpstream = errors.New("upstream unavailable")

func (l *TestLoader) Load(ctx context.Context, id string) ([]byte, error) {
	l.calls.Add(1)
	if l.fail.Load() {
		return nil, errUpstream
	}
	return loader.Placeholder.Load(ctx, id)
}

// TestObserver records every diagnostic event.
type TestObserver struct {
	mu        sync.Mutex
	created   map[string]int
	destroyed map[string]int
	pruned    []string
}

func NewTestObserver() *TestObserver {
	return &TestObserver{
		created:   make(map[string]int),
		destroyed: make(map[string]int),
	}
}

func (o *TestObserver) Created(id string, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created[id]++
}

func (o *TestObserver) Destroyed(id string, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyed[id]++
}

func (o *TestObserver) Pruned(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pruned = append(o.pruned, id)
}

func (o *TestObserver) Hit(string)               {}
func (o *TestObserver) Miss(string)              {}
func (o *TestObserver) Expired(string)           {}
func (o *TestObserver) LoadFailed(string, error) {}

func (o *TestObserver) destroyedCount(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed[id]
}

func (o *TestObserver) createdCount(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.created[id]
}

// TestMetrics counts cache events.
type TestMetrics struct {
	hits, misses, expired, pruned, failures atomic.Int64
}

func (m *TestMetrics) Hit()         { m.hits.Add(1) }
func (m *TestMetrics) Miss()        { m.misses.Add(1) }
func (m *TestMetrics) Expire()      { m.expired.Add(1) }
func (m *TestMetrics) Prune()       { m.pruned.Add(1) }
func (m *TestMetrics) LoadFailure() { m.failures.Add(1) }

//
// ================= HELPER: CREATE CACHE =================
//

type fixture struct {
	cache   *cache.ResourceCache
	loader  *TestLoader
	obs     *TestObserver
	metrics *TestMetrics
}

func newTestCache(shards int) *fixture {
	f := &fixture{
		loader:  &TestLoader{},
		obs:     NewTestObserver(),
		metrics: &TestMetrics{},
	}
	f.cache = cache.NewResourceCache(shards, engine.NewCacheEngine(f.loader, f.metrics, f.obs))
	return f
}

func mustGet(t *testing.T, c *cache.ResourceCache, id string) *resource.Handle {
	t.Helper()
	h, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, h)
	return h
}

//
// ================= IDENTITY & RELOAD =================
//

func TestIdentityOnHit(t *testing.T) {
	f := newTestCache(1)

	a1 := mustGet(t, f.cache, "asset1")
	a2 := mustGet(t, f.cache, "asset1")
	defer a1.Release()
	defer a2.Release()

	assert.True(t, a1.Same(a2))
	assert.Same(t, a1.Resource(), a2.Resource())
	assert.Equal(t, int64(1), f.loader.calls.Load())
	assert.Equal(t, int64(1), f.metrics.hits.Load())
	assert.Equal(t, 1, f.cache.Size())
}

func TestHitWithOnlyLaterHandleAlive(t *testing.T) {
	f := newTestCache(1)

	a1 := mustGet(t, f.cache, "a")
	a2 := mustGet(t, f.cache, "a")

	// The first handle going away must not hide the resource still held by a2.
	a1.Release()

	a3 := mustGet(t, f.cache, "a")
	defer a2.Release()
	defer a3.Release()

	assert.True(t, a2.Same(a3))
	assert.Equal(t, int64(1), f.loader.calls.Load())
}

func TestReloadAfterExpiry(t *testing.T) {
	f := newTestCache(1)

	first := mustGet(t, f.cache, "asset1")
	oldRes := first.Resource()
	oldData := oldRes.Data()
	first.Release()

	assert.Equal(t, 1, f.obs.destroyedCount("asset1"))

	second := mustGet(t, f.cache, "asset1")
	defer second.Release()

	assert.NotSame(t, oldRes, second.Resource())
	assert.Equal(t, "asset1", second.Resource().ID())
	assert.Equal(t, oldData, second.Resource().Data())
	assert.Equal(t, int64(2), f.loader.calls.Load())
	assert.Equal(t, int64(1), f.metrics.expired.Load())
	assert.Equal(t, int64(2), f.metrics.misses.Load())

	// The stale entry was overwritten, not duplicated.
	assert.Equal(t, 1, f.cache.Size())
}

func TestPlaceholderPayload(t *testing.T) {
	c := cache.NewResourceCache(0, nil)

	h := mustGet(t, c, "abc")
	defer h.Release()

	assert.Equal(t, []byte{'a', 'b', 'c', 0xFF}, h.Resource().Data())
}

//
// ================= SIZE & PRUNE =================
//

func TestSizeCountsBookkeeping(t *testing.T) {
	f := newTestCache(1)

	h := mustGet(t, f.cache, "a")
	h.Release()

	assert.Equal(t, 1, f.cache.Size())

	assert.Equal(t, 1, f.cache.Prune())
	assert.Equal(t, 0, f.cache.Size())
}

func TestPruneIsPreciseFilter(t *testing.T) {
	for _, shards := range []int{1, 4} {
		f := newTestCache(shards)

		x := mustGet(t, f.cache, "x")
		y := mustGet(t, f.cache, "y")
		z := mustGet(t, f.cache, "z")
		y.Release()

		assert.Equal(t, 1, f.cache.Prune())
		assert.Equal(t, 2, f.cache.Size())
		assert.Equal(t, []string{"y"}, f.obs.pruned)

		// x and z are still cache hits.
		x2 := mustGet(t, f.cache, "x")
		z2 := mustGet(t, f.cache, "z")
		assert.True(t, x.Same(x2))
		assert.True(t, z.Same(z2))
		assert.Equal(t, int64(3), f.loader.calls.Load())

		for _, h := range []*resource.Handle{x, z, x2, z2} {
			h.Release()
		}
	}
}

func TestPruneEdgeCases(t *testing.T) {
	f := newTestCache(2)

	// Empty cache.
	assert.Equal(t, 0, f.cache.Prune())
	assert.Equal(t, 0, f.cache.Size())

	// All live.
	a := mustGet(t, f.cache, "a")
	b := mustGet(t, f.cache, "b")
	assert.Equal(t, 0, f.cache.Prune())
	assert.Equal(t, 2, f.cache.Size())

	// All expired.
	a.Release()
	b.Release()
	assert.Equal(t, 2, f.cache.Prune())
	assert.Equal(t, 0, f.cache.Size())
	assert.Equal(t, int64(2), f.metrics.pruned.Load())
}

func TestPruneIdempotent(t *testing.T) {
	f := newTestCache(1)

	for _, id := range []string{"a", "b", "c"} {
		mustGet(t, f.cache, id).Release()
	}
	keep := mustGet(t, f.cache, "d")
	defer keep.Release()

	f.cache.Prune()
	after := f.cache.Size()
	assert.Equal(t, 0, f.cache.Prune())
	assert.Equal(t, after, f.cache.Size())

	sort.Strings(f.obs.pruned)
	assert.Equal(t, []string{"a", "b", "c"}, f.obs.pruned)
}

func TestHeldHandleSurvivesPrune(t *testing.T) {
	f := newTestCache(1)

	h := mustGet(t, f.cache, "a")
	f.cache.Prune()

	assert.Equal(t, 0, f.obs.destroyedCount("a"))
	assert.Equal(t, []byte{'a', 0xFF}, h.Resource().Data())

	h.Release()
	assert.Equal(t, 1, f.obs.destroyedCount("a"))
}

//
// ================= DESTRUCTION =================
//

func TestDestructionOrdering(t *testing.T) {
	f := newTestCache(1)

	h1 := mustGet(t, f.cache, "a")
	h2 := mustGet(t, f.cache, "a")
	h3 := h2.Clone()

	h1.Release()
	h2.Release()
	assert.Equal(t, 0, f.obs.destroyedCount("a"))

	h3.Release()
	assert.Equal(t, 1, f.obs.destroyedCount("a"))

	// Expiry alone never removes the entry or fires the hook again.
	f.cache.Prune()
	assert.Equal(t, 1, f.obs.destroyedCount("a"))
	assert.Equal(t, 1, f.obs.createdCount("a"))
}

//
// ================= LOAD FAILURE =================
//

func TestLoadFailureInstallsNothing(t *testing.T) {
	f := newTestCache(1)
	f.loader.fail.Store(true)

	h, err := f.cache.Get(context.Background(), "a")
	assert.Nil(t, h)

	// Releasing the nil handle of a failed Get is harmless.
	assert.NotPanics(t, h.Release)

	var le *types.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "a", le.ID)
	assert.ErrorIs(t, err, errUpstream)

	assert.Equal(t, 0, f.cache.Size())
	assert.Equal(t, int64(1), f.metrics.failures.Load())
}

func TestLoadFailureLeavesStaleEntry(t *testing.T) {
	f := newTestCache(1)

	mustGet(t, f.cache, "a").Release()
	require.Equal(t, 1, f.cache.Size())

	f.loader.fail.Store(true)
	_, err := f.cache.Get(context.Background(), "a")
	require.Error(t, err)

	// The stale entry is still there, so Prune can find it...
	assert.Equal(t, 1, f.cache.Size())

	// ...and the next Get retries the load.
	f.loader.fail.Store(false)
	h := mustGet(t, f.cache, "a")
	defer h.Release()

	assert.Equal(t, int64(3), f.loader.calls.Load())
	assert.Equal(t, 1, f.cache.Size())
}

func TestGetWithCancelledContext(t *testing.T) {
	f := newTestCache(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.cache.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.cache.Size())
	assert.Equal(t, int64(0), f.loader.calls.Load())
}

//
// ================= WALKTHROUGH =================
//

func TestWalkthrough(t *testing.T) {
	f := newTestCache(1)

	a1 := mustGet(t, f.cache, "asset1")
	a2 := mustGet(t, f.cache, "asset1")
	assert.True(t, a1.Same(a2))
	assert.Equal(t, 1, f.cache.Size())

	b := mustGet(t, f.cache, "asset2")
	assert.Equal(t, 2, f.cache.Size())

	a1.Release()
	a2.Release()
	b.Release()
	assert.Equal(t, 2, f.cache.Size())

	f.cache.Prune()
	assert.Equal(t, 0, f.cache.Size())

	a3 := mustGet(t, f.cache, "asset1")
	defer a3.Release()
	assert.Equal(t, 1, f.cache.Size())
	assert.Equal(t, 2, f.obs.createdCount("asset1"))
}

//
// ================= CONCURRENCY TEST =================
//

func TestConcurrentGet(t *testing.T) {
	f := newTestCache(4)

	keep := mustGet(t, f.cache, "key")
	defer keep.Release()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := f.cache.Get(context.Background(), "key")
			if !assert.NoError(t, err) {
				return
			}
			defer h.Release()
			assert.True(t, h.Same(keep))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), f.loader.calls.Load())
}

func TestConcurrentMissesShareInstance(t *testing.T) {
	f := newTestCache(4)

	const n = 20
	handles := make([]*resource.Handle, n)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			h, err := f.cache.Get(context.Background(), "cold")
			if assert.NoError(t, err) {
				handles[i] = h
			}
		}(i)
	}
	close(start)
	wg.Wait()

	// Every handle is still held, so all of them must share one instance.
	for _, h := range handles[1:] {
		assert.True(t, handles[0].Same(h))
	}
	assert.Equal(t, 1, f.obs.createdCount("cold"))
	assert.Equal(t, 1, f.cache.Size())

	// One call installed the resource; every other call got it as a hit.
	assert.Equal(t, int64(1), f.metrics.misses.Load())
	assert.Equal(t, int64(n-1), f.metrics.hits.Load())

	for _, h := range handles {
		h.Release()
	}
	assert.Equal(t, 1, f.obs.destroyedCount("cold"))
}

func TestSharedLoadSurvivesOtherCallerCancel(t *testing.T) {
	var calls atomic.Int64
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	ld := types.LoaderFunc(func(ctx context.Context, id string) ([]byte, error) {
		calls.Add(1)
		once.Do(func() { close(entered) })
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return loader.Placeholder.Load(ctx, id)
	})
	c := cache.NewResourceCache(1, engine.NewCacheEngine(ld, nil, nil))

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		h, err := c.Get(ctxA, "x")
		h.Release()
		errA <- err
	}()
	<-entered

	type result struct {
		h   *resource.Handle
		err error
	}
	resB := make(chan result, 1)
	go func() {
		h, err := c.Get(context.Background(), "x")
		resB <- result{h, err}
	}()

	// Give B time to join the load A started, then cancel A.
	time.Sleep(20 * time.Millisecond)
	cancelA()

	err := <-errA
	var le *types.LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)

	b := <-resB
	require.NoError(t, b.err)
	defer b.h.Release()

	assert.Equal(t, []byte{'x', 0xFF}, b.h.Resource().Data())
	assert.Equal(t, 1, c.Size())
	assert.Equal(t, int64(1), calls.Load())
}
