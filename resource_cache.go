package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/resource-cache/api"
	"github.com/krisalay/resource-cache/engine"
	"github.com/krisalay/resource-cache/resource"
	"github.com/krisalay/resource-cache/shard"
)

var _ api.Cache = (*ResourceCache)(nil)

/*
ResourceCache is the main cache implementation.
This struct is the orchestrator that connects:
- shards (the id → weak reference mapping)
- loading
- metrics and diagnostics

The cache never owns a resource. Callers own the handles Get returns;
the cache only remembers, weakly, what it handed out.
*/
type ResourceCache struct {
	// shards are the actual storage units. Each shard holds the entries for a subset of ids.
	shards []*shard.Shard

	// engine contains the "rules" of the cache: loader, metrics, observer.
	engine *engine.CacheEngine

	// selector decides which shard an id goes to.
	selector shard.Selector

	// singleflight makes concurrent misses for one id share a single loader call.
	sf singleflight.Group
}

/*
NewResourceCache creates a cache split into the given number of shards.
shards <= 0 means a single shard. A nil engine gets all defaults.
*/
func NewResourceCache(shards int, eng *engine.CacheEngine) *ResourceCache {
	if shards <= 0 {
		shards = 1
	}
	if eng == nil {
		eng = engine.NewCacheEngine(nil, nil, nil)
	}

	s := make([]*shard.Shard, shards)
	for i := range s {
		s[i] = shard.NewShard()
	}

	return &ResourceCache{
		shards:   s,
		engine:   eng,
		selector: shard.HashSelector{},
	}
}

/*
Get returns a handle to the resource for id, loading it if needed.

1. Entry present and its resource alive → new handle to the SAME instance
2. Entry present but its resource destroyed → reload
3. No entry → load

The caller owns the returned handle and must Release it.
On a load failure nothing in the mapping changes.
*/
func (c *ResourceCache) Get(ctx context.Context, id string) (*resource.Handle, error) {
	sh := c.selector.Select(id, c.shards)

	if w, ok := sh.Store.Get(id); ok {
		if h, ok := w.Upgrade(); ok {
			c.engine.Metrics.Hit()
			c.engine.Observer.Hit(id)
			return h, nil
		}
		c.engine.Metrics.Expire()
		c.engine.Observer.Expired(id)
	} else {
		c.engine.Observer.Miss(id)
	}

	// Callers joined on one load must not inherit each other's cancellation,
	// so the shared load ignores cancel and each caller waits on its own ctx.
	if err := ctx.Err(); err != nil {
		return nil, c.engine.Fail(id, err)
	}

	ch := c.sf.DoChan(id, func() (any, error) {
		return c.engine.Load(context.WithoutCancel(ctx), id)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, c.engine.Fail(id, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	data := res.Val.([]byte)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	// Another goroutine may have installed a live resource while we were loading.
	if w, ok := sh.Store.Get(id); ok {
		if h, ok := w.Upgrade(); ok {
			c.engine.Metrics.Hit()
			c.engine.Observer.Hit(id)
			return h, nil
		}
	}

	c.engine.Metrics.Miss()
	h := c.engine.Build(id, data)
	sh.Store.Put(id, h.Weak())

	return h, nil
}

/*
Prune removes every entry whose resource has been destroyed and returns
how many it removed. Entries for live resources are left alone.
*/
func (c *ResourceCache) Prune() int {
	removed := 0

	for _, sh := range c.shards {
		sh.Mu.Lock()
		ids := sh.Store.DeleteFunc(func(_ string, w resource.Weak) bool {
			return w.Expired()
		})
		sh.Mu.Unlock()

		for _, id := range ids {
			c.engine.Metrics.Prune()
			c.engine.Observer.Pruned(id)
		}
		removed += len(ids)
	}

	return removed
}

/*
Size returns the number of entries, live or expired.
It measures bookkeeping, not live resources: an entry only goes away through Prune.
*/
func (c *ResourceCache) Size() int {
	n := int64(0)
	for _, sh := range c.shards {
		n += sh.Store.Size()
	}
	return int(n)
}
