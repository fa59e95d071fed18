package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/krisalay/resource-cache/loader"
	"github.com/krisalay/resource-cache/resource"
	"github.com/krisalay/resource-cache/types"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- How data is loaded when no live resource exists
- How load failures are reported
- How resources are built and who hears about their lifecycle
- How metrics are recorded

It does NOT:
- Store the id → resource mapping
- Handle sharding
- Handle locking
*/
type CacheEngine struct {

	// Loader is how the cache talks to the outside world when it does NOT have a live resource.
	// This can be a file read, a network fetch, or anything that turns an id into bytes.
	Loader types.Loader

	// Metrics is how we count what the cache is doing.
	// Hits, misses, expirations, prunes, load failures.
	Metrics types.Metrics

	// Observer receives diagnostic records: resource created/destroyed,
	// cache hits, reloads and pruned entries.
	Observer types.Observer
}

/*
NewCacheEngine creates a CacheEngine.

Any nil argument is replaced by its default:
- loader   → loader.Placeholder
- metrics  → types.NoopMetrics
- observer → types.NoopObserver
*/
func NewCacheEngine(
	ld types.Loader,
	metrics types.Metrics,
	observer types.Observer,
) *CacheEngine {

	if ld == nil {
		ld = loader.Placeholder
	}

	// Ensure metrics and observer are always non-nil
	// This avoids nil checks throughout the codebase
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if observer == nil {
		observer = types.NoopObserver{}
	}

	return &CacheEngine{
		Loader:   ld,
		Metrics:  metrics,
		Observer: observer,
	}
}

/*
Load is used when the cache does NOT have a live resource.

Every failure comes back as a *types.LoadError, including a context that
was already cancelled before the loader ran.
*/
func (e *CacheEngine) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, e.Fail(id, err)
	}

	data, err := e.Loader.Load(ctx, id)
	if err != nil {
		return nil, e.Fail(id, errors.WithStack(err))
	}
	return data, nil
}

/*
Build wraps a loaded payload into a new Resource and returns the first
handle to it. The engine's observer is attached to the resource so its
creation and destruction are reported.
*/
func (e *CacheEngine) Build(id string, data []byte) *resource.Handle {
	return resource.New(id, data, e.Observer)
}

// Fail records a load failure for id and wraps err in a *types.LoadError.
func (e *CacheEngine) Fail(id string, err error) error {
	e.Metrics.LoadFailure()
	e.Observer.LoadFailed(id, err)
	return &types.LoadError{ID: id, Err: err}
}
