package resource

import (
	"sync/atomic"

	"github.com/krisalay/resource-cache/types"
)

/*
Resource is one loaded asset: an id and an immutable byte payload.
In a real program this might be a texture, a sound, or a parsed config file.

A Resource is never owned by the cache. It is owned jointly by every
outstanding Handle and is destroyed when the last one is released.
Only handles may be duplicated; the Resource itself must not be copied.
*/
type Resource struct {
	id   string
	data []byte

	// refs is the number of live owning handles. Once it reaches zero it
	// never rises again: Weak.Upgrade refuses to resurrect a dead resource.
	// Being an atomic, it also makes `go vet` flag by-value copies of Resource.
	refs atomic.Int64

	// size is captured at construction so Destroyed can report it after
	// the payload has been dropped.
	size int

	obs types.Observer
}

// New constructs a Resource and returns the first owning handle to it.
// obs may be nil.
func New(id string, data []byte, obs types.Observer) *Handle {
	if obs == nil {
		obs = types.NoopObserver{}
	}

	r := &Resource{
		id:   id,
		data: data,
		size: len(data),
		obs:  obs,
	}
	r.refs.Store(1)

	obs.Created(id, r.size)

	return &Handle{res: r}
}

// ID returns the identifier the resource was loaded under.
func (r *Resource) ID() string {
	return r.id
}

// Data returns a copy of the payload, so callers cannot mutate the shared asset.
func (r *Resource) Data() []byte {
	if r.data == nil {
		return nil
	}
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// Len returns the payload size in bytes.
func (r *Resource) Len() int {
	return r.size
}

// acquire adds an owner unless the resource is already destroyed.
func (r *Resource) acquire() bool {
	for {
		n := r.refs.Load()
		if n <= 0 {
			return false
		}
		if r.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops an owner and tears the resource down when it was the last one.
func (r *Resource) release() {
	if r.refs.Add(-1) != 0 {
		return
	}
	r.data = nil
	r.obs.Destroyed(r.id, r.size)
}

func (r *Resource) alive() bool {
	return r.refs.Load() > 0
}
