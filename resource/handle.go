package resource

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

var errReleased = errors.New("resource.Handle: Release() has already been called")

// Handle holds a reference to a Resource until Release() is called.
// Each Handle must be released exactly once; releasing it again is a no-op.
type Handle struct {
	res      *Resource
	released atomic.Bool
}

// Resource returns the resource held by the Handle.
// It panics if the handle was already released.
func (h *Handle) Resource() *Resource {
	h.mustBeLive()
	return h.res
}

// Clone returns a new owning handle to the same resource.
func (h *Handle) Clone() *Handle {
	h.mustBeLive()
	// A concurrent Release of h may drop the last reference after the check
	// above; acquire never raises a count that already reached zero.
	if !h.res.acquire() {
		panic(errReleased)
	}
	return &Handle{res: h.res}
}

// Weak returns a non-owning reference to the resource held by h.
func (h *Handle) Weak() Weak {
	h.mustBeLive()
	return Weak{res: h.res}
}

// Same reports whether h and other refer to the same Resource instance.
func (h *Handle) Same(other *Handle) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.res == other.res
}

// Release releases the resource held by the Handle, it is safe to call this repeatedly.
// Releasing a nil Handle is a no-op.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	h.res.release()
}

func (h *Handle) mustBeLive() {
	if h.released.Load() {
		panic(errReleased)
	}
}

/*
Weak observes a Resource without keeping it alive.

The zero Weak refers to nothing and is always expired.
*/
type Weak struct {
	res *Resource
}

// Upgrade returns a new owning handle if the resource is still alive.
func (w Weak) Upgrade() (*Handle, bool) {
	if w.res == nil || !w.res.acquire() {
		return nil, false
	}
	return &Handle{res: w.res}, true
}

// Expired reports whether the resource has been destroyed.
func (w Weak) Expired() bool {
	return w.res == nil || !w.res.alive()
}
