package api

import (
	"context"

	"github.com/krisalay/resource-cache/resource"
)

/*
Cache defines the PUBLIC API of the resource cache.
This is a contract that guarantees certain behaviors, without exposing internals
(sharding, loading, diagnostics).
*/
type Cache interface {

	/*
		Get returns an owning handle to the resource for id.

		BEHAVIOR:
		-------------------
		1. If some caller still holds a handle for id:
		   - Return a new handle to the SAME resource instance (cache hit)

		2. If the id is unknown, or every handle for it was released:
		   - Load the payload through the loader
		   - Build a new resource and remember it weakly
		   - Return a handle to it

		IMPORTANT:
		----------
		- The caller must Release the handle when done with it
		- A held handle keeps its resource alive whatever else happens to the cache
		- A load failure returns a *types.LoadError and leaves the cache untouched
	*/
	Get(ctx context.Context, id string) (*resource.Handle, error)

	/*
		Prune removes the entries whose resource has been destroyed.

		- Entries for live resources are never touched
		- Safe on an empty cache or one with only live entries (no-op)
		- Returns how many entries were removed
	*/
	Prune() int

	/*
		Size returns the number of entries, live or expired.

		This counts bookkeeping records, NOT live resources.
		Releasing the last handle does not change Size; only Prune does.
	*/
	Size() int
}
