package types

import "context"

// Loader is the contract between the cache and wherever asset bytes come from.
type Loader interface {

	/*
		Load is called when the cache cannot hand out a live resource for id.
		1. Cache checks its mapping → id missing, or its resource already destroyed
		2. Cache calls Load(id)
		3. Loader produces the payload (disk, network, generator...)
		4. Cache wraps the payload in a new Resource and remembers it weakly
		5. Cache returns a handle to the caller

		Load must not keep references to resources it helped build.
		A non-nil error means nothing gets installed in the cache.
	*/
	Load(ctx context.Context, id string) ([]byte, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, id string) ([]byte, error)

func (f LoaderFunc) Load(ctx context.Context, id string) ([]byte, error) {
	return f(ctx, id)
}
