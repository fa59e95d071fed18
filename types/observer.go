package types

/*
Observer receives diagnostic records about resources and the cache.

Records are purely informational: the cache behaves the same whether
anyone listens or not. Implementations must be fast and must not call
back into the cache.
*/
type Observer interface {

	// Created fires once when a Resource is constructed.
	Created(id string, size int)

	// Destroyed fires once when the last handle to a Resource is released.
	Destroyed(id string, size int)

	// Hit fires when Get returns an already live resource.
	Hit(id string)

	// Miss fires when Get finds no entry for id.
	Miss(id string)

	// Expired fires when Get finds an entry whose resource is gone and reloads it.
	Expired(id string)

	// Pruned fires for every expired entry Prune removes.
	Pruned(id string)

	// LoadFailed fires when the loader could not produce a payload.
	LoadFailed(id string, err error)
}

// NoopObserver discards every record.
type NoopObserver struct{}

func (NoopObserver) Created(string, int)      {}
func (NoopObserver) Destroyed(string, int)    {}
func (NoopObserver) Hit(string)               {}
func (NoopObserver) Miss(string)              {}
func (NoopObserver) Expired(string)           {}
func (NoopObserver) Pruned(string)            {}
func (NoopObserver) LoadFailed(string, error) {}
