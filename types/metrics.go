package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to count.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when Get hands out a handle to a resource that is still alive,
	// including one another caller installed while this call was loading.
	Hit()

	// Miss is called when Get installs a freshly loaded resource.
	// A successful Get records exactly one of Hit or Miss.
	Miss()

	// Expire is called when Get finds an entry whose resource was already destroyed.
	Expire()

	// Prune is called once for every expired entry removed by Prune.
	Prune()

	// LoadFailure is called when the loader returns an error.
	LoadFailure()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

The cache engine swaps a nil Metrics for this one, so the rest of the
code never has to check for nil before recording an event.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()         {}
func (NoopMetrics) Miss()        {}
func (NoopMetrics) Expire()      {}
func (NoopMetrics) Prune()       {}
func (NoopMetrics) LoadFailure() {}
