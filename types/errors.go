package types

import "fmt"

/*
LoadError is returned by Get when the loader cannot produce bytes for an id.

When Get fails with a LoadError the cache mapping is left exactly as it was:
no entry is installed, and a stale entry for the same id stays in place
so the next Get retries the load.
*/
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load resource %q: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
