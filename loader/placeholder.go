// This file provides the stand-in loader used when no real asset source is wired in.

package loader

import (
	"context"

	"github.com/krisalay/resource-cache/types"
)

// Sentinel is the byte appended to every placeholder payload.
const Sentinel byte = 0xFF

/*
Placeholder simulates loading a resource: the payload is the bytes of the
id followed by Sentinel. It is deterministic, never fails and keeps no
state, so reloading an id after expiry yields an identical payload.

A real program would read from disk or the network here instead.
*/
var Placeholder types.Loader = types.LoaderFunc(placeholder)

func placeholder(_ context.Context, id string) ([]byte, error) {
	b := make([]byte, 0, len(id)+1)
	b = append(b, id...)
	b = append(b, Sentinel)
	return b, nil
}
