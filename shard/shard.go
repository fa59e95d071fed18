package shard

import "sync"

/*
This file defines what a "Shard" is. A shard is a small, independent piece of the cache.
Instead of having: One big map and one big lock
We split the mapping into many shards. Each shard:
- Holds the entries for a portion of the ids
- Has its own lock for writes

With a single shard this degenerates to one map guarded by one lock,
which is all a single-threaded caller ever needs.
*/

type Shard struct {

	// Store holds the id → weak reference entries for this shard.
	// It is a copy-on-write store that allows lock-free reads.
	Store ShardStore

	// Mu serializes writers of this shard (install after load, prune).
	// - Reads are lock-free
	// - Writes are protected by this mutex
	Mu sync.Mutex
}

func NewShard() *Shard {
	return &Shard{
		Store: NewCOWStore(),
	}
}
