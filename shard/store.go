package shard

import (
	"sync/atomic"

	"github.com/krisalay/resource-cache/resource"
)

/*
This file defines how entries are actually stored inside a shard. This is NOT a normal map.
- Reads should be very fast
- Reads should NOT require locks
- Writes are less frequent and can afford extra work

To achieve this, we use a technique called: "Copy-On-Write" (COW)

Entries are weak references. The store never keeps a resource alive;
an entry whose resource was destroyed stays here until DeleteFunc removes it.
*/

// ShardStore is the interface used by a shard to store and retrieve entries.
type ShardStore interface {

	// Get retrieves an entry by id.
	Get(string) (resource.Weak, bool)

	// Put inserts or replaces an entry.
	Put(string, resource.Weak)

	// DeleteFunc removes every entry for which fn returns true and
	// returns the removed ids.
	DeleteFunc(fn func(string, resource.Weak) bool) []string

	// Size returns how many entries are stored, live or expired.
	Size() int64
}

/*
cowStore is a Copy-On-Write implementation of ShardStore.

What "copy-on-write" means:
---------------------------
- Readers always see an immutable snapshot
- Writers create a NEW copy of the map
- The new map replaces the old one atomically

This gives us:
--------------
  - Lock-free reads
  - Removal during a scan for free: DeleteFunc walks the old snapshot and
    builds the new map, so nothing is skipped or visited twice
*/
type cowStore struct {

	// data holds the actual map[string]resource.Weak.
	data atomic.Value

	// size tracks the number of entries. We keep this separate so we don't need to count map entries every time.
	size atomic.Int64
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	s.data.Store(make(map[string]resource.Weak))
	return s
}

func (s *cowStore) load() map[string]resource.Weak {
	return s.data.Load().(map[string]resource.Weak)
}

func (s *cowStore) swap(m map[string]resource.Weak) {
	s.data.Store(m)
	s.size.Store(int64(len(m)))
}

// Get retrieves an entry from the store.
func (s *cowStore) Get(id string) (resource.Weak, bool) {
	w, ok := s.load()[id]
	return w, ok
}

/*
Put inserts or overwrites an entry in the store. This is where copy-on-write happens.

1. Load the current map
2. Create a NEW map
3. Copy all existing entries
4. Add the new entry
5. Atomically replace the old map
*/
func (s *cowStore) Put(id string, w resource.Weak) {
	old := s.load()

	n := make(map[string]resource.Weak, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[id] = w

	s.swap(n)
}

/*
DeleteFunc filters the store in a single pass over the current snapshot.
If nothing matches, the snapshot is kept as is.
*/
func (s *cowStore) DeleteFunc(fn func(string, resource.Weak) bool) []string {
	old := s.load()

	var removed []string
	n := make(map[string]resource.Weak, len(old))
	for k, v := range old {
		if fn(k, v) {
			removed = append(removed, k)
			continue
		}
		n[k] = v
	}

	if len(removed) > 0 {
		s.swap(n)
	}
	return removed
}

// Size returns how many entries are in the store.
func (s *cowStore) Size() int64 {
	return s.size.Load()
}
