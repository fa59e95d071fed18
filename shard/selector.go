package shard

import "github.com/cespare/xxhash/v2"

/*
This file decides HOW an id is assigned to a shard.
If every request went to the same shard, that shard's lock would become a bottleneck.
*/

/*
Selector is the interface that decides which shard should handle a given id.
The cache does not care HOW this decision is made. Different strategies can be plugged in.
The only rule: the same id must always map to the same shard.
*/
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector spreads ids over shards by their xxhash.
type HashSelector struct{}

/*
Select chooses the shard for a given id.
*/
func (HashSelector) Select(id string, shards []*Shard) *Shard {
	if len(shards) == 1 {
		return shards[0]
	}
	idx := xxhash.Sum64String(id) % uint64(len(shards))
	return shards[idx]
}
