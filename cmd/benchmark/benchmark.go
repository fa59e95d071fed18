package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	cache "github.com/krisalay/resource-cache"
	"github.com/krisalay/resource-cache/engine"
	"github.com/krisalay/resource-cache/resource"
)

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	// ---------------- Cache Config ----------------
	const (
		shards     = 8
		pinnedKeys = 100000
		coldKeys   = 1000
		goroutines = 200
		opsPerG    = 5000
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", shards)
	fmt.Println("Pinned Keys  :", pinnedKeys)
	fmt.Println("Cold Keys    :", coldKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	c := cache.NewResourceCache(shards, engine.NewCacheEngine(nil, nil, nil))

	// ---------------- Pin resources ----------------
	// Held handles keep these resources alive, so Gets for them are hits.
	fmt.Println("Pinning resources...")
	pinned := make([]*resource.Handle, 0, pinnedKeys)
	var pinnedBytes uint64
	for i := 0; i < pinnedKeys; i++ {
		h, err := c.Get(ctx, fmt.Sprintf("key-%d", i))
		if err != nil {
			fmt.Println("pin failed:", err)
			return
		}
		pinnedBytes += uint64(h.Resource().Len())
		pinned = append(pinned, h)
	}
	fmt.Printf("Pinned %d resources (%s).\n", len(pinned), humanize.Bytes(pinnedBytes))

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				key := fmt.Sprintf("key-%d", j%pinnedKeys)
				if j%10 == 0 {
					// Unpinned ids: loaded, released, then reloaded later.
					key = fmt.Sprintf("cold-%d", (id+j)%coldKeys)
				}
				if h, err := c.Get(ctx, key); err == nil {
					h.Release()
				}
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	sizeBefore := c.Size()
	pruneStart := time.Now()
	removed := c.Prune()
	pruneTime := time.Since(pruneStart)

	for _, h := range pinned {
		h.Release()
	}

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Entries          : %d\n", sizeBefore)
	fmt.Printf("Pruned           : %d in %v\n", removed, pruneTime)
	fmt.Println("=========================================")
}
