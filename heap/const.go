// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

// CacheMode tags pages and buffers as mapped cached or uncached. Pools are
// partitioned by this tag: cache state is a page attribute that must match
// on reuse.
type CacheMode int

const (
	Uncached CacheMode = iota
	Cached
	numCacheModes
)

func (m CacheMode) String() string {
	if m == Cached {
		return "cached"
	}
	return "uncached"
}

// Flag holds per-allocation options.
type Flag uint64

const (
	// FlagNoZero skips zeroing the buffer contents on free; the next owner
	// of the recycled pages may observe previous contents.
	FlagNoZero Flag = 1 << iota
	// FlagSyncForce flushes cached pages on free and recycles them through
	// the uncached pools.
	FlagSyncForce
)

const (
	// DfltPageSize is the base page size.
	DfltPageSize = 4096
	// DfltMaxPooledPages caps the total page count held across all pools
	// combined; beyond it freed pages bypass pooling.
	DfltMaxPooledPages = 24300
	// DfltPoolLowWM is the per-pool occupancy below which a refill is
	// requested (order > 0 pools only).
	DfltPoolLowWM = 1
)

// maxPageOrder bounds configured pool orders and contiguous chunk orders.
const maxPageOrder = 20

// DfltOrders is the default two-tier order set: 16-page superpages tried
// first, single pages last. Must stay sorted in descending order.
var DfltOrders = []int{4, 0}
