// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"sync"

	"github.com/pgheap/pgheap/cmn/debug"
	"go.uber.org/atomic"
)

// pagePool is a free list of same-order, same-cache-mode pages. Two
// sub-lists: recycled pages land on the low list and are evicted first;
// refilled (pristine) pages land on the high list and are evicted last.
// Every pooled page is clean at insertion time; the pool never re-zeroes
// on acquire.
//
// The pool mutex is never held across a system alloc or free call.
type pagePool struct {
	order  int
	cached bool
	lowWM  int

	mu   sync.Mutex
	low  []*Page
	high []*Page

	hits    atomic.Int64
	misses  atomic.Int64
	evicted atomic.Int64
}

func newPagePool(order int, cached bool, lowWM int) *pagePool {
	return &pagePool{order: order, cached: cached, lowWM: lowWM}
}

// acquire pops one page, low list first, or nil when the pool is empty
// (caller falls back to the system source).
func (p *pagePool) acquire() (pg *Page) {
	p.mu.Lock()
	if n := len(p.low); n > 0 {
		pg, p.low = p.low[n-1], p.low[:n-1]
	} else if n := len(p.high); n > 0 {
		pg, p.high = p.high[n-1], p.high[:n-1]
	}
	p.mu.Unlock()

	if pg == nil {
		p.misses.Inc()
		return nil
	}
	debug.Assert(pg.order == p.order && pg.cached == p.cached)
	pg.fromSystem = false
	p.hits.Inc()
	return pg
}

// release recycles a page onto the low list; the page must already be
// clean (zeroed by the buffer-free path or fresh from the system).
func (p *pagePool) release(pg *Page) {
	debug.Assert(pg.order == p.order)
	pg.cached = p.cached
	pg.fromSystem = false
	p.mu.Lock()
	p.low = append(p.low, pg)
	p.mu.Unlock()
}

// insertFresh admits a system-allocated, pre-zeroed page onto the high
// list (refill path, bypassing the Buffer path).
func (p *pagePool) insertFresh(pg *Page) {
	debug.Assert(pg.order == p.order)
	pg.cached = p.cached
	pg.fromSystem = false
	p.mu.Lock()
	p.high = append(p.high, pg)
	p.mu.Unlock()
}

func (p *pagePool) total() (n int) {
	p.mu.Lock()
	n = len(p.low) + len(p.high)
	p.mu.Unlock()
	return n
}

func (p *pagePool) counts() (low, high int) {
	p.mu.Lock()
	low, high = len(p.low), len(p.high)
	p.mu.Unlock()
	return low, high
}

// belowLowWM reports whether occupancy dropped below the refill watermark.
// Order-0 pools are never auto-refilled: single pages are cheap to get
// from the system directly.
func (p *pagePool) belowLowWM() bool {
	if p.order == 0 {
		return false
	}
	return p.total() < p.lowWM
}

// shrink evicts up to target base pages (low list before high list) back
// to the system and returns the page count evicted; a chunk of this
// pool's order counts as 1 << order pages. With onlyScan it returns the
// current evictable page count without mutating. Victims are collected
// under the pool lock and freed to the source outside of it.
func (p *pagePool) shrink(target int, onlyScan bool, source Source) int {
	if onlyScan {
		return p.total() << p.order
	}
	if target <= 0 {
		return 0
	}
	var victims []*Page
	p.mu.Lock()
	for target > 0 && len(p.low) > 0 {
		n := len(p.low)
		victims = append(victims, p.low[n-1])
		p.low = p.low[:n-1]
		target -= 1 << p.order
	}
	for target > 0 && len(p.high) > 0 {
		n := len(p.high)
		victims = append(victims, p.high[n-1])
		p.high = p.high[:n-1]
		target -= 1 << p.order
	}
	p.mu.Unlock()

	for _, pg := range victims {
		source.Free(pg)
	}
	freed := len(victims) << p.order
	p.evicted.Add(int64(freed))
	return freed
}
