// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/pgheap/pgheap/cmn/cos"
	"github.com/pgheap/pgheap/cmn/debug"
	"github.com/pgheap/pgheap/hk"
	"github.com/pgheap/pgheap/sys"
)

const hkIvalDflt = time.Minute

// SystemHeap is the tiered allocator: one page pool per configured
// (order, cache mode), largest-first order selection with fallback to the
// system source, per-cache-mode background refillers, and a shrinker for
// global memory pressure. A single long-lived instance owns its pools and
// workers and joins the workers on Close.
type SystemHeap struct {
	name     string
	config   Config
	pageSize int64
	orders   []int // descending

	// pools parallel the orders slice
	uncached []*pagePool
	cached   []*pagePool

	source  Source
	flusher Flusher

	refillers [numCacheModes]*refiller
	hk        *hk.Housekeeper

	totalRAMPages uint64
	minFree       uint64
	lowWM         uint64
	swap          struct {
		size atomic.Uint64
		crit atomic.Int32
	}
	stopped atomic.Bool
}

// New constructs and starts a SystemHeap per the given configuration
// (environment overrides applied on top - see config.go).
func New(c *Config) (*SystemHeap, error) {
	var conf Config
	if c != nil {
		conf = *c
	}
	if err := conf.env(); err != nil {
		return nil, err
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	h := &SystemHeap{
		name:     conf.Name,
		config:   conf,
		pageSize: conf.PageSize,
		orders:   conf.Orders,
		source:   conf.Source,
		flusher:  conf.Flusher,
		hk:       conf.HK,
	}

	h.initWatermarks()

	h.uncached = make([]*pagePool, len(h.orders))
	h.cached = make([]*pagePool, len(h.orders))
	for i, o := range h.orders {
		h.uncached[i] = newPagePool(o, false, conf.PoolLowWM)
		h.cached[i] = newPagePool(o, true, conf.PoolLowWM)
	}

	if conf.AutoRefill {
		h.refillers[Uncached] = newRefiller(h, Uncached, h.uncached)
		h.refillers[Cached] = newRefiller(h, Cached, h.cached)
		for _, r := range h.refillers {
			if err := r.start(); err != nil {
				h.stopRefillers()
				return nil, fmt.Errorf("%w: %v", ErrWorkerCreation, err)
			}
		}
	}

	if h.hk != nil {
		ival := conf.HkIval
		if ival == 0 {
			ival = hkIvalDflt
		}
		h.hk.Reg(h.name+".gc", h.housekeep, ival)
	}
	glog.Infof("%s started %s", h.name, h.Str())
	return h, nil
}

// initWatermarks computes min-free memory (must remain available at all
// times) and the free-memory low watermark from the host stats.
func (h *SystemHeap) initWatermarks() {
	mem, err := sys.Mem()
	if err != nil {
		glog.Warningf("%s: cannot read host memory stats: %v", h.name, err)
		return
	}
	h.totalRAMPages = mem.Total / uint64(h.pageSize)
	h.minFree = h.config.MinFree
	if h.config.MinPctTotal > 0 {
		x := mem.Total * uint64(h.config.MinPctTotal) / 100
		if h.minFree == 0 {
			h.minFree = x
		} else {
			h.minFree = min(h.minFree, x)
		}
	}
	if h.config.MinPctFree > 0 {
		x := mem.ActualFree * uint64(h.config.MinPctFree) / 100
		if h.minFree == 0 {
			h.minFree = x
		} else {
			h.minFree = min(h.minFree, x)
		}
	}
	if h.minFree == 0 {
		h.minFree = mem.Total / 10
	}
	h.lowWM = max(h.minFree*2, (h.minFree+mem.ActualFree)/2) // hysteresis
	h.swap.size.Store(mem.SwapUsed)
}

func (h *SystemHeap) Name() string { return h.name }

func (h *SystemHeap) Str() string {
	return fmt.Sprintf("(min-free %s, low-wm %s, ceiling %d pages)",
		cos.ToSizeIEC(int64(h.minFree), 0), cos.ToSizeIEC(int64(h.lowWM), 0), h.config.MaxPooledPages)
}

func (h *SystemHeap) orderSize(order int) int64 { return h.pageSize << order }

func (h *SystemHeap) poolFor(order int, cached bool) *pagePool {
	for i, o := range h.orders {
		if o != order {
			continue
		}
		if cached {
			return h.cached[i]
		}
		return h.uncached[i]
	}
	debug.Assertf(false, "no pool for order %d", order)
	return nil
}

// PooledPages returns the total page count currently held across all
// pools combined (point-in-time, per-pool consistency only).
func (h *SystemHeap) PooledPages() (n int) {
	for i := range h.orders {
		mult := 1 << h.orders[i]
		n += h.uncached[i].total() * mult
		n += h.cached[i].total() * mult
	}
	return n
}

// Allocate assembles a Buffer of at least size bytes from pooled and, on
// pool misses, system pages - largest fitting order first. Any failure
// partway unwinds completely; no partial buffers escape.
func (h *SystemHeap) Allocate(size, align int64, mode CacheMode, flags Flag) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("heap: invalid size %d", size)
	}
	if align > h.pageSize {
		return nil, ErrInvalidAlignment
	}
	// coarse anti-runaway guard, not a precise accounting check
	if h.totalRAMPages > 0 && uint64(size)/uint64(h.pageSize) > h.totalRAMPages/2 {
		return nil, ErrOutOfMemory
	}
	var (
		remaining    = cos.CeilAlign(size, h.pageSize)
		maxOrder     = h.orders[0]
		zero         = flags&FlagNoZero == 0
		pendingClean int64
		b            = &Buffer{h: h, size: size, length: remaining, mode: mode, flags: flags}
	)
	for remaining > 0 {
		pg := h.allocLargest(remaining, maxOrder, mode, zero)
		if pg == nil {
			h.unwind(b)
			return nil, ErrOutOfMemory
		}
		b.pages = append(b.pages, pg)
		remaining -= h.orderSize(pg.order)
		// never request a larger chunk than the one just obtained
		maxOrder = pg.order
		if mode == Cached && pg.fromSystem {
			pendingClean += int64(1) << pg.order
		}
	}
	b.assemble(pendingClean)
	if glog.V(4) {
		glog.Infof("%s: alloc %s/%s %s in %d chunk(s)", h.name,
			cos.ToSizeIEC(size, 0), cos.ToSizeIEC(b.length, 0), mode, len(b.pages))
	}
	return b, nil
}

// allocLargest returns one page of the largest configured order that
// still fits, or nil when the system source failed at every order.
func (h *SystemHeap) allocLargest(remaining int64, maxOrder int, mode CacheMode, zero bool) *Page {
	for _, o := range h.orders {
		if h.orderSize(o) > remaining {
			continue
		}
		if o > maxOrder {
			continue
		}
		if pg := h.allocPage(o, mode, zero); pg != nil {
			return pg
		}
	}
	return nil
}

// allocPage tries the pool first; on a miss it falls back to a direct
// system allocation of the same order. A below-watermark pool posts a
// wake to its cache mode's refiller (order > 0 pools only).
func (h *SystemHeap) allocPage(order int, mode CacheMode, zero bool) *Page {
	pool := h.poolFor(order, mode == Cached)
	pg := pool.acquire()
	if h.config.AutoRefill && pool.belowLowWM() {
		h.refillers[mode].wakeUp()
	}
	if pg != nil {
		return pg
	}
	pg, err := h.source.Alloc(order, zero)
	if err != nil {
		if glog.V(4) {
			glog.Infof("%s: system alloc order=%d failed: %v", h.name, order, err)
		}
		return nil
	}
	pg.cached = mode == Cached
	pg.fromSystem = true
	return pg
}

// unwind returns every already-acquired page through the regular
// pool-recycling path before the allocation error propagates.
func (h *SystemHeap) unwind(b *Buffer) {
	for _, pg := range b.pages {
		h.freePage(pg, b.mode, false /*syncForce*/, false /*direct*/)
	}
	b.pages = nil
}

// Free destroys the buffer, recycling or releasing every backing page.
// When the global pooled-page count exceeds the configured ceiling, the
// buffer's pages bypass the pools and return straight to the system.
func (h *SystemHeap) Free(b *Buffer) {
	if b == nil || len(b.pages) == 0 {
		return
	}
	if b.contig {
		h.freeContig(b)
		return
	}
	// route to direct system return when pooling this buffer would push
	// the global pooled-page count past the ceiling
	direct := h.PooledPages()+int(b.length/h.pageSize) > h.config.MaxPooledPages
	// zero once here so that pool pages are clean at insertion
	if !direct && b.flags&FlagNoZero == 0 {
		b.Zero()
	}
	for _, pg := range b.pages {
		h.freePage(pg, b.mode, b.flags&FlagSyncForce != 0, direct)
	}
	b.pages, b.extents = nil, nil
}

func (h *SystemHeap) freePage(pg *Page, mode CacheMode, syncForce, direct bool) {
	if direct {
		h.source.Free(pg)
		return
	}
	cached := mode == Cached
	if cached && syncForce {
		h.flusher.FlushRange(pg.addr, h.orderSize(pg.order))
		cached = false
	}
	h.poolFor(pg.order, cached).release(pg)
}

func (h *SystemHeap) stopRefillers() {
	for _, r := range h.refillers {
		if r != nil {
			r.stop()
		}
	}
}

// Close stops and joins the refill workers, unregisters housekeeping, and
// drains all pools back to the system.
func (h *SystemHeap) Close() {
	if !h.stopped.CompareAndSwap(false, true) {
		return
	}
	if h.hk != nil {
		h.hk.Unreg(h.name + ".gc")
	}
	h.stopRefillers()
	var drained int
	for i := range h.orders {
		drained += h.uncached[i].shrink(math.MaxInt32, false, h.source)
		drained += h.cached[i].shrink(math.MaxInt32, false, h.source)
	}
	glog.Infof("%s terminated (drained %d pooled pages)", h.name, drained)
}
