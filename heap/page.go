// Package heap implements a tiered page allocator with lazy-refill pooling:
// buffers are assembled from pooled pages of descending orders, freed pages
// are recycled through per-(order, cache-mode) pools, background refillers
// keep the larger-order pools pre-filled, and a shrinker drains the pools
// back to the system under memory pressure.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"unsafe"
)

// Page is one physically-contiguous unit of size pageSize << order.
// At any point in time a page is owned by exactly one of: the system
// source, a page pool, or a Buffer.
type Page struct {
	data       []byte
	addr       uintptr
	order      int
	cached     bool
	fromSystem bool // sourced fresh from the system, not from a pool
}

// NewPage wraps backing storage handed out by a Source.
func NewPage(data []byte, addr uintptr, order int) *Page {
	return &Page{data: data, addr: addr, order: order}
}

func (p *Page) Data() []byte  { return p.data }
func (p *Page) Addr() uintptr { return p.addr }
func (p *Page) Order() int    { return p.order }
func (p *Page) Cached() bool  { return p.cached }

func (p *Page) zero() {
	if p.data == nil {
		return
	}
	clear(p.data)
}

// Source is the system page source the heap falls back to on pool misses
// and refills pools from. Alloc must tolerate transient failure (OOM) -
// the heap does not retry.
type Source interface {
	Alloc(order int, zero bool) (*Page, error)
	Free(p *Page)
}

// Splitter is an optional Source capability: split a higher-order page
// into 2^order single pages sharing the same backing storage. Used by the
// contiguous-allocation path to return unused tail pages.
type Splitter interface {
	Split(p *Page) []*Page
}

// Flusher performs platform cache maintenance on a physical range.
type Flusher interface {
	FlushRange(addr uintptr, length int64)
}

///////////////
// memSource //
///////////////

// memSource is the default in-process Source: pages are heap-backed byte
// slices; the slice base address doubles as the "physical" address.
type memSource struct {
	pageSize int64
}

func newMemSource(pageSize int64) *memSource { return &memSource{pageSize: pageSize} }

func (s *memSource) Alloc(order int, _ bool) (*Page, error) {
	data := make([]byte, s.pageSize<<order) // always zeroed by the runtime
	return NewPage(data, uintptr(unsafe.Pointer(&data[0])), order), nil
}

func (*memSource) Free(p *Page) { p.data = nil }

func (s *memSource) Split(p *Page) []*Page {
	pages := make([]*Page, 1<<p.order)
	for i := range pages {
		data := p.data[int64(i)*s.pageSize : int64(i+1)*s.pageSize]
		pages[i] = NewPage(data, uintptr(unsafe.Pointer(&data[0])), 0)
	}
	p.data = nil
	return pages
}

// nopFlusher is the default cache-maintenance hook (no-op on hosts where
// the mapping layer owns coherency).
type nopFlusher struct{}

func (nopFlusher) FlushRange(uintptr, int64) {}
