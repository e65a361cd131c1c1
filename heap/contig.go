// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"github.com/pgheap/pgheap/cmn/cos"
)

// AllocContig allocates one physically-contiguous chunk: a single page of
// the smallest order that covers size, exposed as a one-extent scatter
// list. When the source supports splitting, the tail pages beyond the
// aligned size are returned to the system immediately. Contiguous buffers
// are never recycled through the pools.
func (h *SystemHeap) AllocContig(size, align int64, mode CacheMode) (*Buffer, error) {
	if size <= 0 {
		return nil, ErrOutOfMemory
	}
	// same coarse anti-runaway guard as Allocate
	if h.totalRAMPages > 0 && uint64(size)/uint64(h.pageSize) > h.totalRAMPages/2 {
		return nil, ErrOutOfMemory
	}
	var (
		length = cos.CeilAlign(size, h.pageSize)
		npages = length / h.pageSize
		order  = contigOrder(npages)
	)
	if order > maxPageOrder {
		return nil, ErrOutOfMemory
	}
	if align > h.orderSize(order) {
		return nil, ErrInvalidAlignment
	}
	chunk, err := h.source.Alloc(order, true /*zero*/)
	if err != nil {
		return nil, ErrOutOfMemory
	}
	chunk.cached = mode == Cached

	b := &Buffer{h: h, size: size, length: length, mode: mode, contig: true}
	if splitter, ok := h.source.(Splitter); ok && order > 0 {
		pages := splitter.Split(chunk)
		b.pages = pages[:npages]
		for _, pg := range b.pages {
			pg.cached = chunk.cached
		}
		// trim the tail beyond the aligned size
		for _, pg := range pages[npages:] {
			h.source.Free(pg)
		}
		b.extents = []Extent{{Addr: b.pages[0].addr, Len: length}}
	} else {
		b.pages = []*Page{chunk}
		b.extents = []Extent{{Addr: chunk.addr, Len: length}}
	}
	if mode == Cached {
		h.flusher.FlushRange(b.extents[0].Addr, b.extents[0].Len)
	}
	return b, nil
}

func (h *SystemHeap) freeContig(b *Buffer) {
	for _, pg := range b.pages {
		h.source.Free(pg)
	}
	b.pages, b.extents = nil, nil
}

// contigOrder returns the smallest order whose chunk covers npages.
func contigOrder(npages int64) (order int) {
	for int64(1)<<order < npages {
		order++
	}
	return order
}
