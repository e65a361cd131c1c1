// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"io"
)

// interface guard
var (
	_ io.Reader   = (*Buffer)(nil)
	_ io.WriterTo = (*Buffer)(nil)
)

// Extent is one (physical address, length) element of a buffer's scatter
// list, for the mapping/DMA layer to consume.
type Extent struct {
	Addr uintptr
	Len  int64
}

// Buffer is one allocation result: an ordered sequence of backing pages
// plus the assembled scatter list. Created by SystemHeap.Allocate,
// destroyed by SystemHeap.Free.
type Buffer struct {
	h       *SystemHeap
	pages   []*Page
	extents []Extent
	size    int64 // requested
	length  int64 // page-aligned total
	roff    int64
	mode    CacheMode
	flags   Flag
	contig  bool
}

func (b *Buffer) Size() int64          { return b.size }
func (b *Buffer) Length() int64        { return b.length }
func (b *Buffer) CacheMode() CacheMode { return b.mode }

// Scatter returns the buffer's backing extents in allocation order.
func (b *Buffer) Scatter() []Extent { return b.extents }

// NumPages returns the count of backing chunks (not base pages).
func (b *Buffer) NumPages() int { return len(b.pages) }

// Zero clears the buffer's memory contents.
func (b *Buffer) Zero() {
	for _, pg := range b.pages {
		pg.zero()
	}
}

// Read implements io.Reader over the concatenated backing pages, up to
// the requested size.
func (b *Buffer) Read(p []byte) (n int, err error) {
	for n < len(p) && b.roff < b.size {
		pg, off := b.pageAt(b.roff)
		if pg == nil { // freed buffer
			return n, io.EOF
		}
		src := pg.data[off:]
		if rem := b.size - b.roff; rem < int64(len(src)) {
			src = src[:rem]
		}
		m := copy(p[n:], src)
		n += m
		b.roff += int64(m)
	}
	if n == 0 && b.roff >= b.size {
		return 0, io.EOF
	}
	return n, nil
}

// WriteTo implements io.WriterTo; writes the requested size in one pass.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	var off int64
	for _, pg := range b.pages {
		chunk := pg.data
		if rem := b.size - off; rem < int64(len(chunk)) {
			if rem <= 0 {
				break
			}
			chunk = chunk[:rem]
		}
		m, err := w.Write(chunk)
		n += int64(m)
		off += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteAt copies p into the buffer at the given offset (within length).
func (b *Buffer) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off > b.length {
		return 0, io.ErrShortWrite
	}
	for n < len(p) && off < b.length {
		pg, pgoff := b.pageAt(off)
		if pg == nil { // freed buffer
			break
		}
		m := copy(pg.data[pgoff:], p[n:])
		n += m
		off += int64(m)
	}
	if n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// pageAt maps a byte offset to (page, offset-within-page). Chunk sizes
// vary by order, hence the linear walk; buffers hold few chunks.
func (b *Buffer) pageAt(off int64) (*Page, int64) {
	for _, pg := range b.pages {
		sz := b.h.orderSize(pg.order)
		if off < sz {
			return pg, off
		}
		off -= sz
	}
	return nil, 0
}

// assemble builds the scatter list and performs the single batched
// cache-clean pass over pages that came straight from the system while
// the cache mode required maintenance.
func (b *Buffer) assemble(pendingClean int64) {
	b.extents = make([]Extent, 0, len(b.pages))
	for _, pg := range b.pages {
		sz := b.h.orderSize(pg.order)
		if pendingClean > 0 && pg.fromSystem {
			b.h.flusher.FlushRange(pg.addr, sz)
		}
		pg.fromSystem = false
		b.extents = append(b.extents, Extent{Addr: pg.addr, Len: sz})
	}
}
