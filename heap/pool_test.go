// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"errors"
	"testing"
)

type countingSource struct {
	memSource
	frees int
}

func (s *countingSource) Free(p *Page) {
	s.frees++
	s.memSource.Free(p)
}

func newTestPage(t *testing.T, src Source, order int) *Page {
	t.Helper()
	pg, err := src.Alloc(order, true)
	if err != nil {
		t.Fatal(err)
	}
	return pg
}

func TestPoolRoundTrip(t *testing.T) {
	src := &countingSource{memSource: memSource{pageSize: DfltPageSize}}
	pool := newPagePool(4, false, DfltPoolLowWM)

	pg := newTestPage(t, src, 4)
	pool.release(pg)
	if n := pool.total(); n != 1 {
		t.Fatalf("total = %d, want 1", n)
	}
	got := pool.acquire()
	if got != pg {
		t.Fatalf("acquire returned %p, want %p", got, pg)
	}
	if n := pool.total(); n != 0 {
		t.Fatalf("total = %d after acquire, want 0", n)
	}
	// no duplicates left behind
	if pool.acquire() != nil {
		t.Fatal("empty pool returned a page")
	}
	pool.release(pg)
	if n := pool.total(); n != 1 {
		t.Fatalf("total = %d after re-release, want 1", n)
	}
}

func TestPoolAcquireLowFirst(t *testing.T) {
	src := &countingSource{memSource: memSource{pageSize: DfltPageSize}}
	pool := newPagePool(0, true, DfltPoolLowWM)

	fresh := newTestPage(t, src, 0)
	recycled := newTestPage(t, src, 0)
	pool.insertFresh(fresh)
	pool.release(recycled)

	if got := pool.acquire(); got != recycled {
		t.Fatal("acquire must pop the low (recycled) list first")
	}
	if got := pool.acquire(); got != fresh {
		t.Fatal("acquire must fall back to the high list")
	}
}

func TestPoolShrinkLowBeforeHigh(t *testing.T) {
	src := &countingSource{memSource: memSource{pageSize: DfltPageSize}}
	pool := newPagePool(0, false, DfltPoolLowWM)

	for i := 0; i < 3; i++ {
		pool.insertFresh(newTestPage(t, src, 0))
	}
	for i := 0; i < 2; i++ {
		pool.release(newTestPage(t, src, 0))
	}

	if n := pool.shrink(0, true, src); n != 5 {
		t.Fatalf("scan = %d, want 5", n)
	}
	// scan-only must not mutate
	if n := pool.shrink(0, true, src); n != 5 {
		t.Fatalf("second scan = %d, want 5", n)
	}
	if src.frees != 0 {
		t.Fatalf("scan-only freed %d pages", src.frees)
	}

	if n := pool.shrink(2, false, src); n != 2 {
		t.Fatalf("shrink = %d, want 2", n)
	}
	low, high := pool.counts()
	if low != 0 || high != 3 {
		t.Fatalf("low/high = %d/%d after shrink, want 0/3 (low list evicted first)", low, high)
	}
	if src.frees != 2 {
		t.Fatalf("frees = %d, want 2", src.frees)
	}

	if n := pool.shrink(10, false, src); n != 3 {
		t.Fatalf("drain = %d, want 3", n)
	}
	if n := pool.total(); n != 0 {
		t.Fatalf("total = %d after drain, want 0", n)
	}
}

func TestContigOrderClamp(t *testing.T) {
	// nil source: the clamp must reject before any system allocation
	h := &SystemHeap{pageSize: DfltPageSize}
	size := int64(DfltPageSize) << (maxPageOrder + 1)
	_, err := h.AllocContig(size, 0, Uncached)
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory for order > %d, got %v", maxPageOrder, err)
	}
}

func TestPoolWatermarkAsymmetry(t *testing.T) {
	src := &countingSource{memSource: memSource{pageSize: DfltPageSize}}

	// order-0 pools are never auto-refilled
	p0 := newPagePool(0, false, DfltPoolLowWM)
	if p0.belowLowWM() {
		t.Fatal("order-0 pool must not request refill")
	}

	p4 := newPagePool(4, false, DfltPoolLowWM)
	if !p4.belowLowWM() {
		t.Fatal("empty order-4 pool must be below its low watermark")
	}
	p4.insertFresh(newTestPage(t, src, 4))
	if p4.belowLowWM() {
		t.Fatal("refilled order-4 pool must clear the watermark condition")
	}
}
