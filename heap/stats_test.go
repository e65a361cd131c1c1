// Package heap_test exercises buffer allocation, pooling and shrinking.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pgheap/pgheap/heap"
	"github.com/pgheap/pgheap/tools/tassert"
)

func TestStats(t *testing.T) {
	src := newStubSource(-1)
	h := newTestHeap(t, &heap.Config{Source: src, MaxPooledPages: 1024})

	b, err := h.Allocate(17*testPageSize, 0, heap.Uncached, 0)
	tassert.CheckFatal(t, err)
	h.Free(b)

	st := h.GetStats()
	tassert.Errorf(t, st.Name != "", "empty heap name in stats")
	tassert.Errorf(t, st.PooledPages == 17, "pooled = %d, want 17", st.PooledPages)

	var misses, hits int64
	for _, ps := range st.Pools {
		misses += ps.Misses
		hits += ps.Hits
	}
	tassert.Errorf(t, misses == 2, "misses = %d, want 2 (one per order)", misses)
	tassert.Errorf(t, hits == 0, "hits = %d, want 0", hits)

	// pool-satisfied reallocation must show up as hits
	b, err = h.Allocate(17*testPageSize, 0, heap.Uncached, 0)
	tassert.CheckFatal(t, err)
	h.Free(b)
	st = h.GetStats()
	hits = 0
	for _, ps := range st.Pools {
		hits += ps.Hits
	}
	tassert.Errorf(t, hits == 2, "hits = %d, want 2", hits)
}

func TestPrometheusCollector(t *testing.T) {
	src := newStubSource(-1)
	h := newTestHeap(t, &heap.Config{Name: "promtest", Source: src, MaxPooledPages: 1024})

	b, err := h.Allocate(16*testPageSize, 0, heap.Cached, 0)
	tassert.CheckFatal(t, err)
	h.Free(b)

	reg := prometheus.NewPedanticRegistry()
	tassert.CheckFatal(t, reg.Register(heap.NewCollector(h)))

	mfs, err := reg.Gather()
	tassert.CheckFatal(t, err)

	found := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"pgheap_pooled_pages",
		"pgheap_pool_hits_total",
		"pgheap_pool_misses_total",
		"pgheap_pool_evicted_total",
	} {
		tassert.Errorf(t, found[name], "metric %s not gathered", name)
	}

	var pooled float64
	for _, mf := range mfs {
		if mf.GetName() != "pgheap_pooled_pages" {
			continue
		}
		for _, m := range mf.GetMetric() {
			pooled += m.GetGauge().GetValue()
		}
	}
	tassert.Errorf(t, pooled == 16, "pooled gauge sum = %v, want 16", pooled)
}
