// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type (
	PoolStats struct {
		Order   int
		Cached  bool
		Low     int // recycled pages
		High    int // refilled (pristine) pages
		Hits    int64
		Misses  int64
		Evicted int64
	}
	Stats struct {
		Name        string
		Pools       []PoolStats
		PooledPages int
		// per cache mode, zero when auto-refill is off
		RefillWakes [numCacheModes]int64
		Refilled    [numCacheModes]int64
	}
)

// GetStats takes a point-in-time snapshot (per-pool consistency only).
func (h *SystemHeap) GetStats() *Stats {
	s := &Stats{Name: h.name, Pools: make([]PoolStats, 0, 2*len(h.orders))}
	for i := range h.orders {
		for _, pool := range [2]*pagePool{h.uncached[i], h.cached[i]} {
			low, high := pool.counts()
			s.Pools = append(s.Pools, PoolStats{
				Order:   pool.order,
				Cached:  pool.cached,
				Low:     low,
				High:    high,
				Hits:    pool.hits.Load(),
				Misses:  pool.misses.Load(),
				Evicted: pool.evicted.Load(),
			})
			s.PooledPages += (low + high) << pool.order
		}
	}
	for mode, r := range h.refillers {
		if r != nil {
			s.RefillWakes[mode] = r.wakes.Load()
			s.Refilled[mode] = r.refilled.Load()
		}
	}
	return s
}

// RefillWakes returns the wake count posted to the given mode's refiller.
func (h *SystemHeap) RefillWakes(mode CacheMode) int64 {
	if r := h.refillers[mode]; r != nil {
		return r.wakes.Load()
	}
	return 0
}

///////////////
// Collector //
///////////////

// Collector exports heap statistics in prometheus format.
type Collector struct {
	h *SystemHeap

	pooledPages *prometheus.Desc
	poolHits    *prometheus.Desc
	poolMisses  *prometheus.Desc
	poolEvicted *prometheus.Desc
	refillWakes *prometheus.Desc
	refillPages *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(h *SystemHeap) *Collector {
	poolLabels := []string{"order", "mode"}
	constLabels := prometheus.Labels{"heap": h.name}
	return &Collector{
		h: h,
		pooledPages: prometheus.NewDesc("pgheap_pooled_pages",
			"Base pages currently held by a pool", poolLabels, constLabels),
		poolHits: prometheus.NewDesc("pgheap_pool_hits_total",
			"Pool-satisfied page acquisitions", poolLabels, constLabels),
		poolMisses: prometheus.NewDesc("pgheap_pool_misses_total",
			"Pool misses that fell back to the system source", poolLabels, constLabels),
		poolEvicted: prometheus.NewDesc("pgheap_pool_evicted_total",
			"Pages evicted back to the system by shrinking", poolLabels, constLabels),
		refillWakes: prometheus.NewDesc("pgheap_refill_wakes_total",
			"Wakes posted to the refill worker", []string{"mode"}, constLabels),
		refillPages: prometheus.NewDesc("pgheap_refill_pages_total",
			"Pages refilled into pools by the background worker", []string{"mode"}, constLabels),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pooledPages
	ch <- c.poolHits
	ch <- c.poolMisses
	ch <- c.poolEvicted
	ch <- c.refillWakes
	ch <- c.refillPages
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.h.GetStats()
	for i := range s.Pools {
		ps := &s.Pools[i]
		order := strconv.Itoa(ps.Order)
		mode := Uncached.String()
		if ps.Cached {
			mode = Cached.String()
		}
		ch <- prometheus.MustNewConstMetric(c.pooledPages, prometheus.GaugeValue,
			float64((ps.Low+ps.High)<<ps.Order), order, mode)
		ch <- prometheus.MustNewConstMetric(c.poolHits, prometheus.CounterValue,
			float64(ps.Hits), order, mode)
		ch <- prometheus.MustNewConstMetric(c.poolMisses, prometheus.CounterValue,
			float64(ps.Misses), order, mode)
		ch <- prometheus.MustNewConstMetric(c.poolEvicted, prometheus.CounterValue,
			float64(ps.Evicted), order, mode)
	}
	for _, mode := range []CacheMode{Uncached, Cached} {
		ch <- prometheus.MustNewConstMetric(c.refillWakes, prometheus.CounterValue,
			float64(s.RefillWakes[mode]), mode.String())
		ch <- prometheus.MustNewConstMetric(c.refillPages, prometheus.CounterValue,
			float64(s.Refilled[mode]), mode.String())
	}
}
