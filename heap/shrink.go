// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"github.com/golang/glog"
)

// Shrink responds to a memory-pressure scan request. nrToScan == 0 is a
// scan-only call: it returns the total pooled-page count without mutating
// state. Otherwise pools are drained smallest order first (inverse of
// allocation preference - small-order pools are the least valuable to
// retain), uncached before cached within each order, until nrToScan pages
// were evicted. Returns the number of pages actually freed back to the
// system, reported to the pressure subsystem.
func (h *SystemHeap) Shrink(pressure, nrToScan int) (nrTotal int) {
	onlyScan := nrToScan == 0
	if onlyScan {
		for i := range h.orders {
			nrTotal += h.uncached[i].shrink(0, true, h.source)
			nrTotal += h.cached[i].shrink(0, true, h.source)
		}
		return nrTotal
	}

	for i := len(h.orders) - 1; i >= 0; i-- {
		for _, pool := range [2]*pagePool{h.uncached[i], h.cached[i]} {
			nrFreed := pool.shrink(nrToScan, false, h.source)
			nrToScan -= nrFreed
			nrTotal += nrFreed
			if nrToScan <= 0 {
				goto done
			}
		}
	}
done:
	if nrTotal > 0 && glog.V(3) {
		glog.Infof("%s: shrink(%s): evicted %d pooled pages", h.name, PressureToString(pressure), nrTotal)
	}
	return nrTotal
}
