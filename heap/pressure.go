// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"time"

	"github.com/pgheap/pgheap/cmn/debug"
	"github.com/pgheap/pgheap/sys"
)

// memory _pressure_

const (
	PressureLow = iota
	PressureModerate
	PressureHigh
	PressureExtreme
	OOM
)

const highLowThreshold = 40

// swapping condition, once noted, lingers for a while
const swappingMax = 4

var pressureText = map[int]string{
	PressureLow:      "low",
	PressureModerate: "moderate",
	PressureHigh:     "high",
	PressureExtreme:  "extreme",
	OOM:              "OOM",
}

func PressureToString(p int) string { return pressureText[p] }

// updSwap tracks the swapping state: criticality climbs while swap usage
// grows and decays one step per observation otherwise.
func (h *SystemHeap) updSwap(mem *sys.MemStat) {
	var ncrit int32
	swapping, crit := mem.SwapUsed > h.swap.size.Load(), h.swap.crit.Load()
	if swapping {
		ncrit = min(swappingMax, crit+1)
	} else {
		ncrit = max(0, crit-1)
	}
	h.swap.crit.Store(ncrit)
	h.swap.size.Store(mem.SwapUsed)
}

// Pressure returns an estimate of the current memory pressure expressed
// as one of the enumerated levels.
func (h *SystemHeap) Pressure(mems ...*sys.MemStat) int {
	var mem *sys.MemStat
	if len(mems) > 0 {
		mem = mems[0]
	} else {
		memStat, err := sys.Mem()
		debug.AssertNoErr(err)
		mem = &memStat
	}
	if h.minFree == 0 || h.lowWM <= h.minFree {
		return PressureLow // no watermarks, no opinion
	}

	ncrit := h.swap.crit.Load()
	switch {
	case ncrit > 2:
		return OOM
	case ncrit > 1 || mem.ActualFree <= h.minFree:
		return PressureExtreme
	case ncrit > 0 || mem.Free <= h.minFree:
		return PressureHigh
	case mem.Free >= h.lowWM:
		return PressureLow
	}
	x := (mem.Free - h.minFree) * 100 / (h.lowWM - h.minFree)
	if x < highLowThreshold {
		return PressureHigh
	}
	return PressureModerate
}

// housekeep runs on the hk timer: refreshes the swapping state and, under
// high pressure and above, drains pooled pages back to the system. The
// returned interval shortens as memory runs low.
func (h *SystemHeap) housekeep(int64) time.Duration {
	mem, err := sys.Mem()
	if err != nil {
		return h.hkIval()
	}
	h.updSwap(&mem)
	p := h.Pressure(&mem)
	switch {
	case p >= PressureExtreme:
		h.Shrink(p, h.Shrink(p, 0 /*scan*/))
	case p == PressureHigh:
		h.Shrink(p, h.Shrink(p, 0 /*scan*/)/2)
	}

	ival := h.hkIval()
	switch {
	case p >= PressureExtreme:
		return ival / 4
	case p == PressureHigh:
		return ival / 2
	default:
		return ival
	}
}

func (h *SystemHeap) hkIval() time.Duration {
	if h.config.HkIval > 0 {
		return h.config.HkIval
	}
	return hkIvalDflt
}
