// Package sys provides methods to read system information
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package sys

import (
	sigar "github.com/cloudfoundry/gosigar"
)

type MemStat struct {
	Total      uint64
	Free       uint64
	ActualFree uint64 // free + buffers/cache the kernel can reclaim
	SwapTotal  uint64
	SwapUsed   uint64
}

// Mem returns the current host memory statistics.
func Mem() (MemStat, error) {
	var (
		mem  sigar.Mem
		swap sigar.Swap
	)
	if err := mem.Get(); err != nil {
		return MemStat{}, err
	}
	if err := swap.Get(); err != nil {
		return MemStat{}, err
	}
	return MemStat{
		Total:      mem.Total,
		Free:       mem.Free,
		ActualFree: mem.ActualFree,
		SwapTotal:  swap.Total,
		SwapUsed:   swap.Used,
	}, nil
}

// TotalRAMPages returns the number of base pages the host has, given pageSize.
func TotalRAMPages(pageSize int64) uint64 {
	mem, err := Mem()
	if err != nil || pageSize <= 0 {
		return 0
	}
	return mem.Total / uint64(pageSize)
}
