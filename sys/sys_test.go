// Package sys provides methods to read system information
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package sys_test

import (
	"testing"

	"github.com/pgheap/pgheap/sys"
	"github.com/pgheap/pgheap/tools/tassert"
)

func TestMem(t *testing.T) {
	mem, err := sys.Mem()
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, mem.Total > 0, "total memory not detected")
	tassert.Errorf(t, mem.ActualFree <= mem.Total, "actual free %d > total %d", mem.ActualFree, mem.Total)
	t.Logf("total %d free %d actual-free %d swap %d/%d",
		mem.Total, mem.Free, mem.ActualFree, mem.SwapUsed, mem.SwapTotal)
}

func TestTotalRAMPages(t *testing.T) {
	n := sys.TotalRAMPages(4096)
	tassert.Errorf(t, n > 0, "zero RAM pages")
	tassert.Errorf(t, sys.TotalRAMPages(0) == 0, "expected 0 for invalid page size")
}
