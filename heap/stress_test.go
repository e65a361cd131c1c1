// Package heap_test exercises buffer allocation, pooling and shrinking.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/pgheap/pgheap/heap"
	"github.com/pgheap/pgheap/tools/tassert"
)

// concurrent alloc/free/shrink churn over both cache modes
func TestHeapStress(t *testing.T) {
	var (
		workers = 16
		iters   = 2000
	)
	if testing.Short() {
		workers, iters = 4, 200
	}

	src := newStubSource(-1)
	h, err := heap.New(&heap.Config{
		Name:           "stress",
		Source:         src,
		MaxPooledPages: 1024,
		AutoRefill:     true,
	})
	tassert.CheckFatal(t, err)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < iters; i++ {
				size := int64(rnd.Intn(int(64*testPageSize))) + 1
				mode := heap.Uncached
				if rnd.Intn(2) == 1 {
					mode = heap.Cached
				}
				var flags heap.Flag
				if rnd.Intn(8) == 0 {
					flags |= heap.FlagNoZero
				}
				b, err := h.Allocate(size, 0, mode, flags)
				if err != nil {
					t.Errorf("allocate %d: %v", size, err)
					return
				}

				// scribble into the first and last byte, then verify
				b.WriteAt([]byte{0xaa}, 0)
				b.WriteAt([]byte{0xbb}, b.Size()-1)
				one := make([]byte, 1)
				if _, err := b.Read(one); err != nil || one[0] != 0xaa {
					t.Errorf("corrupted buffer: %x, err %v", one[0], err)
					h.Free(b)
					return
				}

				h.Free(b)
			}
		}(int64(w))
	}

	// concurrent shrinker
	stop := make(chan struct{})
	var swg sync.WaitGroup
	swg.Add(1)
	go func() {
		defer swg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				h.Shrink(heap.PressureHigh, 64)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	wg.Wait()
	close(stop)
	swg.Wait()

	// the ceiling check is advisory under concurrency: each Free decides
	// before inserting, so the overshoot is bounded by in-flight buffers
	pooled := h.PooledPages()
	tassert.Errorf(t, pooled <= 1024+workers*64, "pooled %d exceeds the ceiling bound", pooled)

	// Close drains the pools and stops the refillers; afterwards every
	// page handed out by the source must have been returned
	h.Close()
	tassert.Errorf(t, h.PooledPages() == 0, "pools not empty after close")
	allocs, frees := src.counts()
	tassert.Errorf(t, allocs == frees, "source leak: allocs %d frees %d", allocs, frees)
}
