// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"fmt"

	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/pgheap/pgheap/cmn/cos"
)

// refiller is the background worker bound to one cache mode's pool set.
// It sweeps the order > 0 pools, topping each up from the system until its
// watermark condition clears, then suspends until woken by an acquire that
// observed a below-watermark pool. Cancellation is cooperative: a stop
// request is honored only at the suspend point, never mid-refill.
type refiller struct {
	h      *SystemHeap
	mode   CacheMode
	pools  []*pagePool
	wakeCh chan struct{}
	stopCh cos.StopCh
	doneCh chan struct{}

	wakes    atomic.Int64
	refilled atomic.Int64

	started atomic.Bool
}

func newRefiller(h *SystemHeap, mode CacheMode, pools []*pagePool) *refiller {
	r := &refiller{
		h:      h,
		mode:   mode,
		pools:  pools,
		wakeCh: make(chan struct{}, 1),
		doneCh: make(chan struct{}),
	}
	r.stopCh.Init()
	return r
}

func (r *refiller) start() error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%s-pool-%s-worker already started", r.h.name, r.mode)
	}
	go r.run()
	return nil
}

// wakeUp posts a level-triggered wake; redundant wakes are dropped.
func (r *refiller) wakeUp() {
	r.wakes.Inc()
	select {
	case r.wakeCh <- struct{}{}:
	default:
	}
}

func (r *refiller) run() {
	defer close(r.doneCh)
	for {
		for _, pool := range r.pools {
			r.refill(pool)
		}
		select {
		case <-r.stopCh.Listen():
			return
		case <-r.wakeCh:
		}
	}
}

// refill tops up one pool with fresh zeroed system pages, inserted on the
// high list, until the watermark condition clears. A transient system
// failure ends the pass; the next wake retries.
func (r *refiller) refill(pool *pagePool) {
	for pool.belowLowWM() {
		pg, err := r.h.source.Alloc(pool.order, true /*zero*/)
		if err != nil {
			if glog.V(4) {
				glog.Infof("%s-pool-%s-worker: refill order=%d: %v", r.h.name, r.mode, pool.order, err)
			}
			return
		}
		pool.insertFresh(pg)
		r.refilled.Inc()
	}
}

// stop requests cooperative termination and joins the worker; no page is
// allocated after stop returns.
func (r *refiller) stop() {
	r.stopCh.Close()
	if r.started.Load() {
		<-r.doneCh
	}
}
