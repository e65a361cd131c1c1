// Package hk provides a mechanism for registering callbacks
// that run at specified intervals on a single timer goroutine.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package hk

import (
	"container/heap"
	"time"

	"github.com/golang/glog"
	"github.com/pgheap/pgheap/cmn/cos"
	"github.com/pgheap/pgheap/cmn/debug"
	"github.com/pgheap/pgheap/cmn/mono"
	"go.uber.org/atomic"
)

const workChanCap = 32

// UnregInterval is returned from a callback to unregister it.
const UnregInterval = 365 * 24 * time.Hour

type (
	// CB is a housekeeping callback; it receives the current monotonic time
	// and returns the interval until its next invocation.
	CB func(now int64) time.Duration

	op struct {
		f        CB
		name     string
		interval time.Duration
	}
	timedAction struct {
		f    CB
		name string
		at   int64 // mono nanoseconds of the next invocation
	}
	timedActions []timedAction

	Housekeeper struct {
		stopCh  cos.StopCh
		actions *timedActions
		timer   *time.Timer
		workCh  chan op
		running atomic.Bool
	}
)

func New() *Housekeeper {
	hk := &Housekeeper{
		workCh:  make(chan op, workChanCap),
		actions: &timedActions{},
	}
	hk.stopCh.Init()
	heap.Init(hk.actions)
	return hk
}

// Reg registers a named callback; a zero interval invokes it right away
// on the housekeeper's goroutine.
func (hk *Housekeeper) Reg(name string, f CB, interval time.Duration) {
	debug.Assert(interval != UnregInterval)
	hk.post(op{name: name, f: f, interval: interval})
}

func (hk *Housekeeper) Unreg(name string) {
	hk.post(op{name: name, interval: UnregInterval})
}

// post queues a registration op. A stopped housekeeper drops the op so
// that late (un)registration at teardown never blocks the caller.
func (hk *Housekeeper) post(v op) {
	select {
	case <-hk.stopCh.Listen():
		glog.Warningf("hk: stopped - dropping [%s]", v.name)
	case hk.workCh <- v:
		if l, c := len(hk.workCh), workChanCap; l >= c-c>>3 {
			glog.Errorf("hk: work channel nearly full (%d/%d)", l, c)
		}
	}
}

func (hk *Housekeeper) Running() bool { return hk.running.Load() }

func (hk *Housekeeper) Stop() { hk.stopCh.Close() }

func (hk *Housekeeper) Run() {
	hk.timer = time.NewTimer(time.Hour)
	hk.running.Store(true)
	hk.run()
	hk.timer.Stop()
	hk.running.Store(false)
}

func (hk *Housekeeper) run() {
	for {
		select {
		case <-hk.stopCh.Listen():
			return

		case <-hk.timer.C:
			if hk.actions.Len() == 0 {
				break
			}
			var (
				item    = hk.actions.Peek()
				started = mono.NanoTime()
				ival    = item.f(started)
			)
			if ival == UnregInterval {
				heap.Remove(hk.actions, 0)
			} else {
				now := mono.NanoTime()
				item.at = now + ival.Nanoseconds()
				heap.Fix(hk.actions, 0)
				if d := time.Duration(now - started); d > time.Second {
					glog.Warningf("hk: call [%s] duration exceeds 1s: %v", item.name, d)
				}
			}
			hk.updateTimer()

		case op := <-hk.workCh:
			idx := hk.byName(op.name)
			if op.interval != UnregInterval {
				if idx >= 0 {
					glog.Errorf("hk: duplicated name [%s] - not registering", op.name)
					break
				}
				ival := op.interval
				now := mono.NanoTime()
				if op.interval == 0 {
					// calling right away
					ival = op.f(now)
					if ival == UnregInterval {
						glog.Errorf("hk: illegal usage [%s] - not registering", op.name)
						break
					}
				}
				heap.Push(hk.actions, timedAction{name: op.name, f: op.f, at: now + ival.Nanoseconds()})
			} else if idx >= 0 {
				heap.Remove(hk.actions, idx)
			}
			hk.updateTimer()
		}
	}
}

func (hk *Housekeeper) updateTimer() {
	if hk.actions.Len() == 0 {
		hk.timer.Stop()
		return
	}
	d := hk.actions.Peek().at - mono.NanoTime()
	hk.timer.Reset(time.Duration(d))
}

func (hk *Housekeeper) byName(name string) int {
	for i, tc := range *hk.actions {
		if tc.name == name {
			return i
		}
	}
	return -1
}

//////////////////
// timedActions //
//////////////////

func (tc timedActions) Len() int           { return len(tc) }
func (tc timedActions) Less(i, j int) bool { return tc[i].at < tc[j].at }
func (tc timedActions) Swap(i, j int)      { tc[i], tc[j] = tc[j], tc[i] }
func (tc timedActions) Peek() *timedAction { return &tc[0] }
func (tc *timedActions) Push(x any)        { *tc = append(*tc, x.(timedAction)) }

func (tc *timedActions) Pop() any {
	old := *tc
	n := len(old)
	item := old[n-1]
	*tc = old[0 : n-1]
	return item
}
