// Package cos provides common low-level types and utilities for all pgheap packages
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package cos

import "sync"

// StopCh is a specialized channel for stopping things.
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func NewStopCh() *StopCh {
	sch := &StopCh{}
	sch.Init()
	return sch
}

func (sch *StopCh) Init()                   { sch.ch = make(chan struct{}) }
func (sch *StopCh) Listen() <-chan struct{} { return sch.ch }

func (sch *StopCh) Close() {
	sch.once.Do(func() {
		close(sch.ch)
	})
}
