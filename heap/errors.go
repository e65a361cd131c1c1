// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import "errors"

var (
	// ErrInvalidAlignment - the requested alignment exceeds what the heap
	// can provide; caller error, never retried.
	ErrInvalidAlignment = errors.New("heap: invalid alignment")
	// ErrOutOfMemory - the system source is exhausted at every order, or
	// the request exceeds half of total system memory.
	ErrOutOfMemory = errors.New("heap: out of memory")
	// ErrWorkerCreation - a refill worker could not be started at
	// construction time while auto-refill is configured on.
	ErrWorkerCreation = errors.New("heap: failed to start refill worker")
)
