// Package cos provides common low-level types and utilities for all pgheap packages
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package cos

func DivCeil(a, b int64) int64 {
	d, r := a/b, a%b
	if r > 0 {
		return d + 1
	}
	return d
}

// CeilAlign returns val rounded up to the nearest multiple of align.
func CeilAlign(val, align int64) int64 {
	mod := val % align
	if mod != 0 {
		val += align - mod
	}
	return val
}

// IsPow2 reports whether a is a power of two (zero is not).
func IsPow2(a int64) bool {
	return a > 0 && a&(a-1) == 0
}
