//go:build !debug

// Package debug provides debug-build assertions (no-ops in production builds)
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package debug

func Enabled() bool { return false }

func Infof(string, ...any) {}

func Func(func()) {}

func Assert(bool, ...any)          {}
func AssertMsg(bool, string)       {}
func AssertNoErr(error)            {}
func Assertf(bool, string, ...any) {}
