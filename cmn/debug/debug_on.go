//go:build debug

// Package debug provides debug-build assertions (no-ops in production builds)
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package debug

import (
	"fmt"
	"os"

	"github.com/golang/glog"
)

func Enabled() bool { return true }

func Infof(f string, a ...any) {
	glog.InfoDepth(1, fmt.Sprintf("[DEBUG] "+f, a...))
}

func Func(f func()) { f() }

func Assert(cond bool, a ...any) {
	if !cond {
		glog.Flush()
		if len(a) > 0 {
			panic("DEBUG PANIC: " + fmt.Sprint(a...))
		}
		panic("DEBUG PANIC")
	}
}

func AssertMsg(cond bool, msg string) {
	if !cond {
		glog.Flush()
		panic("DEBUG PANIC: " + msg)
	}
}

func AssertNoErr(err error) {
	if err != nil {
		glog.Flush()
		fmt.Fprintln(os.Stderr, err)
		panic(err)
	}
}

func Assertf(cond bool, f string, a ...any) {
	if !cond {
		AssertMsg(cond, fmt.Sprintf(f, a...))
	}
}
