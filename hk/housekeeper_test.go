// Package hk provides a mechanism for registering callbacks
// that run at specified intervals on a single timer goroutine.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package hk

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/atomic"
)

var _ = Describe("Housekeeper", func() {
	var hk *Housekeeper

	BeforeEach(func() {
		hk = New()
		go hk.Run()
		Eventually(hk.Running).Should(BeTrue())
	})

	AfterEach(func() {
		hk.Stop()
		Eventually(hk.Running).Should(BeFalse())
	})

	It("should invoke a callback at its interval", func() {
		var cnt atomic.Int32
		hk.Reg("count", func(int64) time.Duration {
			cnt.Inc()
			return 10 * time.Millisecond
		}, 10*time.Millisecond)

		Eventually(cnt.Load).Should(BeNumerically(">=", int32(3)))
	})

	It("should invoke a zero-interval callback right away", func() {
		var cnt atomic.Int32
		hk.Reg("now", func(int64) time.Duration {
			cnt.Inc()
			return time.Hour
		}, 0)

		Eventually(cnt.Load).Should(Equal(int32(1)))
		Consistently(cnt.Load, "100ms").Should(Equal(int32(1)))
	})

	It("should stop invoking an unregistered callback", func() {
		var cnt atomic.Int32
		hk.Reg("churn", func(int64) time.Duration {
			cnt.Inc()
			return 5 * time.Millisecond
		}, 5*time.Millisecond)

		Eventually(cnt.Load).Should(BeNumerically(">=", int32(2)))
		hk.Unreg("churn")

		time.Sleep(20 * time.Millisecond) // let in-flight invocations settle
		stable := cnt.Load()
		Consistently(cnt.Load, "100ms").Should(Equal(stable))
	})

	It("should unregister a callback that returns the sentinel", func() {
		var cnt atomic.Int32
		hk.Reg("once", func(int64) time.Duration {
			cnt.Inc()
			return UnregInterval
		}, 5*time.Millisecond)

		Eventually(cnt.Load).Should(Equal(int32(1)))
		Consistently(cnt.Load, "100ms").Should(Equal(int32(1)))
	})

	It("should not register a duplicated name", func() {
		var first, second atomic.Int32
		hk.Reg("dup", func(int64) time.Duration {
			first.Inc()
			return 5 * time.Millisecond
		}, 5*time.Millisecond)
		hk.Reg("dup", func(int64) time.Duration {
			second.Inc()
			return 5 * time.Millisecond
		}, 5*time.Millisecond)

		Eventually(first.Load).Should(BeNumerically(">=", int32(2)))
		Expect(second.Load()).To(Equal(int32(0)))
	})

	It("should drop late registrations on a stopped housekeeper without blocking", func() {
		stopped := New()
		stopped.Stop() // never ran

		done := make(chan struct{})
		go func() {
			defer close(done)
			// well past the work channel capacity
			for i := 0; i < 2*workChanCap; i++ {
				stopped.Reg(fmt.Sprintf("late-%d", i), func(int64) time.Duration { return time.Hour }, time.Hour)
				stopped.Unreg(fmt.Sprintf("late-%d", i))
			}
		}()
		Eventually(done).Should(BeClosed())
	})

	It("should order invocations by their deadlines", func() {
		var (
			mu    sync.Mutex
			order []string
		)
		record := func(name string) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
		hk.Reg("late", func(int64) time.Duration {
			record("late")
			return UnregInterval
		}, 60*time.Millisecond)
		hk.Reg("early", func(int64) time.Duration {
			record("early")
			return UnregInterval
		}, 20*time.Millisecond)

		Eventually(func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), order...)
		}, "1s").Should(Equal([]string{"early", "late"}))
	})
})
