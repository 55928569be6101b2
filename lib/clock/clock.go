// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects Real(); tests inject a Fake and advance it manually.
//
// Every production function that would call time.Now, time.After, or
// time.NewTicker accepts a Clock (or is a method on a struct carrying
// one) instead of reaching for the time package directly. The broadcast
// scheduler's tick cadence and the sync loop's retry backoff are both
// driven through this interface.
package clock

import "time"

// Clock provides the time operations Warden uses.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. Equivalent to time.After.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks on C at the given
	// interval. Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker wraps a periodic timer. Read ticks from C; call Stop when the
// ticker is no longer needed. C is buffered with capacity 1, matching
// time.Ticker: if the consumer falls behind, ticks are dropped rather
// than queued.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop releases the ticker's resources. It does not close C.
func (t *Ticker) Stop() {
	t.stop()
}

// realClock delegates to the time package.
type realClock struct{}

// Real returns a Clock backed by the system clock.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)
	return &Ticker{C: ticker.C, stop: ticker.Stop}
}
