// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Time only moves when the
// test calls Advance or Set; waiters registered through After or
// NewTicker fire synchronously inside the advancing call, before it
// returns. All methods are safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

// fakeWaiter is a pending After channel or a ticker. Tickers reload
// their deadline after each delivery; After waiters are removed.
type fakeWaiter struct {
	deadline time.Time
	interval time.Duration // 0 for one-shot After waiters
	ch       chan time.Time
	stopped  bool
}

// NewFake returns a Fake whose current time is the given instant.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that fires once the fake has been advanced by
// at least d.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{deadline: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.waiters = append(f.waiters, w)
	return w.ch
}

// NewTicker returns a ticker that fires each time the fake crosses a
// multiple of d from the instant of this call.
func (f *Fake) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{deadline: f.now.Add(d), interval: d, ch: make(chan time.Time, 1)}
	f.waiters = append(f.waiters, w)
	return &Ticker{C: w.ch, stop: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.stopped = true
	}}
}

// Advance moves the fake's time forward by d, firing any waiters whose
// deadlines are crossed. Tickers that are crossed multiple times within
// one Advance deliver at most one tick, matching time.Ticker's drop
// behavior for a slow consumer.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLocked(f.now.Add(d))
}

// Set moves the fake's time to the given instant, which must not be
// earlier than the current time, firing crossed waiters as Advance does.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if now.Before(f.now) {
		panic("clock: Set moving time backwards")
	}
	f.setLocked(now)
}

func (f *Fake) setLocked(now time.Time) {
	f.now = now
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if w.stopped {
			continue
		}
		if !w.deadline.After(now) {
			select {
			case w.ch <- now:
			default:
			}
			if w.interval == 0 {
				continue
			}
			for !w.deadline.After(now) {
				w.deadline = w.deadline.Add(w.interval)
			}
		}
		kept = append(kept, w)
	}
	f.waiters = kept
}
