// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code
// injects Real(); tests inject a Fake with deterministic control over
// when the idle scheduler wakes, when dialog waits time out, and when
// transient notices expire.
package clock

import "time"

// Clock is the time surface used by the daemon. Anything that would
// call time.Now, time.After, time.AfterFunc, or time.NewTicker takes
// a Clock instead.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time

	// AfterFunc schedules f to run after d. The returned stop
	// function cancels the pending call; it reports whether the
	// cancellation happened before f ran.
	AfterFunc(d time.Duration, f func()) (stop func() bool)

	// NewTicker returns a Ticker delivering ticks every d. Panics if
	// d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. Stop releases it; C is never
// closed.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. No ticks arrive after Stop returns.
func (t *Ticker) Stop() { t.stop() }
