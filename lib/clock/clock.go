// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for actors, the host pump, the OBS retry
// deadlines and the issue throttle.
type Clock interface {
	Now() time.Time

	// After is NewTimer(d).C for callers that never stop the timer.
	After(d time.Duration) <-chan time.Time

	// NewTimer fires once after d. A non-positive d fires at once.
	NewTimer(d time.Duration) *Timer

	// NewTicker fires every d and panics if d <= 0. C has capacity 1,
	// so a slow reader loses ticks.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a one-shot timer.
type Timer struct {
	C    <-chan time.Time
	stop func() bool
}

// Stop prevents the timer from firing. It reports whether the timer
// was still pending.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker is a periodic timer.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off without closing C.
func (t *Ticker) Stop() { t.stop() }

// Elapsed reports whether at least d has passed on c since start.
func Elapsed(c Clock, start time.Time, d time.Duration) bool {
	return c.Now().Sub(start) >= d
}
