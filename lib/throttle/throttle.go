// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package throttle rate-limits spoken issue announcements so a flapping
// condition (a stream reconnecting every poll, frames dropping on every
// status update) produces one announcement per interval instead of a
// stream of them.
//
// By default all issue classes share one limiter: an announcement of
// any class silences every class for the interval. With
// [Options.PerClass] each class gets its own limiter.
package throttle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/obsmenu/lib/clock"
)

// DefaultInterval is the minimum time between two announcements.
const DefaultInterval = 10 * time.Second

// boundarySlack absorbs float64 rounding inside rate when converting
// an elapsed duration back into tokens, so a call exactly one interval
// after the last announcement is admitted.
const boundarySlack = time.Microsecond

// Options configures a Throttle.
type Options struct {
	// Interval between announcements. Zero means DefaultInterval.
	Interval time.Duration

	// PerClass gives every issue class its own limiter.
	PerClass bool
}

// Throttle decides whether an issue announcement may be made now.
type Throttle struct {
	clock    clock.Clock
	interval time.Duration
	perClass bool

	mu       sync.Mutex
	shared   *rate.Limiter
	limiters map[string]*rate.Limiter
}

// New returns a Throttle reading time from clk.
func New(clk clock.Clock, options Options) *Throttle {
	interval := options.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle{
		clock:    clk,
		interval: interval,
		perClass: options.PerClass,
		shared:   newLimiter(interval),
		limiters: make(map[string]*rate.Limiter),
	}
}

func newLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Allow reports whether an announcement of class may be made now. A
// true result records the announcement.
func (t *Throttle) Allow(class string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limiter(class).AllowN(t.clock.Now().Add(boundarySlack), 1)
}

// Interval returns the configured interval.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Reset forgets every recorded announcement.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shared = newLimiter(t.interval)
	clear(t.limiters)
}

func (t *Throttle) limiter(class string) *rate.Limiter {
	if !t.perClass {
		return t.shared
	}
	limiter, exists := t.limiters[class]
	if !exists {
		limiter = newLimiter(t.interval)
		t.limiters[class] = limiter
	}
	return limiter
}
