// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"container/heap"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only through Advance. It is
// safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  timerQueue
	created uint64
	changed *sync.Cond
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

type fakeTimer struct {
	deadline time.Time
	// order breaks deadline ties by creation.
	order   uint64
	period  time.Duration
	channel chan time.Time
	// index is the heap position, or -1 once removed.
	index int
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	return c.NewTimer(d).C
}

func (c *FakeClock) NewTimer(d time.Duration) *Timer {
	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.Now()
		return &Timer{C: channel, stop: func() bool { return false }}
	}
	timer := c.schedule(d, 0, channel)
	return &Timer{C: channel, stop: func() bool { return c.cancel(timer) }}
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	channel := make(chan time.Time, 1)
	timer := c.schedule(d, d, channel)
	return &Ticker{C: channel, stop: func() { c.cancel(timer) }}
}

func (c *FakeClock) schedule(d, period time.Duration, channel chan time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created++
	timer := &fakeTimer{
		deadline: c.now.Add(d),
		order:    c.created,
		period:   period,
		channel:  channel,
	}
	heap.Push(&c.timers, timer)
	c.changed.Broadcast()
	return timer
}

func (c *FakeClock) cancel(timer *fakeTimer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer.index < 0 {
		return false
	}
	heap.Remove(&c.timers, timer.index)
	return true
}

// Advance moves time forward by d, firing due timers in deadline
// order. Each fire sees Now equal to its own deadline; a full ticker
// channel drops the tick.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.now.Add(d)
	for len(c.timers) > 0 && !c.timers[0].deadline.After(target) {
		timer := c.timers[0]
		c.now = timer.deadline
		select {
		case timer.channel <- timer.deadline:
		default:
		}
		if timer.period > 0 {
			timer.deadline = timer.deadline.Add(timer.period)
			heap.Fix(&c.timers, 0)
		} else {
			heap.Pop(&c.timers)
		}
	}
	c.now = target
}

// WaitForTimers blocks until at least n timers or tickers are pending.
// Tests call it before Advance so a goroutine that is about to park on
// a timer cannot miss the fire.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.timers) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of pending timers and tickers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// timerQueue is a min-heap on (deadline, order).
type timerQueue []*fakeTimer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].order < q[j].order
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	timer := x.(*fakeTimer)
	timer.index = len(*q)
	*q = append(*q, timer)
}

func (q *timerQueue) Pop() any {
	old := *q
	timer := old[len(old)-1]
	old[len(old)-1] = nil
	timer.index = -1
	*q = old[:len(old)-1]
	return timer
}
