// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the injectable time source. Service actors park on
// its timers between steps, the host pumps on its ticker, and the OBS
// client and the issue throttle read Now for their deadlines.
//
// Production code uses [Real]. Tests use [Fake] and move time by hand:
//
//	c := clock.Fake(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
//	actor := service.NewActor("obs", service.ActorOptions{Clock: c})
//	// ... start the actor ...
//	c.WaitForTimers(1)                // the loop is parked in its idle wait
//	c.Advance(100 * time.Millisecond) // wake it deterministically
package clock
