// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations the sync core uses. Production
// code injects Real(); tests inject Fake() with deterministic control.
//
// The interface is deliberately small: the core only ever reads the
// current time and waits on one-shot timers. Tickers and AfterFunc are
// not part of the core's timing model — a race between a timer and a
// signal is expressed as a select over After and a channel.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
