// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// The sync core is full of fixed timing behavior: the 5-second typing
// expiry, the 5-second self-typing auto-clear, and the 1-second
// navigation grace delay before room data is deleted. Production code
// accepts a Clock parameter instead of calling time.Now or time.After
// directly, so tests can drive these timers deterministically.
//
// In production, Real() provides standard library behavior. In tests,
// Fake() provides a clock that advances only when Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	core := client.New(client.Config{Clock: c, ...})
//	// ... trigger a typing signal ...
//	c.WaitForTimers(1)         // wait for the expiry race to register
//	c.Advance(5 * time.Second) // fire it deterministically
//
// WaitForTimers eliminates the race between a goroutine registering a
// timer and the test advancing the clock.
package clock
