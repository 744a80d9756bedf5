// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	if !c.Now().Equal(start) {
		t.Errorf("Now = %v, want %v", c.Now(), start)
	}

	c.Advance(90 * time.Second)
	if !c.Now().Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now after advance = %v, want %v", c.Now(), start.Add(90*time.Second))
	}
}

func TestFakeAfter(t *testing.T) {
	t.Run("fires at deadline", func(t *testing.T) {
		c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		ch := c.After(5 * time.Second)

		c.Advance(4 * time.Second)
		select {
		case <-ch:
			t.Fatal("timer fired before deadline")
		default:
		}

		c.Advance(1 * time.Second)
		select {
		case <-ch:
		default:
			t.Fatal("timer did not fire at deadline")
		}
	})

	t.Run("non-positive duration fires immediately", func(t *testing.T) {
		c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		select {
		case <-c.After(0):
		default:
			t.Fatal("After(0) did not fire immediately")
		}
		if c.PendingCount() != 0 {
			t.Errorf("PendingCount = %d, want 0", c.PendingCount())
		}
	})

	t.Run("deadline order", func(t *testing.T) {
		c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		second := c.After(2 * time.Second)
		first := c.After(1 * time.Second)

		c.Advance(3 * time.Second)

		firstAt := <-first
		secondAt := <-second
		if firstAt.After(secondAt) {
			t.Error("waiters fired out of deadline order")
		}
	})
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	fired := make(chan struct{})
	go func() {
		<-c.After(5 * time.Second)
		close(fired)
	}()

	c.WaitForTimers(1)
	c.Advance(5 * time.Second)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer goroutine never observed the advance")
	}
}
