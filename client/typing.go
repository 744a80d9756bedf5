// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"time"

	"github.com/lagoon-chat/lagoon/remote"
)

// typingExpiry is how long a remote user stays in the typing roster
// without a fresh signal. Servers do not reliably send a stop signal
// for every start, so each entry carries its own expiry.
const typingExpiry = 5 * time.Second

// typingAutoClear bounds the local user's own typing announcement:
// after emitting typing=true, a stop is emitted automatically unless a
// newer keystroke superseded the handler first.
const typingAutoClear = 5 * time.Second

// expiredTyping is an expiry timer's report. It carries the stop
// channel of the roster entry the timer was armed for: a stop and a
// deadline can both be ready in the timer's final select, so a report
// may arrive for an entry that was already removed and re-added. The
// channel identity lets the watcher tell that stale report from one
// for the live entry.
type expiredTyping struct {
	username string
	stop     chan struct{}
}

// watchTyping maintains the typing roster for one open room. It is the
// sole owner of the per-user expiry bookkeeping; expiry timers report
// back over the expired channel rather than mutating shared state.
//
// Signal handling is idempotent: a typing=true for a user already in
// the roster is ignored (their existing expiry keeps running), and a
// typing=false for an absent user is a no-op.
func (c *Core) watchTyping(ctx context.Context, roomID string, signals <-chan remote.TypingSignal, done chan<- struct{}) {
	defer close(done)

	// stop channels cancel the per-user expiry timers. Owned entirely
	// by this goroutine.
	stops := make(map[string]chan struct{})
	expired := make(chan expiredTyping)
	defer func() {
		for _, stop := range stops {
			close(stop)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case report := <-expired:
			if stops[report.username] != report.stop {
				// Stale: the entry this timer was armed for is gone.
				continue
			}
			delete(stops, report.username)
			c.state.removeTypingUser(roomID, report.username)
			c.logger.Debug("typing expired", "room_id", roomID, "username", report.username)

		case signal, ok := <-signals:
			if !ok {
				return
			}
			if signal.Typing {
				if _, ok := stops[signal.Username]; ok {
					continue
				}
				stop := make(chan struct{})
				stops[signal.Username] = stop
				c.state.addTypingUser(roomID, signal.Username)
				go c.expireTyping(ctx, signal.Username, stop, expired)
			} else {
				stop, ok := stops[signal.Username]
				if !ok {
					continue
				}
				delete(stops, signal.Username)
				close(stop)
				c.state.removeTypingUser(roomID, signal.Username)
			}
		}
	}
}

// expireTyping is the per-user expiry timer: a race between the stop
// signal (the user stopped typing, or the room closed) and the expiry
// deadline. Only a deadline win reports back.
func (c *Core) expireTyping(ctx context.Context, username string, stop chan struct{}, expired chan<- expiredTyping) {
	select {
	case <-ctx.Done():
	case <-stop:
	case <-c.clock.After(typingExpiry):
		select {
		case expired <- expiredTyping{username: username, stop: stop}:
		case <-ctx.Done():
		case <-stop:
			// Removed while reporting; the watcher would discard the
			// report as stale anyway.
		}
	}
}

// runSelfTyping announces the local user's typing state in the current
// room. It waits for authentication first: a keystroke can land while
// a resumed session is still logging in. After announcing typing=true
// it holds for the auto-clear window and then emits the stop, unless a
// newer keystroke superseded this handler.
func (c *Core) runSelfTyping(ctx context.Context, typing bool) {
	if !c.state.Authenticated() {
		select {
		case <-ctx.Done():
			return
		case <-c.state.authDone():
		}
	}

	room, ok := c.state.CurrentRoom()
	if !ok {
		return
	}

	if err := c.session.EmitTyping(ctx, room.ID, typing); err != nil {
		c.logger.Warn("typing emission failed", "room_id", room.ID, "error", err)
		return
	}
	if !typing {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-c.clock.After(typingAutoClear):
	}

	if err := c.session.EmitTyping(ctx, room.ID, false); err != nil {
		c.logger.Warn("typing auto-clear failed", "room_id", room.ID, "error", err)
	}
}
