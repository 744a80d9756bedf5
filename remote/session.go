// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"time"
)

// Session is the interface the sync core consumes for remote
// operations. The production implementation is [*DirectSession];
// tests substitute fakes.
type Session interface {
	// UserID returns the authenticated user's ID.
	UserID() string

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// PublicSettings pulls public settings. A nil since requests the
	// full set; otherwise only settings updated after since are
	// returned. The server's array and update-envelope response shapes
	// are both normalized to one slice.
	PublicSettings(ctx context.Context, since *time.Time) ([]SettingRecord, error)

	// SubscribeRoom opens the live feed for a room. The returned
	// handle must be stopped exactly once by its owner.
	SubscribeRoom(ctx context.Context, roomID string) (Subscription, error)

	// EmitTyping announces the local user's typing state in a room.
	EmitTyping(ctx context.Context, roomID string, typing bool) error

	// LeaveRoom removes the user's membership in a room. Returns a
	// *ServiceError with ErrCodeLastOwner when the user is the room's
	// last owner.
	LeaveRoom(ctx context.Context, roomID string) error

	// EraseRoom deletes a room on the server.
	EraseRoom(ctx context.Context, roomID string) error

	// AddUsersToRoom invites the given usernames to a room.
	AddUsersToRoom(ctx context.Context, roomID string, usernames []string) error

	// Spotlight searches the user and room directories, excluding the
	// given usernames from results.
	Spotlight(ctx context.Context, query string, excluded []string, opts SpotlightOptions) (*SpotlightResult, error)

	// ReadMessages marks a room read. Fire-and-forget: it returns
	// immediately and failures are logged, not reported.
	ReadMessages(roomID string)
}

// Subscription is a live per-room feed. Messages and Typing deliver
// events until Stop is called or the feed fails permanently; both
// channels are closed when the feed ends.
type Subscription interface {
	// Messages delivers timeline messages for the room.
	Messages() <-chan Message

	// Typing delivers ephemeral typing signals for the room.
	Typing() <-chan TypingSignal

	// Stop tears the feed down and blocks until the poll loop has
	// exited. Idempotent.
	Stop()
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
