// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"sync"
	"time"
)

// longPollTimeout is the server-side long-poll hold time in
// milliseconds for normal room event polls. The server holds the
// connection for up to this duration, returning immediately when new
// events arrive.
const longPollTimeout = 30000

// retryTimeout is the server-side timeout in milliseconds used after a
// poll error. Short so the retry completes quickly and the next
// attempt can proceed.
const retryTimeout = 1000

// maxRetryBackoff caps the client-side wait between failed polls.
const maxRetryBackoff = 30 * time.Second

// RoomSubscription is the live feed for one open room. It long-polls
// the room events endpoint on a background goroutine and fans events
// out to the Messages and Typing channels.
//
// The handle is singly owned: the routine that opened it calls Stop
// exactly once when the room closes. Stop is idempotent and blocks
// until the poll loop has exited, so after Stop returns no further
// event is delivered. Both channels are closed when the loop exits.
type RoomSubscription struct {
	session  *DirectSession
	roomID   string
	messages chan Message
	typing   chan TypingSignal

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// SubscribeRoom opens the live feed for a room. It performs an
// immediate poll (timeout=0) to anchor the feed at the current stream
// position — the feed only sees events arriving after this call — then
// starts the long-poll loop.
//
// The ctx bounds only the anchoring call. The loop itself runs until
// Stop, because the handle outlives the call that created it.
func (s *DirectSession) SubscribeRoom(ctx context.Context, roomID string) (Subscription, error) {
	anchor, err := s.roomEvents(ctx, roomID, "", 0)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	subscription := &RoomSubscription{
		session:  s,
		roomID:   roomID,
		messages: make(chan Message, 16),
		typing:   make(chan TypingSignal, 16),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go subscription.run(runCtx, anchor.NextBatch)

	s.client.logger.Info("room subscription opened", "room_id", roomID)
	return subscription, nil
}

// Messages delivers timeline messages for the room.
func (s *RoomSubscription) Messages() <-chan Message { return s.messages }

// Typing delivers ephemeral typing signals for the room.
func (s *RoomSubscription) Typing() <-chan TypingSignal { return s.typing }

// RoomID returns the room this subscription feeds.
func (s *RoomSubscription) RoomID() string { return s.roomID }

// Stop tears the feed down. Blocks until the poll loop has exited.
// Idempotent — safe to call multiple times.
func (s *RoomSubscription) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
		s.session.client.logger.Info("room subscription stopped", "room_id", s.roomID)
	})
}

// run is the long-poll loop. On transient errors it retries with
// exponential backoff (1s → 30s) and a short server-side timeout, like
// a sync loop: the feed never gives up on its own, only Stop ends it.
func (s *RoomSubscription) run(ctx context.Context, since string) {
	defer close(s.done)
	defer close(s.typing)
	defer close(s.messages)

	backoff := time.Second
	failing := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollTimeout := longPollTimeout
		if failing {
			pollTimeout = retryTimeout
		}

		response, err := s.session.roomEvents(ctx, s.roomID, since, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failing = true
			s.session.client.logger.Warn("room events poll failed, retrying",
				"room_id", s.roomID,
				"backoff", backoff,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxRetryBackoff {
				backoff = maxRetryBackoff
			}
			continue
		}
		failing = false
		backoff = time.Second
		since = response.NextBatch

		for _, event := range response.Events {
			switch event.Type {
			case EventTypeMessage:
				if event.Message == nil {
					continue
				}
				select {
				case s.messages <- *event.Message:
				case <-ctx.Done():
					return
				}
			case EventTypeTyping:
				if event.Typing == nil {
					continue
				}
				select {
				case s.typing <- *event.Typing:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
