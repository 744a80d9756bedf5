// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"time"

	"github.com/lagoon-chat/lagoon/remote"
	"github.com/lagoon-chat/lagoon/store"
)

// navigationGraceDelay separates the post-leave navigation from the
// local deletion of room data. Popping to the room list first and
// deleting a beat later keeps the closing room view from rendering
// against rows that are vanishing under it.
const navigationGraceDelay = time.Second

// runRoom is the handler for one room-open. It holds the room's live
// feed open until the room closes (CloseRoom or LeaveRoom signals it),
// the open is superseded by a newer OpenRoom, or the core shuts down.
// On every exit path the feed is stopped, the typing roster and draft
// are cleared, and the current room is unset.
func (c *Core) runRoom(ctx context.Context, room Room) {
	// A close signal queued for a previous room is stale once this
	// handler owns the slot.
	select {
	case <-c.roomClosed:
	default:
	}

	c.state.setCurrentRoom(room)
	c.state.setLoading(true)
	c.logger.Info("room opened", "room_id", room.ID, "name", room.Name)

	// Opening records the membership locally, so backgrounding can
	// stamp the last-open time and the next launch can reopen the room.
	err := c.store.UpsertSubscription(ctx, store.Subscription{
		RoomID:   room.ID,
		Name:     room.Name,
		RoomType: room.Type,
	})
	if err != nil {
		c.logger.Error("subscription record failed", "room_id", room.ID, "error", err)
	}

	defer func() {
		c.state.clearTyping(room.ID)
		c.state.clearDraft()
		c.state.clearCurrentRoom()
		c.logger.Info("room closed", "room_id", room.ID)
	}()

	// Opening a room reads it: clear the unread marker right away, not
	// after the feed settles.
	c.session.ReadMessages(room.ID)

	subscription, err := c.session.SubscribeRoom(ctx, room.ID)
	c.state.setLoading(false)
	if err != nil {
		c.logger.Error("room feed failed to open", "room_id", room.ID, "error", err)
		return
	}

	watcherCtx, cancelWatcher := context.WithCancel(ctx)
	watcherDone := make(chan struct{})
	go c.watchTyping(watcherCtx, room.ID, subscription.Typing(), watcherDone)

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for message := range subscription.Messages() {
			c.Dispatch(MessageReceived{Message: message})
		}
	}()

	select {
	case <-ctx.Done():
	case <-c.roomClosed:
	}

	// Teardown order matters: stop the feed first so the watcher and
	// forwarder drain closed channels, then wait for both.
	subscription.Stop()
	cancelWatcher()
	<-watcherDone
	<-forwardDone
}

// runMessageReceived caches one live message and refreshes the room's
// read marker. Messages for rooms other than the current one are
// dropped: they came from a feed that is already unwinding.
func (c *Core) runMessageReceived(ctx context.Context, message remote.Message) {
	room, ok := c.state.CurrentRoom()
	if !ok || room.ID != message.RoomID {
		c.logger.Debug("dropping message for inactive room",
			"room_id", message.RoomID,
			"message_id", message.ID,
		)
		return
	}

	err := c.store.SaveMessage(ctx, store.Message{
		ID:        message.ID,
		RoomID:    message.RoomID,
		Sender:    message.Sender,
		Body:      message.Body,
		Timestamp: message.Timestamp,
	})
	if err != nil {
		c.logger.Error("message save failed", "message_id", message.ID, "error", err)
		return
	}

	// The room is on screen, so the new message is already seen.
	c.session.ReadMessages(message.RoomID)
}

// runLeave leaves a room. The open room's feed is fully torn down
// before the server call goes out, the local copy of the room is
// deleted only after the server confirms, and only after navigation
// has settled. A last-owner rejection surfaces a notice and leaves all
// data intact.
func (c *Core) runLeave(ctx context.Context, roomID string, roomDone <-chan struct{}) {
	c.signalRoomClosed()
	select {
	case <-roomDone:
	case <-ctx.Done():
		return
	}

	if err := c.session.LeaveRoom(ctx, roomID); err != nil {
		if remote.IsServiceError(err, remote.ErrCodeLastOwner) {
			c.logger.Info("leave rejected, user is last owner", "room_id", roomID)
			c.notify.Alert(lastOwnerNotice)
			return
		}
		c.logger.Error("leave failed", "room_id", roomID, "error", err)
		c.notify.Alert(leaveFailedNotice)
		return
	}

	c.nav.PopToRoot()
	select {
	case <-ctx.Done():
		return
	case <-c.clock.After(navigationGraceDelay):
	}

	if err := c.store.DeleteRoomData(ctx, roomID); err != nil {
		c.logger.Error("room data deletion failed", "room_id", roomID, "error", err)
	}
}

// runErase deletes a room server-side, then mirrors runLeave's
// teardown-first and navigate-then-delete sequences.
func (c *Core) runErase(ctx context.Context, roomID string, roomDone <-chan struct{}) {
	c.signalRoomClosed()
	select {
	case <-roomDone:
	case <-ctx.Done():
		return
	}

	if err := c.session.EraseRoom(ctx, roomID); err != nil {
		c.logger.Error("erase failed", "room_id", roomID, "error", err)
		c.notify.Alert(eraseFailedNotice)
		return
	}

	c.nav.PopToRoot()
	select {
	case <-ctx.Done():
		return
	case <-c.clock.After(navigationGraceDelay):
	}

	if err := c.store.DeleteRoomData(ctx, roomID); err != nil {
		c.logger.Error("room data deletion failed", "room_id", roomID, "error", err)
	}
}
