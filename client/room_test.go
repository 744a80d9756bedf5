// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lagoon-chat/lagoon/lib/testutil"
	"github.com/lagoon-chat/lagoon/remote"
	"github.com/lagoon-chat/lagoon/store"
)

// seedRoom plants a subscription and one message for a room so tests
// can observe whether local data survives.
func seedRoom(t *testing.T, st *store.Store, roomID string) {
	t.Helper()
	ctx := context.Background()
	err := st.UpsertSubscription(ctx, store.Subscription{
		RoomID: roomID, Name: "seeded", RoomType: "channel",
	})
	if err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}
	err = st.SaveMessage(ctx, store.Message{
		ID: roomID + "-m1", RoomID: roomID, Sender: "alice", Body: "seed",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
}

func roomDataPresent(t *testing.T, st *store.Store, roomID string) bool {
	t.Helper()
	_, found, err := st.Subscription(context.Background(), roomID)
	if err != nil {
		t.Fatalf("Subscription failed: %v", err)
	}
	return found
}

func TestOpenRoomRecordsSubscription(t *testing.T) {
	h := newTestHarness(t)

	h.core.Dispatch(OpenRoom{Room: Room{ID: "R1", Name: "general", Type: "channel"}})
	testutil.RequireReceive(t, h.session.subscribed, 5*time.Second, "waiting for feed")

	waitFor(t, "subscription recorded", func() bool {
		_, found, err := h.store.Subscription(context.Background(), "R1")
		return err == nil && found
	})
	subscription, _, err := h.store.Subscription(context.Background(), "R1")
	if err != nil {
		t.Fatalf("Subscription failed: %v", err)
	}
	if subscription.Name != "general" || subscription.RoomType != "channel" {
		t.Errorf("unexpected subscription record: %+v", subscription)
	}
}

func TestLeaveRoomSuccess(t *testing.T) {
	h := newTestHarness(t)
	seedRoom(t, h.store, "R1")

	h.core.Dispatch(LeaveRoom{RoomID: "R1"})

	// Navigation happens first, on server confirmation.
	testutil.RequireReceive(t, h.nav.popped, 5*time.Second, "waiting for navigation")

	// Deletion waits out the grace delay: with the timer registered but
	// not fired, the local data must still be there.
	h.clock.WaitForTimers(1)
	if !roomDataPresent(t, h.store, "R1") {
		t.Fatal("room data deleted before the grace delay elapsed")
	}

	h.clock.Advance(navigationGraceDelay)
	waitFor(t, "room data deletion", func() bool {
		return !roomDataPresent(t, h.store, "R1")
	})
}

func TestLeaveRoomLastOwner(t *testing.T) {
	h := newTestHarness(t)
	seedRoom(t, h.store, "R1")
	h.session.mu.Lock()
	h.session.leaveErr = &remote.ServiceError{Code: remote.ErrCodeLastOwner, StatusCode: 400}
	h.session.mu.Unlock()

	h.core.Dispatch(LeaveRoom{RoomID: "R1"})

	alert := testutil.RequireReceive(t, h.notifier.alerts, 5*time.Second, "waiting for notice")
	if alert != lastOwnerNotice {
		t.Errorf("alert = %q, want last-owner notice", alert)
	}

	// No navigation, no deletion: the user is still a member.
	select {
	case <-h.nav.popped:
		t.Error("navigated away after a rejected leave")
	default:
	}
	if !roomDataPresent(t, h.store, "R1") {
		t.Error("room data deleted after a rejected leave")
	}
}

func TestLeaveRoomFailure(t *testing.T) {
	h := newTestHarness(t)
	seedRoom(t, h.store, "R1")
	h.session.mu.Lock()
	h.session.leaveErr = errors.New("network down")
	h.session.mu.Unlock()

	h.core.Dispatch(LeaveRoom{RoomID: "R1"})

	alert := testutil.RequireReceive(t, h.notifier.alerts, 5*time.Second, "waiting for notice")
	if alert != leaveFailedNotice {
		t.Errorf("alert = %q, want leave-failed notice", alert)
	}
	if !roomDataPresent(t, h.store, "R1") {
		t.Error("room data deleted after a failed leave")
	}
}

func TestLeaveRoomClosesOpenRoom(t *testing.T) {
	h := newTestHarness(t)
	seedRoom(t, h.store, "R1")

	h.core.Dispatch(OpenRoom{Room: Room{ID: "R1", Name: "general"}})
	subscription := testutil.RequireReceive(t, h.session.subscribed, 5*time.Second, "waiting for feed")

	h.core.Dispatch(LeaveRoom{RoomID: "R1"})

	// Leaving unwinds the open room's feed before anything else.
	testutil.RequireClosed(t, subscription.stopped, 5*time.Second, "waiting for feed stop")
	testutil.RequireReceive(t, h.nav.popped, 5*time.Second, "waiting for navigation")

	// The teardown is not merely started first, it completes first: the
	// feed was already stopped when the leave call reached the server.
	if !h.session.feedWasStoppedAtLeave() {
		t.Error("leave call went out while the room feed was still live")
	}

	h.clock.WaitForTimers(1)
	h.clock.Advance(navigationGraceDelay)
	waitFor(t, "room data deletion", func() bool {
		return !roomDataPresent(t, h.store, "R1")
	})
}

func TestEraseRoom(t *testing.T) {
	t.Run("success navigates then deletes", func(t *testing.T) {
		h := newTestHarness(t)
		seedRoom(t, h.store, "R1")

		h.core.Dispatch(EraseRoom{RoomID: "R1"})
		testutil.RequireReceive(t, h.nav.popped, 5*time.Second, "waiting for navigation")

		h.clock.WaitForTimers(1)
		if !roomDataPresent(t, h.store, "R1") {
			t.Fatal("room data deleted before the grace delay elapsed")
		}
		h.clock.Advance(navigationGraceDelay)
		waitFor(t, "room data deletion", func() bool {
			return !roomDataPresent(t, h.store, "R1")
		})
	})

	t.Run("failure surfaces a notice and keeps data", func(t *testing.T) {
		h := newTestHarness(t)
		seedRoom(t, h.store, "R1")
		h.session.mu.Lock()
		h.session.eraseErr = errors.New("not allowed")
		h.session.mu.Unlock()

		h.core.Dispatch(EraseRoom{RoomID: "R1"})

		alert := testutil.RequireReceive(t, h.notifier.alerts, 5*time.Second, "waiting for notice")
		if alert != eraseFailedNotice {
			t.Errorf("alert = %q, want erase-failed notice", alert)
		}
		if !roomDataPresent(t, h.store, "R1") {
			t.Error("room data deleted after a failed erase")
		}
	})
}
