// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "lagoon.db"), PoolSize: 1})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}

func TestSettingsMerge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("empty store has zero watermark", func(t *testing.T) {
		watermark, err := s.LastSettingUpdate(ctx)
		if err != nil {
			t.Fatalf("LastSettingUpdate failed: %v", err)
		}
		if !watermark.IsZero() {
			t.Errorf("watermark = %v, want zero", watermark)
		}
	})

	mergeTime := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	batch := []Setting{
		{Key: "Site_Name", Value: "Lagoon", Type: "string"},
		{Key: "Message_MaxLength", Value: "5000", Type: "int"},
	}

	t.Run("merge stamps all rows with the merge time", func(t *testing.T) {
		if err := s.UpsertSettings(ctx, batch, mergeTime); err != nil {
			t.Fatalf("UpsertSettings failed: %v", err)
		}

		settings, err := s.Settings(ctx)
		if err != nil {
			t.Fatalf("Settings failed: %v", err)
		}
		if len(settings) != 2 {
			t.Fatalf("got %d settings, want 2", len(settings))
		}
		if settings["Site_Name"].Value != "Lagoon" {
			t.Errorf("Site_Name = %q", settings["Site_Name"].Value)
		}
		if !settings["Site_Name"].UpdatedAt.Equal(mergeTime) {
			t.Errorf("UpdatedAt = %v, want %v", settings["Site_Name"].UpdatedAt, mergeTime)
		}

		watermark, err := s.LastSettingUpdate(ctx)
		if err != nil {
			t.Fatalf("LastSettingUpdate failed: %v", err)
		}
		if !watermark.Equal(mergeTime) {
			t.Errorf("watermark = %v, want %v", watermark, mergeTime)
		}
	})

	t.Run("re-merge overwrites and advances the watermark", func(t *testing.T) {
		laterTime := mergeTime.Add(time.Hour)
		update := []Setting{{Key: "Site_Name", Value: "Lagoon Beta", Type: "string"}}
		if err := s.UpsertSettings(ctx, update, laterTime); err != nil {
			t.Fatalf("UpsertSettings failed: %v", err)
		}

		settings, err := s.Settings(ctx)
		if err != nil {
			t.Fatalf("Settings failed: %v", err)
		}
		if len(settings) != 2 {
			t.Fatalf("got %d settings, want 2 (merge must not drop rows)", len(settings))
		}
		if settings["Site_Name"].Value != "Lagoon Beta" {
			t.Errorf("Site_Name = %q, want updated value", settings["Site_Name"].Value)
		}

		watermark, err := s.LastSettingUpdate(ctx)
		if err != nil {
			t.Fatalf("LastSettingUpdate failed: %v", err)
		}
		if !watermark.Equal(laterTime) {
			t.Errorf("watermark = %v, want %v", watermark, laterTime)
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		before, _ := s.LastSettingUpdate(ctx)
		if err := s.UpsertSettings(ctx, nil, mergeTime.Add(48*time.Hour)); err != nil {
			t.Fatalf("UpsertSettings failed: %v", err)
		}
		after, _ := s.LastSettingUpdate(ctx)
		if !after.Equal(before) {
			t.Errorf("watermark moved on empty batch: %v -> %v", before, after)
		}
	})
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := Message{
		ID: "m1", RoomID: "R1", Sender: "alice", Body: "hello",
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	second := Message{
		ID: "m2", RoomID: "R1", Sender: "bob", Body: "hi",
		Timestamp: first.Timestamp.Add(time.Minute),
	}
	other := Message{
		ID: "m3", RoomID: "R2", Sender: "carol", Body: "elsewhere",
		Timestamp: first.Timestamp,
	}

	for _, message := range []Message{second, first, other} {
		if err := s.SaveMessage(ctx, message); err != nil {
			t.Fatalf("SaveMessage %s failed: %v", message.ID, err)
		}
	}

	t.Run("timeline order per room", func(t *testing.T) {
		messages, err := s.RoomMessages(ctx, "R1")
		if err != nil {
			t.Fatalf("RoomMessages failed: %v", err)
		}
		if len(messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(messages))
		}
		if messages[0].ID != "m1" || messages[1].ID != "m2" {
			t.Errorf("wrong order: %s, %s", messages[0].ID, messages[1].ID)
		}
	})

	t.Run("resave overwrites for edits", func(t *testing.T) {
		edited := first
		edited.Body = "hello (edited)"
		if err := s.SaveMessage(ctx, edited); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
		messages, err := s.RoomMessages(ctx, "R1")
		if err != nil {
			t.Fatalf("RoomMessages failed: %v", err)
		}
		if len(messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(messages))
		}
		if messages[0].Body != "hello (edited)" {
			t.Errorf("body = %q", messages[0].Body)
		}
	})
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	subscription := Subscription{RoomID: "R1", Name: "general", RoomType: "channel"}
	if err := s.UpsertSubscription(ctx, subscription); err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}

	t.Run("lookup", func(t *testing.T) {
		got, found, err := s.Subscription(ctx, "R1")
		if err != nil {
			t.Fatalf("Subscription failed: %v", err)
		}
		if !found {
			t.Fatal("subscription not found")
		}
		if got.Name != "general" || got.RoomType != "channel" {
			t.Errorf("unexpected subscription: %+v", got)
		}

		_, found, err = s.Subscription(ctx, "unknown")
		if err != nil {
			t.Fatalf("Subscription failed: %v", err)
		}
		if found {
			t.Error("found a subscription for an unknown room")
		}
	})

	t.Run("last open stamp", func(t *testing.T) {
		openedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
		if err := s.SetLastOpen(ctx, "R1", openedAt); err != nil {
			t.Fatalf("SetLastOpen failed: %v", err)
		}
		got, _, err := s.Subscription(ctx, "R1")
		if err != nil {
			t.Fatalf("Subscription failed: %v", err)
		}
		if !got.LastOpenAt.Equal(openedAt) {
			t.Errorf("LastOpenAt = %v, want %v", got.LastOpenAt, openedAt)
		}

		// Refreshing the membership record must not roll the stamp back.
		if err := s.UpsertSubscription(ctx, Subscription{RoomID: "R1", Name: "general-renamed", RoomType: "channel"}); err != nil {
			t.Fatalf("UpsertSubscription failed: %v", err)
		}
		got, _, err = s.Subscription(ctx, "R1")
		if err != nil {
			t.Fatalf("Subscription failed: %v", err)
		}
		if got.Name != "general-renamed" {
			t.Errorf("name = %q", got.Name)
		}
		if !got.LastOpenAt.Equal(openedAt) {
			t.Errorf("LastOpenAt rolled back to %v", got.LastOpenAt)
		}
	})
}

func TestDeleteRoomData(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpsertSubscription(ctx, Subscription{RoomID: "R1", Name: "doomed", RoomType: "channel"}); err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}
	if err := s.UpsertSubscription(ctx, Subscription{RoomID: "R2", Name: "kept", RoomType: "channel"}); err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}
	for _, message := range []Message{
		{ID: "m1", RoomID: "R1", Sender: "alice", Body: "x", Timestamp: time.Now()},
		{ID: "m2", RoomID: "R1", Sender: "bob", Body: "y", Timestamp: time.Now()},
		{ID: "m3", RoomID: "R2", Sender: "carol", Body: "z", Timestamp: time.Now()},
	} {
		if err := s.SaveMessage(ctx, message); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	if err := s.DeleteRoomData(ctx, "R1"); err != nil {
		t.Fatalf("DeleteRoomData failed: %v", err)
	}

	messages, err := s.RoomMessages(ctx, "R1")
	if err != nil {
		t.Fatalf("RoomMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("R1 still has %d messages", len(messages))
	}
	if _, found, _ := s.Subscription(ctx, "R1"); found {
		t.Error("R1 subscription survived deletion")
	}

	// The other room is untouched.
	messages, err = s.RoomMessages(ctx, "R2")
	if err != nil {
		t.Fatalf("RoomMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Errorf("R2 has %d messages, want 1", len(messages))
	}
	if _, found, _ := s.Subscription(ctx, "R2"); !found {
		t.Error("R2 subscription missing")
	}
}
