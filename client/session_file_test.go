// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lagoon-chat/lagoon/lib/clock"
	"github.com/lagoon-chat/lagoon/lib/testutil"
	"github.com/lagoon-chat/lagoon/store"
)

func TestSessionFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cbor")

	original := SessionFile{
		ServerURL:         "https://chat.example.com",
		UserID:            "u-alice",
		AuthToken:         "tok-alice",
		LastRoomID:        "R1",
		LastOpenAt:        time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		SettingsWatermark: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := WriteSessionFile(path, original); err != nil {
		t.Fatalf("WriteSessionFile failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("session file mode = %o, want 600", mode)
	}

	restored, found, err := ReadSessionFile(path)
	if err != nil {
		t.Fatalf("ReadSessionFile failed: %v", err)
	}
	if !found {
		t.Fatal("session file not found after write")
	}
	if restored.UserID != original.UserID || restored.AuthToken != original.AuthToken {
		t.Errorf("credentials mismatch: %+v", restored)
	}
	if restored.LastRoomID != "R1" {
		t.Errorf("LastRoomID = %q", restored.LastRoomID)
	}
	if !restored.LastOpenAt.Equal(original.LastOpenAt) {
		t.Errorf("LastOpenAt = %v, want %v", restored.LastOpenAt, original.LastOpenAt)
	}
	if !restored.SettingsWatermark.Equal(original.SettingsWatermark) {
		t.Errorf("SettingsWatermark = %v, want %v", restored.SettingsWatermark, original.SettingsWatermark)
	}
}

func TestReadSessionFileMissing(t *testing.T) {
	_, found, err := ReadSessionFile(filepath.Join(t.TempDir(), "absent.cbor"))
	if err != nil {
		t.Fatalf("ReadSessionFile failed: %v", err)
	}
	if found {
		t.Error("found a session file that does not exist")
	}
}

func TestWriteSessionFileReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cbor")

	if err := WriteSessionFile(path, SessionFile{UserID: "u-old"}); err != nil {
		t.Fatalf("WriteSessionFile failed: %v", err)
	}
	if err := WriteSessionFile(path, SessionFile{UserID: "u-new"}); err != nil {
		t.Fatalf("WriteSessionFile failed: %v", err)
	}

	restored, _, err := ReadSessionFile(path)
	if err != nil {
		t.Fatalf("ReadSessionFile failed: %v", err)
	}
	if restored.UserID != "u-new" {
		t.Errorf("UserID = %q, want u-new", restored.UserID)
	}

	// No temp file debris left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want just the session file", len(entries))
	}
}

func TestBackgroundedWritesSessionState(t *testing.T) {
	ctx := context.Background()
	statePath := filepath.Join(t.TempDir(), "session.cbor")

	session := newFakeSession()
	st, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "lagoon.db"), PoolSize: 1})
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	defer st.Close()

	openedAt := time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)
	fakeClock := clock.Fake(openedAt)

	core, err := New(Config{
		Session:   session,
		Store:     st,
		Clock:     fakeClock,
		ServerURL: "https://chat.example.com",
		AuthToken: "tok-test",
		StatePath: statePath,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		core.Run(runCtx)
	}()
	defer func() {
		cancel()
		testutil.RequireClosed(t, runDone, 5*time.Second, "waiting for core to stop")
	}()

	// No seeding: opening the room must create the subscription row
	// itself, or the last-open stamp below has nothing to update.
	core.Dispatch(OpenRoom{Room: Room{ID: "R1", Name: "general", Type: "channel"}})
	testutil.RequireReceive(t, session.subscribed, 5*time.Second, "waiting for feed")

	core.Dispatch(Backgrounded{})
	waitFor(t, "session file", func() bool {
		_, found, err := ReadSessionFile(statePath)
		return err == nil && found
	})

	file, _, err := ReadSessionFile(statePath)
	if err != nil {
		t.Fatalf("ReadSessionFile failed: %v", err)
	}
	if file.ServerURL != "https://chat.example.com" || file.AuthToken != "tok-test" {
		t.Errorf("session identity mismatch: %+v", file)
	}
	if file.UserID != "u-test" {
		t.Errorf("UserID = %q", file.UserID)
	}
	if file.LastRoomID != "R1" {
		t.Errorf("LastRoomID = %q, want R1", file.LastRoomID)
	}
	if !file.LastOpenAt.Equal(openedAt) {
		t.Errorf("LastOpenAt = %v, want %v", file.LastOpenAt, openedAt)
	}

	subscription, found, err := st.Subscription(ctx, "R1")
	if err != nil || !found {
		t.Fatalf("Subscription lookup failed: found=%v err=%v", found, err)
	}
	if !subscription.LastOpenAt.Equal(openedAt) {
		t.Errorf("stored LastOpenAt = %v, want %v", subscription.LastOpenAt, openedAt)
	}
}
