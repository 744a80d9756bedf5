// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lagoon-chat/lagoon/lib/codec"
)

// SessionFile is the saved session written when the application moves
// to the background. The next launch reads it to resume without a
// fresh login and to reopen the last room.
type SessionFile struct {
	ServerURL         string    `cbor:"server_url"`
	UserID            string    `cbor:"user_id"`
	AuthToken         string    `cbor:"auth_token"`
	LastRoomID        string    `cbor:"last_room_id,omitempty"`
	LastOpenAt        time.Time `cbor:"last_open_at,omitempty"`
	SettingsWatermark time.Time `cbor:"settings_watermark,omitempty"`
}

// WriteSessionFile atomically writes the saved session: encode, write
// to a temp file in the same directory, then rename over the target.
// A crash mid-write leaves the previous file intact. Mode 0600 because
// the file carries the auth token.
func WriteSessionFile(path string, file SessionFile) error {
	encoded, err := codec.Marshal(file)
	if err != nil {
		return fmt.Errorf("client: encoding session file: %w", err)
	}

	directory := filepath.Dir(path)
	temp, err := os.CreateTemp(directory, ".session-*")
	if err != nil {
		return fmt.Errorf("client: creating session temp file: %w", err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	if err := temp.Chmod(0o600); err != nil {
		temp.Close()
		return fmt.Errorf("client: session temp file mode: %w", err)
	}
	if _, err := temp.Write(encoded); err != nil {
		temp.Close()
		return fmt.Errorf("client: writing session temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("client: closing session temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("client: installing session file: %w", err)
	}
	return nil
}

// ReadSessionFile reads a saved session. Returns found=false when no
// file exists yet.
func ReadSessionFile(path string) (SessionFile, bool, error) {
	encoded, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return SessionFile{}, false, nil
	}
	if err != nil {
		return SessionFile{}, false, fmt.Errorf("client: reading session file: %w", err)
	}

	var file SessionFile
	if err := codec.Unmarshal(encoded, &file); err != nil {
		return SessionFile{}, false, fmt.Errorf("client: decoding session file: %w", err)
	}
	return file, true, nil
}

// runBackgrounded persists what the next launch needs: the current
// room's last-open stamp in the store, and the saved session file.
func (c *Core) runBackgrounded(ctx context.Context) {
	now := c.clock.Now()

	file := SessionFile{
		ServerURL: c.serverURL,
		UserID:    c.session.UserID(),
		AuthToken: c.authToken,
	}

	if room, ok := c.state.CurrentRoom(); ok {
		if err := c.store.SetLastOpen(ctx, room.ID, now); err != nil {
			c.logger.Error("last-open stamp failed", "room_id", room.ID, "error", err)
		}
		file.LastRoomID = room.ID
		file.LastOpenAt = now
	}

	if c.statePath == "" {
		return
	}

	watermark, err := c.store.LastSettingUpdate(ctx)
	if err != nil {
		c.logger.Warn("settings watermark read failed", "error", err)
	} else {
		file.SettingsWatermark = watermark
	}

	if err := WriteSessionFile(c.statePath, file); err != nil {
		c.logger.Error("session file write failed", "path", c.statePath, "error", err)
		return
	}
	c.logger.Info("session file written", "path", c.statePath)
}
