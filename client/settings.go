// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lagoon-chat/lagoon/remote"
	"github.com/lagoon-chat/lagoon/store"
)

// SyncSettings pulls public settings from the server and queues them
// for merging. The first pull on a fresh device fetches the full set;
// every later pull is a delta anchored at the stored watermark, the
// local merge time of the previous batch.
//
// The pull itself runs on the caller's goroutine (the scheduler), but
// the merge is dispatched into the core's serialized latest-wins path,
// so a slow merge never blocks the next pull and an unmerged older
// batch is superseded by a newer one.
func (c *Core) SyncSettings(ctx context.Context) error {
	watermark, err := c.store.LastSettingUpdate(ctx)
	if err != nil {
		return fmt.Errorf("client: settings sync: %w", err)
	}

	var since *time.Time
	if !watermark.IsZero() {
		since = &watermark
	}

	records, err := c.session.PublicSettings(ctx, since)
	if err != nil {
		return fmt.Errorf("client: settings sync: %w", err)
	}

	settings := filterSupportedSettings(records)
	c.logger.Debug("settings pulled",
		"received", len(records),
		"supported", len(settings),
		"full_pull", since == nil,
	)
	if len(settings) == 0 {
		return nil
	}

	c.Dispatch(settingsMerged{settings: settings})
	return nil
}

// runSettingsMerge applies one pulled batch: a single store
// transaction stamped with the local merge time, then the in-memory
// settings snapshot.
func (c *Core) runSettingsMerge(ctx context.Context, settings []store.Setting) {
	if err := c.store.UpsertSettings(ctx, settings, c.clock.Now()); err != nil {
		c.logger.Error("settings merge failed", "count", len(settings), "error", err)
		return
	}
	c.state.mergeSettings(settings)
	c.logger.Info("settings merged", "count", len(settings))
}

// filterSupportedSettings keeps only the setting types the client
// renders (string, boolean, int) and normalizes every value to its
// text form. Unsupported types are dropped, not errored: the server
// ships settings for many clients and this one only consumes a subset.
func filterSupportedSettings(records []remote.SettingRecord) []store.Setting {
	settings := make([]store.Setting, 0, len(records))
	for _, record := range records {
		value, ok := renderSettingValue(record)
		if !ok {
			continue
		}
		settings = append(settings, store.Setting{
			Key:   record.ID,
			Value: value,
			Type:  record.Type,
		})
	}
	return settings
}

func renderSettingValue(record remote.SettingRecord) (string, bool) {
	switch record.Type {
	case "string":
		value, ok := record.Value.(string)
		return value, ok
	case "boolean":
		value, ok := record.Value.(bool)
		if !ok {
			return "", false
		}
		return strconv.FormatBool(value), true
	case "int":
		// JSON numbers decode as float64.
		switch value := record.Value.(type) {
		case float64:
			return strconv.FormatInt(int64(value), 10), true
		case int64:
			return strconv.FormatInt(value, 10), true
		default:
			return "", false
		}
	default:
		return "", false
	}
}
