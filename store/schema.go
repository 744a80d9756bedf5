// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package store

// schema is applied to every connection on first use. CREATE TABLE IF
// NOT EXISTS makes it idempotent across connections and restarts.
//
// Timestamps are stored as Unix milliseconds. The settings updated_at
// column carries the local merge time, not the server's record time:
// the sync watermark must move forward even when the server clock is
// skewed relative to previous pulls.
const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    value_type TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id     TEXT PRIMARY KEY,
    rid    TEXT NOT NULL,
    sender TEXT NOT NULL,
    body   TEXT NOT NULL,
    ts     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS messages_rid_ts ON messages (rid, ts);

CREATE TABLE IF NOT EXISTS subscriptions (
    rid          TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    room_type    TEXT NOT NULL,
    last_open_at INTEGER NOT NULL DEFAULT 0
);
`
