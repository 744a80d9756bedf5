// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the device-local persistence layer. It keeps
// server-confirmed state in a SQLite database: merged public settings
// with their update watermark, cached room messages, and the user's
// room subscriptions.
//
// The store holds only durable, server-confirmed facts. Ephemeral
// state (typing indicators, drafts, the current room) lives in the
// client package and is never written here.
//
// All mutation methods run inside an immediate transaction, so a
// multi-row change such as DeleteRoomData is all-or-nothing: a crash
// mid-operation leaves either the full old state or the full new state.
package store
