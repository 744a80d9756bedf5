// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the sync core of a Lagoon device. It owns the
// in-memory session state, reacts to intents from the surrounding
// application (room opened, user typing, app backgrounded), and drives
// the remote session and local store to keep both sides consistent.
//
// Intents enter through [Core.Dispatch] and are serialized by a single
// dispatch loop. Each intent kind carries a concurrency policy:
// most kinds are latest-wins (a new occurrence supersedes a still
// running handler for the same kind, and the superseded handler is
// cancelled and fully unwound before the new one starts), while
// message arrivals are handled independently per occurrence. The
// policies mirror how a chat surface behaves: opening room B while
// room A is still settling must tear A down first, but two incoming
// messages never cancel each other.
package client
