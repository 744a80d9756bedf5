// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote wraps the chat service's client API for the sync
// core's needs.
//
// The package provides two core types. [Client] is an unauthenticated
// API client that handles login, returning authenticated
// [DirectSession] values. Client holds the service URL and HTTP
// transport, shared across all sessions derived from it.
//
// [DirectSession] wraps a Client with credentials for authenticated
// operations: the incremental public-settings pull, room membership
// transitions (leave, erase, invite), typing emission, read-marking,
// spotlight search, and per-room live subscriptions.
//
// A [RoomSubscription] is the live feed for one open room. It
// long-polls the room events endpoint and fans events out to two
// channels: timeline messages and ephemeral typing signals. The handle
// is singly owned — the room lifecycle coordinator that opened it must
// call Stop exactly once, and Stop blocks until the poll loop has
// exited so no event is delivered after teardown.
//
// All API errors are returned as [*ServiceError] with the service
// error code (for example "error-you-are-last-owner") and HTTP status.
// [IsServiceError] tests for a specific code; the room lifecycle
// coordinator uses it to distinguish the last-owner leave failure from
// generic ones.
package remote
