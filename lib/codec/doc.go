// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Lagoon's standard CBOR encoding configuration.
//
// Lagoon uses two serialization formats with a clear boundary:
//
//   - JSON for the chat service API (the remote package).
//   - CBOR for on-disk state files: the saved session and watermark
//     snapshot the core writes when the application is backgrounded.
//
// This package provides the shared encoding and decoding modes so that
// every package encodes identically without duplicating configuration.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes, which makes state
// files diffable and lets tests compare raw snapshots.
package codec
