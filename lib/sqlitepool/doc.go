// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the Lagoon-standard SQLite connection pool.
//
// The on-device store (settings, messages, subscriptions) lives in a
// single SQLite file. This package wraps zombiezen.com/go/sqlite with
// defaults tuned for a client device: WAL journal mode so the UI can
// read while the sync core writes, NORMAL synchronous for
// process-crash durability without fsync-per-commit overhead, and a
// busy timeout so a briefly contended write lock does not surface as
// SQLITE_BUSY.
//
// The pool is built on zombiezen's sqlitex.Pool. Callers [Pool.Take] a
// connection, perform work, and [Pool.Put] it back. Connections are
// NOT safe for concurrent use — each goroutine must hold its own
// connection for the duration of its work.
//
// # Pragmas
//
// Every connection in the pool is initialized with:
//
//   - journal_mode=WAL: readers never block the single writer.
//   - synchronous=NORMAL: transactions survive process crashes. Not
//     durable across power failure — acceptable because the server is
//     the source of truth and the store is a re-syncable cache.
//   - busy_timeout=5000: wait up to 5 seconds for a write lock.
//   - foreign_keys=OFF: the store manages referential integrity
//     explicitly; room deletion removes messages and the subscription
//     row in one transaction.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
//
// This package is intentionally thin: it applies standard pragmas and
// exposes the underlying zombiezen types directly. Callers write SQL,
// use sqlitex.Execute for cached statements, and manage transactions
// with sqlitex.ImmediateTransaction. There is no query builder and no
// ORM layer.
package sqlitepool
