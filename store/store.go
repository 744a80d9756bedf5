// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/lagoon-chat/lagoon/lib/sqlitepool"
)

// Setting is one merged public setting.
type Setting struct {
	Key       string
	Value     string
	Type      string
	UpdatedAt time.Time
}

// Message is one cached room message.
type Message struct {
	ID        string
	RoomID    string
	Sender    string
	Body      string
	Timestamp time.Time
}

// Subscription is the user's membership record for one room.
type Subscription struct {
	RoomID     string
	Name       string
	RoomType   string
	LastOpenAt time.Time
}

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the SQLite database file. Tests point this at a file in
	// a temporary directory.
	Path string

	// PoolSize is the connection pool size. Zero means the pool default.
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Store is the device-local database. Safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Open opens the database at cfg.Path, creating it and its schema if
// needed. The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Write runs fn inside an immediate transaction on a pooled
// connection. The transaction commits when fn returns nil and rolls
// back when fn returns an error.
func (s *Store) Write(ctx context.Context, fn func(conn *sqlite.Conn) error) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer endFn(&err)

	return fn(conn)
}

// read runs fn on a pooled connection without a transaction.
func (s *Store) read(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// LastSettingUpdate returns the newest settings merge time, the
// watermark for the next delta pull. Returns the zero time when no
// settings have ever been merged, which callers treat as "do a full
// pull".
func (s *Store) LastSettingUpdate(ctx context.Context) (time.Time, error) {
	var watermark time.Time
	err := s.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT COALESCE(MAX(updated_at), 0) FROM settings`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					if millis := stmt.ColumnInt64(0); millis > 0 {
						watermark = time.UnixMilli(millis).UTC()
					}
					return nil
				},
			})
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("store: last setting update: %w", err)
	}
	return watermark, nil
}

// UpsertSettings merges a batch of settings in one transaction. Every
// row is stamped with mergedAt, the local merge time, so the watermark
// advances uniformly for the whole batch. Re-merging the same batch is
// idempotent apart from the timestamp.
func (s *Store) UpsertSettings(ctx context.Context, settings []Setting, mergedAt time.Time) error {
	if len(settings) == 0 {
		return nil
	}
	err := s.Write(ctx, func(conn *sqlite.Conn) error {
		for _, setting := range settings {
			err := sqlitex.Execute(conn,
				`INSERT INTO settings (key, value, value_type, updated_at)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT (key) DO UPDATE SET
				     value = excluded.value,
				     value_type = excluded.value_type,
				     updated_at = excluded.updated_at`,
				&sqlitex.ExecOptions{
					Args: []any{setting.Key, setting.Value, setting.Type, mergedAt.UnixMilli()},
				})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: upsert settings: %w", err)
	}
	s.logger.Debug("settings merged", "count", len(settings))
	return nil
}

// Settings returns all merged settings, keyed by setting key.
func (s *Store) Settings(ctx context.Context) (map[string]Setting, error) {
	settings := make(map[string]Setting)
	err := s.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT key, value, value_type, updated_at FROM settings`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					setting := Setting{
						Key:       stmt.ColumnText(0),
						Value:     stmt.ColumnText(1),
						Type:      stmt.ColumnText(2),
						UpdatedAt: time.UnixMilli(stmt.ColumnInt64(3)).UTC(),
					}
					settings[setting.Key] = setting
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("store: settings: %w", err)
	}
	return settings, nil
}

// SaveMessage caches one room message. Saving the same message ID
// again overwrites the cached copy, which handles server-side edits.
func (s *Store) SaveMessage(ctx context.Context, message Message) error {
	err := s.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO messages (id, rid, sender, body, ts)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			     sender = excluded.sender,
			     body = excluded.body,
			     ts = excluded.ts`,
			&sqlitex.ExecOptions{
				Args: []any{
					message.ID,
					message.RoomID,
					message.Sender,
					message.Body,
					message.Timestamp.UnixMilli(),
				},
			})
	})
	if err != nil {
		return fmt.Errorf("store: save message %s: %w", message.ID, err)
	}
	return nil
}

// RoomMessages returns a room's cached messages in timeline order.
func (s *Store) RoomMessages(ctx context.Context, roomID string) ([]Message, error) {
	var messages []Message
	err := s.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, rid, sender, body, ts FROM messages WHERE rid = ? ORDER BY ts, id`,
			&sqlitex.ExecOptions{
				Args: []any{roomID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					messages = append(messages, Message{
						ID:        stmt.ColumnText(0),
						RoomID:    stmt.ColumnText(1),
						Sender:    stmt.ColumnText(2),
						Body:      stmt.ColumnText(3),
						Timestamp: time.UnixMilli(stmt.ColumnInt64(4)).UTC(),
					})
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("store: room messages for %s: %w", roomID, err)
	}
	return messages, nil
}

// UpsertSubscription records or refreshes the user's membership in a
// room. LastOpenAt is preserved on update unless the new record
// carries a nonzero value.
func (s *Store) UpsertSubscription(ctx context.Context, subscription Subscription) error {
	err := s.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO subscriptions (rid, name, room_type, last_open_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (rid) DO UPDATE SET
			     name = excluded.name,
			     room_type = excluded.room_type,
			     last_open_at = MAX(last_open_at, excluded.last_open_at)`,
			&sqlitex.ExecOptions{
				Args: []any{
					subscription.RoomID,
					subscription.Name,
					subscription.RoomType,
					subscription.LastOpenAt.UnixMilli(),
				},
			})
	})
	if err != nil {
		return fmt.Errorf("store: upsert subscription %s: %w", subscription.RoomID, err)
	}
	return nil
}

// SetLastOpen stamps when a room was last open, for restoring the
// session after a restart. A no-op when the room has no subscription
// row.
func (s *Store) SetLastOpen(ctx context.Context, roomID string, openedAt time.Time) error {
	err := s.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`UPDATE subscriptions SET last_open_at = ? WHERE rid = ?`,
			&sqlitex.ExecOptions{
				Args: []any{openedAt.UnixMilli(), roomID},
			})
	})
	if err != nil {
		return fmt.Errorf("store: set last open for %s: %w", roomID, err)
	}
	return nil
}

// Subscription returns a room's membership record, or found=false when
// the room is unknown.
func (s *Store) Subscription(ctx context.Context, roomID string) (subscription Subscription, found bool, err error) {
	err = s.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT rid, name, room_type, last_open_at FROM subscriptions WHERE rid = ?`,
			&sqlitex.ExecOptions{
				Args: []any{roomID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					subscription = Subscription{
						RoomID:     stmt.ColumnText(0),
						Name:       stmt.ColumnText(1),
						RoomType:   stmt.ColumnText(2),
						LastOpenAt: time.UnixMilli(stmt.ColumnInt64(3)).UTC(),
					}
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return Subscription{}, false, fmt.Errorf("store: subscription %s: %w", roomID, err)
	}
	return subscription, found, nil
}

// DeleteRoomData removes a room's messages and subscription in one
// transaction. Called after the server confirms a leave or erase, so a
// failure here never precedes the server-side removal.
func (s *Store) DeleteRoomData(ctx context.Context, roomID string) error {
	err := s.Write(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn,
			`DELETE FROM messages WHERE rid = ?`,
			&sqlitex.ExecOptions{Args: []any{roomID}},
		); err != nil {
			return err
		}
		return sqlitex.Execute(conn,
			`DELETE FROM subscriptions WHERE rid = ?`,
			&sqlitex.ExecOptions{Args: []any{roomID}},
		)
	})
	if err != nil {
		return fmt.Errorf("store: delete room data for %s: %w", roomID, err)
	}
	s.logger.Info("room data deleted", "room_id", roomID)
	return nil
}
