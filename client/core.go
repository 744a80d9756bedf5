// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lagoon-chat/lagoon/lib/clock"
	"github.com/lagoon-chat/lagoon/remote"
	"github.com/lagoon-chat/lagoon/store"
)

// intentBuffer bounds the dispatch queue. The queue only backs up when
// the dispatch loop is not running; handlers themselves run on their
// own goroutines.
const intentBuffer = 256

// Config holds the dependencies for a sync core.
type Config struct {
	// Session is the authenticated remote session. Required.
	Session remote.Session

	// Store is the device-local database. Required.
	Store *store.Store

	// Clock drives timers. If nil, the real clock is used.
	Clock clock.Clock

	// Logger receives operational messages. If nil, a default logger
	// is used.
	Logger *slog.Logger

	// Navigator and Notifier connect the core to the application
	// surface. If nil, no-op implementations are used.
	Navigator Navigator
	Notifier  Notifier

	// ServerURL and AuthToken are recorded in the saved session file so
	// the next launch can resume without a fresh login.
	ServerURL string
	AuthToken string

	// StatePath is where the saved session file is written on
	// backgrounding. Empty disables the session file.
	StatePath string
}

// taskSlot tracks the running handler for one latest-wins intent kind.
type taskSlot struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Core is the sync core. Construct with New, drive with Run, and feed
// with Dispatch.
type Core struct {
	session   remote.Session
	store     *store.Store
	state     *State
	clock     clock.Clock
	logger    *slog.Logger
	nav       Navigator
	notify    Notifier
	serverURL string
	authToken string
	statePath string

	intents    chan Intent
	roomClosed chan struct{}

	// slots is touched only by the dispatch loop.
	slots map[intentKind]*taskSlot
	wg    sync.WaitGroup
}

// New creates a sync core. The core is inert until Run is called.
func New(cfg Config) (*Core, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("client: Session is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("client: Store is required")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = nopNavigator{}
	}
	notify := cfg.Notifier
	if notify == nil {
		notify = nopNotifier{}
	}

	return &Core{
		session:    cfg.Session,
		store:      cfg.Store,
		state:      newState(),
		clock:      clk,
		logger:     logger,
		nav:        nav,
		notify:     notify,
		serverURL:  cfg.ServerURL,
		authToken:  cfg.AuthToken,
		statePath:  cfg.StatePath,
		intents:    make(chan Intent, intentBuffer),
		roomClosed: make(chan struct{}, 1),
		slots:      make(map[intentKind]*taskSlot),
	}, nil
}

// State returns the core's in-memory session state for the application
// surface to read.
func (c *Core) State() *State {
	return c.state
}

// Dispatch hands an intent to the core. Non-blocking: when the queue
// is full (the loop is not running) the intent is dropped with a
// warning rather than stalling the caller.
func (c *Core) Dispatch(intent Intent) {
	select {
	case c.intents <- intent:
	default:
		c.logger.Warn("intent queue full, dropping intent", "kind", intent.kind())
	}
}

// Run is the dispatch loop. It processes intents until ctx is
// cancelled, then cancels all running handlers and waits for them to
// unwind before returning.
func (c *Core) Run(ctx context.Context) error {
	c.logger.Info("sync core started", "user_id", c.session.UserID())

	for {
		select {
		case <-ctx.Done():
			for _, slot := range c.slots {
				slot.cancel()
			}
			c.wg.Wait()
			c.logger.Info("sync core stopped")
			return ctx.Err()
		case intent := <-c.intents:
			c.handle(ctx, intent)
		}
	}
}

// handle routes one intent to its handler under the kind's concurrency
// policy. Runs on the dispatch loop goroutine; handlers run on their
// own goroutines so the loop never blocks on I/O.
func (c *Core) handle(ctx context.Context, intent Intent) {
	switch intent := intent.(type) {
	case OpenRoom:
		room := intent.Room
		c.startLatest(ctx, kindOpenRoom, func(taskCtx context.Context) {
			c.runRoom(taskCtx, room)
		})
	case CloseRoom:
		c.signalRoomClosed()
	case LeaveRoom:
		roomID := intent.RoomID
		roomDone := c.openRoomDone()
		c.startLatest(ctx, kindLeaveRoom, func(taskCtx context.Context) {
			c.runLeave(taskCtx, roomID, roomDone)
		})
	case EraseRoom:
		roomID := intent.RoomID
		roomDone := c.openRoomDone()
		c.startLatest(ctx, kindEraseRoom, func(taskCtx context.Context) {
			c.runErase(taskCtx, roomID, roomDone)
		})
	case UserTyping:
		typing := intent.Typing
		c.startLatest(ctx, kindUserTyping, func(taskCtx context.Context) {
			c.runSelfTyping(taskCtx, typing)
		})
	case MessageReceived:
		message := intent.Message
		c.startEvery(ctx, func(taskCtx context.Context) {
			c.runMessageReceived(taskCtx, message)
		})
	case Backgrounded:
		c.startLatest(ctx, kindBackgrounded, func(taskCtx context.Context) {
			c.runBackgrounded(taskCtx)
		})
	case LoginSuccess:
		c.state.setAuthenticated()
		c.logger.Info("session authenticated", "user_id", c.session.UserID())
	case settingsMerged:
		settings := intent.settings
		c.startLatest(ctx, kindSettingsMerge, func(taskCtx context.Context) {
			c.runSettingsMerge(taskCtx, settings)
		})
	default:
		c.logger.Warn("unknown intent", "kind", intent.kind())
	}
}

// startLatest runs fn under the latest-wins policy for kind. Any
// running handler in the slot is cancelled, and fn does not start its
// work until the superseded handler has fully unwound. That ordering
// is the supersession guarantee: side effects of the old handler
// (feed teardown, state clearing) strictly precede the new handler's.
func (c *Core) startLatest(ctx context.Context, kind intentKind, fn func(context.Context)) {
	previous := c.slots[kind]
	if previous != nil {
		previous.cancel()
	}

	taskCtx, cancel := context.WithCancel(ctx)
	slot := &taskSlot{cancel: cancel, done: make(chan struct{})}
	c.slots[kind] = slot

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(slot.done)
		defer cancel()
		if previous != nil {
			<-previous.done
		}
		fn(taskCtx)
	}()
}

// startEvery runs fn on its own goroutine with no supersession.
func (c *Core) startEvery(ctx context.Context, fn func(context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(ctx)
	}()
}

// openRoomDone returns the running room handler's completion channel,
// or an already-closed channel when no room handler has run. Called
// only from the dispatch loop, which owns the slots map.
func (c *Core) openRoomDone() <-chan struct{} {
	if slot, ok := c.slots[kindOpenRoom]; ok {
		return slot.done
	}
	done := make(chan struct{})
	close(done)
	return done
}

// signalRoomClosed nudges the running room handler to unwind. The
// channel holds one pending signal; extra closes while one is pending
// collapse into it.
func (c *Core) signalRoomClosed() {
	select {
	case c.roomClosed <- struct{}{}:
	default:
	}
}
