// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

// lagoon-syncd is the headless Lagoon sync daemon. It authenticates
// against the chat service (resuming a saved session when one exists),
// keeps public settings merged into the local database on a fixed
// schedule, and reopens the last room so its live feed stays cached.
//
// The daemon is the reference embedding of the client package: a GUI
// shell would replace the signal handling and the no-op navigation
// surface but drive the same core.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/lagoon-chat/lagoon/client"
	"github.com/lagoon-chat/lagoon/lib/config"
	"github.com/lagoon-chat/lagoon/remote"
	"github.com/lagoon-chat/lagoon/store"
)

// shutdownGrace is how long the daemon waits after signalling
// backgrounding before tearing the core down, so the session file and
// last-open stamp can land.
const shutdownGrace = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lagoon-syncd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = pflag.String("config", "", "path to the YAML config file (default: $LAGOON_CONFIG)")
		serverURL   = pflag.String("server", "", "chat service URL, overrides the config file")
		username    = pflag.String("user", "", "username for a fresh login")
		passwordEnv = pflag.String("password-env", "LAGOON_PASSWORD", "environment variable holding the login password")
		noResume    = pflag.Bool("no-resume", false, "ignore the saved session and log in fresh")
		logJSON     = pflag.Bool("log-json", false, "emit logs as JSON")
		logLevel    = pflag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	pflag.Parse()

	logger, err := buildLogger(*logJSON, *logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}
	if err := os.MkdirAll(cfg.Paths.StateDir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serviceClient, err := remote.NewClient(remote.ClientConfig{
		ServerURL: cfg.Server.URL,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	session, saved, err := openSession(ctx, serviceClient, cfg, *username, *passwordEnv, *noResume)
	if err != nil {
		return err
	}
	defer session.Close()

	db, err := store.Open(store.Config{
		Path:   cfg.DatabasePath(),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	core, err := client.New(client.Config{
		Session:   session,
		Store:     db,
		Logger:    logger,
		ServerURL: cfg.Server.URL,
		AuthToken: session.AuthToken(),
		StatePath: cfg.SessionFilePath(),
	})
	if err != nil {
		return err
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	coreDone := make(chan error, 1)
	go func() {
		coreDone <- core.Run(runCtx)
	}()

	core.Dispatch(client.LoginSuccess{})
	reopenLastRoom(ctx, core, db, saved, logger)

	// The daemon is the core's sync scheduler: one immediate pull, then
	// a fixed cadence.
	if err := core.SyncSettings(ctx); err != nil {
		logger.Warn("initial settings sync failed", "error", err)
	}
	ticker := time.NewTicker(cfg.Sync.SettingsInterval)
	defer ticker.Stop()

	logger.Info("lagoon-syncd running",
		"server", cfg.Server.URL,
		"user_id", session.UserID(),
		"settings_interval", cfg.Sync.SettingsInterval,
	)

	for {
		select {
		case <-ticker.C:
			if err := core.SyncSettings(ctx); err != nil {
				logger.Warn("settings sync failed", "error", err)
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			core.Dispatch(client.Backgrounded{})
			time.Sleep(shutdownGrace)
			cancelRun()
			if err := <-coreDone; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}
	}
}

func buildLogger(jsonOutput bool, level string) (*slog.Logger, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	options := &slog.HandlerOptions{Level: logLevel}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(os.Stderr, options)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, options)), nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// openSession resumes the saved session when possible and falls back
// to a fresh password login.
func openSession(ctx context.Context, serviceClient *remote.Client, cfg *config.Config, username, passwordEnv string, noResume bool) (*remote.DirectSession, client.SessionFile, error) {
	if !noResume {
		saved, found, err := client.ReadSessionFile(cfg.SessionFilePath())
		if err != nil {
			slog.Warn("saved session unreadable, logging in fresh", "error", err)
		} else if found && saved.AuthToken != "" && saved.ServerURL == cfg.Server.URL {
			session, err := serviceClient.SessionFromToken(saved.UserID, saved.AuthToken)
			if err == nil {
				slog.Info("resumed saved session", "user_id", saved.UserID)
				return session, saved, nil
			}
			slog.Warn("saved session rejected, logging in fresh", "error", err)
		}
	}

	if username == "" {
		return nil, client.SessionFile{}, fmt.Errorf("no saved session: --user is required")
	}
	password := os.Getenv(passwordEnv)
	if password == "" {
		return nil, client.SessionFile{}, fmt.Errorf("no saved session: $%s is required", passwordEnv)
	}

	session, err := serviceClient.Login(ctx, username, password)
	if err != nil {
		return nil, client.SessionFile{}, fmt.Errorf("login: %w", err)
	}
	slog.Info("logged in", "user_id", session.UserID())
	return session, client.SessionFile{}, nil
}

// reopenLastRoom restores the room that was open when the previous run
// backgrounded, so its feed and read state pick up where they left off.
func reopenLastRoom(ctx context.Context, core *client.Core, db *store.Store, saved client.SessionFile, logger *slog.Logger) {
	if saved.LastRoomID == "" {
		return
	}
	subscription, found, err := db.Subscription(ctx, saved.LastRoomID)
	if err != nil || !found {
		logger.Info("last room has no local subscription, not reopening",
			"room_id", saved.LastRoomID,
		)
		return
	}
	core.Dispatch(client.OpenRoom{Room: client.Room{
		ID:   subscription.RoomID,
		Name: subscription.Name,
		Type: subscription.RoomType,
	}})
	logger.Info("reopened last room", "room_id", subscription.RoomID, "name", subscription.Name)
}
