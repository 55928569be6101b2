// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Warden is a Matrix group-chat moderation bot. It gates membership on
// admin verification (new members are muted until an admin assigns them
// a verified role), carries out mutes, bans, locks, and kicks by
// editing room power levels, dispatches a role-gated command surface,
// fires scheduled broadcasts, and serves a liveness HTTP endpoint.
//
// On startup:
//  1. Loads the YAML config (--config flag or WARDEN_CONFIG).
//  2. Opens a Matrix session from the configured access token, or logs
//     in with username and password.
//  3. Loads the moderation state file and the message templates.
//  4. Performs an initial sync: accepts pending invites and promotes
//     configured admins in every joined room.
//  5. Runs the broadcast scheduler beside the incremental sync loop
//     until SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/warden/lib/clock"
	"github.com/bureau-foundation/warden/lib/config"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
	"github.com/bureau-foundation/warden/moderation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	pflag.StringVar(&configPath, "config", "", "path to the YAML config file (overrides WARDEN_CONFIG)")
	pflag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("creating matrix client: %w", err)
	}
	defer client.CloseIdleConnections()

	// Unauthenticated reachability check before spending login attempts.
	versions, err := client.ServerVersions(ctx)
	if err != nil {
		return fmt.Errorf("homeserver unreachable: %w", err)
	}
	logger.Info("homeserver reachable", "versions", versions.Versions)

	session, err := openSession(ctx, client, cfg)
	if err != nil {
		return err
	}

	userID, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("validating matrix session: %w", err)
	}
	logger.Info("matrix session valid", "user_id", userID, "device_id", session.DeviceID())

	if cfg.Matrix.DisplayName != "" {
		if err := session.SetDisplayName(ctx, cfg.Matrix.DisplayName); err != nil {
			logger.Warn("setting display name", "error", err)
		}
	}

	store, err := moderation.OpenStore(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("opening moderation store: %w", err)
	}

	templates, err := loadTemplates(cfg.Messages)
	if err != nil {
		return fmt.Errorf("loading message templates: %w", err)
	}

	clk := clock.Real()
	matcher := moderation.NewAdminMatcher(cfg.Moderation.Admins)
	bot := &Bot{
		session: session,
		store:   store,
		engine:  moderation.NewEngine(session, store, clk, logger),
		matcher: matcher,
		policy: &moderation.Policy{
			Matcher:     matcher,
			Store:       store,
			DefaultRole: cfg.Moderation.DefaultRole,
		},
		templates:    templates,
		defaultRole:  cfg.Moderation.DefaultRole,
		verifiedRole: cfg.Moderation.VerifiedRole,
		contacts:     cfg.Moderation.VerificationContacts,
		ignoredRooms: cfg.IgnoredRoomSet(),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clock:        clk,
		logger:       logger,
		startedAt:    clk.Now(),
	}

	if cfg.Health.ListenAddress != "" {
		startHealthServer(ctx, cfg.Health.ListenAddress, clk, logger)
	}

	sinceToken, err := bot.initialSync(ctx)
	if err != nil {
		// The sync loop starts from scratch; moderation still works,
		// history is just re-fetched.
		logger.Error("initial sync failed", "error", err)
	}

	go bot.runScheduler(ctx)
	bot.syncLoop(ctx, sinceToken)

	logger.Info("shutting down")
	return nil
}

// openSession authenticates against the homeserver: access token if
// configured, password login otherwise.
func openSession(ctx context.Context, client *messaging.Client, cfg *config.Config) (*messaging.Session, error) {
	if cfg.Matrix.AccessToken != "" {
		userID, err := ref.ParseUserID(cfg.Matrix.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid user_id: %w", err)
		}
		session, err := client.SessionFromToken(userID, cfg.Matrix.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("opening token session: %w", err)
		}
		return session, nil
	}
	session, err := client.Login(ctx, cfg.Matrix.Username, cfg.Matrix.Password)
	if err != nil {
		return nil, fmt.Errorf("logging in as %q: %w", cfg.Matrix.Username, err)
	}
	return session, nil
}
