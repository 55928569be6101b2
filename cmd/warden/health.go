// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bureau-foundation/warden/lib/clock"
)

// healthResponse is the liveness payload.
type healthResponse struct {
	Status    string `json:"status"`
	Bot       string `json:"bot"`
	Timestamp string `json:"timestamp"`
}

// healthHandler answers GET / and GET /health with a liveness payload.
// Everything else is 404 — the endpoint deliberately exposes nothing
// about rooms, members, or moderation state.
func healthHandler(clk clock.Clock) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || (r.URL.Path != "/" && r.URL.Path != "/health") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{
			Status:    "ok",
			Bot:       "online",
			Timestamp: clk.Now().UTC().Format(time.RFC3339),
		})
	})
}

// startHealthServer serves the liveness endpoint until ctx is
// cancelled. A listen failure is logged, not fatal: losing the health
// endpoint must not take the moderation loop down with it.
func startHealthServer(ctx context.Context, address string, clk clock.Clock, logger *slog.Logger) {
	server := &http.Server{Addr: address, Handler: healthHandler(clk)}

	go func() {
		logger.Info("health endpoint listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", "address", address, "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
}
