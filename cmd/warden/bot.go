// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bureau-foundation/warden/lib/clock"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
	"github.com/bureau-foundation/warden/moderation"
)

// Bot is the core daemon state. The sync loop processes events in
// arrival order on a single goroutine; only the broadcast scheduler
// runs beside it, and shared state (the store) is mutex-guarded
// internally.
type Bot struct {
	session *messaging.Session
	store   *moderation.Store
	engine  *moderation.Engine
	policy  *moderation.Policy
	matcher *moderation.AdminMatcher

	templates    Templates
	defaultRole  string
	verifiedRole string
	contacts     []string
	ignoredRooms map[ref.RoomID]bool

	// httpClient fetches remote images for !sendimage.
	httpClient *http.Client

	clock     clock.Clock
	logger    *slog.Logger
	startedAt time.Time
}

func (b *Bot) isAdmin(userID ref.UserID) bool {
	return b.matcher.IsAdmin(userID.String())
}

// contactList renders the verification contacts for template
// substitution.
func (b *Bot) contactList() string {
	if len(b.contacts) == 0 {
		return "an admin"
	}
	return strings.Join(b.contacts, ", ")
}

// displayName resolves a user's profile display name, falling back to
// the localpart when the profile has none or the lookup fails. A user
// without a profile is normal and not worth a log line; other lookup
// failures are.
func (b *Bot) displayName(ctx context.Context, userID ref.UserID) string {
	name, err := b.session.GetDisplayName(ctx, userID)
	if err != nil {
		if !messaging.IsNotFound(err) {
			b.logger.Warn("looking up display name", "user_id", userID, "error", err)
		}
		return userID.Localpart()
	}
	if name == "" {
		return userID.Localpart()
	}
	return name
}

// reply sends a markdown-rendered message to the room. Send failures
// are logged and swallowed: a failed reply must never abort event
// processing.
func (b *Bot) reply(ctx context.Context, roomID ref.RoomID, markdown string) {
	if _, err := b.session.SendMessage(ctx, roomID, markdownMessage(markdown)); err != nil {
		b.logger.Error("sending reply", "room_id", roomID, "error", err)
	}
}

// redact removes an event. Failures are logged and swallowed so a
// missing redact right degrades to visible messages, not a dead loop.
func (b *Bot) redact(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, reason string) {
	if _, err := b.session.RedactEvent(ctx, roomID, eventID, reason); err != nil {
		b.logger.Warn("redacting event", "room_id", roomID, "event_id", eventID, "error", err)
	}
}
