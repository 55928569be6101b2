// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
	"github.com/bureau-foundation/warden/moderation"
)

// handleMessage runs the moderation pipeline over one m.room.message
// event. The decision list is evaluated first; only an allowed message
// reaches command parsing.
func (b *Bot) handleMessage(ctx context.Context, roomID ref.RoomID, event *messaging.Event) {
	sender := event.Sender
	if sender == b.session.UserID() {
		return
	}

	switch outcome := b.policy.Decide(sender); outcome {
	case moderation.RedactAndMute:
		b.redact(ctx, roomID, event.EventID, "unverified sender")
		if !b.store.IsMuted(sender) {
			if err := b.engine.Mute(ctx, roomID, sender, "unverified, posted before verification"); err != nil {
				b.logger.Error("muting unverified sender", "room_id", roomID, "user_id", sender, "error", err)
			}
		}
		return
	case moderation.Redact:
		b.redact(ctx, roomID, event.EventID, "muted or banned sender")
		return
	}

	body := event.MessageBody()
	if !strings.HasPrefix(body, "!") {
		return
	}
	b.dispatch(ctx, roomID, event, strings.Fields(body))
}
