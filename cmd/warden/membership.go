// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
)

const autoMuteReason = "new user, auto-muted"

// acceptInvite joins a room the bot was invited to and logs its
// standing there so an operator can see immediately whether the bot
// has the rights it needs.
func (b *Bot) acceptInvite(ctx context.Context, roomID ref.RoomID) {
	if b.ignoredRooms[roomID] {
		b.logger.Info("declining invite to ignored room", "room_id", roomID)
		if err := b.session.LeaveRoom(ctx, roomID); err != nil {
			b.logger.Warn("rejecting ignored-room invite", "room_id", roomID, "error", err)
		}
		return
	}
	b.logger.Info("accepting room invite", "room_id", roomID)
	if _, err := b.session.JoinRoom(ctx, roomID); err != nil {
		b.logger.Error("joining invited room", "room_id", roomID, "error", err)
		return
	}

	permission, err := b.engine.BotPermission(ctx, roomID)
	if err != nil {
		b.logger.Error("checking own permission", "room_id", roomID, "error", err)
		return
	}
	b.logger.Info("joined room",
		"room_id", roomID,
		"bot_level", permission.Level,
		"required_send_level", permission.RequiredSendLevel,
		"can_send", permission.CanSend,
	)
}

// handleMembership processes one m.room.member timeline event. Only
// join transitions act; leaves, bans, and invites directed at other
// users are no-ops.
func (b *Bot) handleMembership(ctx context.Context, roomID ref.RoomID, event *messaging.Event) {
	if event.StateKey == nil {
		return
	}
	target, err := ref.ParseUserID(*event.StateKey)
	if err != nil {
		b.logger.Warn("member event with invalid state key", "room_id", roomID, "state_key", *event.StateKey)
		return
	}
	if event.Membership() != "join" {
		return
	}
	// join→join events carry displayname/avatar edits, not arrivals.
	if event.PrevMembership() == "join" {
		return
	}

	if target == b.session.UserID() {
		b.handleOwnJoin(ctx, roomID)
		return
	}

	if b.isAdmin(target) {
		if err := b.engine.GrantAdmin(ctx, roomID, target); err != nil {
			b.logger.Error("promoting joining admin", "room_id", roomID, "user_id", target, "error", err)
		}
		b.sendWelcome(ctx, roomID, target)
		return
	}

	// Mute before welcoming: the gap where a new member can speak must
	// close before the bot announces them.
	if err := b.engine.Mute(ctx, roomID, target, autoMuteReason); err != nil {
		b.logger.Error("muting new member", "room_id", roomID, "user_id", target, "error", err)
	}
	b.sendWelcome(ctx, roomID, target)
}

// handleOwnJoin runs once per room the bot enters: promote every
// configured admin already present, then announce — only if the bot
// can actually send there.
func (b *Bot) handleOwnJoin(ctx context.Context, roomID ref.RoomID) {
	b.adminSweep(ctx, roomID)

	permission, err := b.engine.BotPermission(ctx, roomID)
	if err != nil {
		b.logger.Error("checking own permission", "room_id", roomID, "error", err)
		return
	}
	if !permission.CanSend {
		b.logger.Warn("joined a room without send rights, skipping announcement",
			"room_id", roomID, "bot_level", permission.Level,
			"required_send_level", permission.RequiredSendLevel)
		return
	}
	b.reply(ctx, roomID, b.templates.Online)
}

// adminSweep promotes every joined member who matches the configured
// admin list. Promotion failures are logged per member; one refusal
// must not stop the rest of the sweep.
func (b *Bot) adminSweep(ctx context.Context, roomID ref.RoomID) {
	members, err := b.session.GetRoomMembers(ctx, roomID)
	if err != nil {
		b.logger.Error("listing members for admin sweep", "room_id", roomID, "error", err)
		return
	}
	for _, member := range members {
		if member.Membership != "join" || !b.isAdmin(member.UserID) {
			continue
		}
		if err := b.engine.GrantAdmin(ctx, roomID, member.UserID); err != nil {
			b.logger.Error("promoting admin", "room_id", roomID, "user_id", member.UserID, "error", err)
		}
	}
}

// sendWelcome greets a newly joined member with their current role and
// the verification contacts.
func (b *Bot) sendWelcome(ctx context.Context, roomID ref.RoomID, userID ref.UserID) {
	text := expand(b.templates.Welcome, map[string]string{
		"display_name": b.displayName(ctx, userID),
		"user_id":      userID.String(),
		"role":         b.store.Role(userID, b.defaultRole),
		"contacts":     b.contactList(),
	})
	b.reply(ctx, roomID, strings.TrimSpace(text))
}
