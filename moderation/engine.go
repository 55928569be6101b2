// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/warden/lib/clock"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
)

// Power level constants. AdminLevel is what grantAdmin assigns;
// AdminFloor is the threshold at or above which a member is treated as
// an admin by the kick and unmute paths; MutedLevel sits below every
// positive send threshold; LockedSendLevel restricts sending to admins.
const (
	AdminLevel      = 80
	AdminFloor      = 50
	MutedLevel      = -1
	LockedSendLevel = 50
)

// Engine translates moderation intents into edits of a room's
// power-levels state and answers permission questions about the bot
// itself. Every write re-fetches the current snapshot immediately
// beforehand — the protocol has no compare-and-swap, so concurrent
// remote edits resolve as last-write-wins.
type Engine struct {
	session *messaging.Session
	store   *Store
	clock   clock.Clock
	logger  *slog.Logger
}

// NewEngine creates an Engine over the given session and store.
func NewEngine(session *messaging.Session, store *Store, clk clock.Clock, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{session: session, store: store, clock: clk, logger: logger}
}

// Snapshot fetches the room's current power-levels state.
func (e *Engine) Snapshot(ctx context.Context, roomID ref.RoomID) (*messaging.PowerLevelsContent, error) {
	return e.session.GetPowerLevels(ctx, roomID)
}

func (e *Engine) writePowerLevels(ctx context.Context, roomID ref.RoomID, content *messaging.PowerLevelsContent) error {
	_, err := e.session.SendStateEvent(ctx, roomID, ref.EventTypePowerLevels, "", content)
	return err
}

// GrantAdmin raises the user's explicit level to AdminLevel. No-op when
// the user's effective level is already at or above it, so repeated
// grants issue no remote writes.
func (e *Engine) GrantAdmin(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	snapshot, err := e.Snapshot(ctx, roomID)
	if err != nil {
		return fmt.Errorf("granting admin to %s: %w", userID, err)
	}
	if snapshot.UserLevel(userID) >= AdminLevel {
		return nil
	}

	levels := snapshot.Clone()
	levels.Users[userID.String()] = AdminLevel
	if err := e.writePowerLevels(ctx, roomID, levels); err != nil {
		return fmt.Errorf("granting admin to %s: %w", userID, err)
	}
	e.logger.Info("granted admin power level", "room_id", roomID, "user_id", userID, "level", AdminLevel)
	return nil
}

// Mute sets the user's explicit level to MutedLevel and records the
// mute. Idempotent: muting an already-muted user re-writes the level
// and refreshes the record.
func (e *Engine) Mute(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error {
	snapshot, err := e.Snapshot(ctx, roomID)
	if err != nil {
		return fmt.Errorf("muting %s: %w", userID, err)
	}

	levels := snapshot.Clone()
	levels.Users[userID.String()] = MutedLevel
	if err := e.writePowerLevels(ctx, roomID, levels); err != nil {
		return fmt.Errorf("muting %s: %w", userID, err)
	}

	e.store.Mute(userID, MuteRecord{
		RoomID:    roomID,
		Timestamp: e.clock.Now().UnixMilli(),
		Reason:    reason,
	})
	e.logger.Info("muted user", "room_id", roomID, "user_id", userID, "reason", reason)
	return nil
}

// Unmute clears the user's mute. When the target's effective level is
// at or above AdminFloor the permission map is left alone (lowering an
// elevated member would itself need elevated rights) and only the local
// record is removed. When the explicit level is exactly MutedLevel it
// is reset to 0 — not deleted, to keep "restored" distinguishable from
// "never overridden". A permission-denied response on that reset still
// clears the local record so a rights loss cannot leak a stale mute.
func (e *Engine) Unmute(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	snapshot, err := e.Snapshot(ctx, roomID)
	if err != nil {
		e.store.Unmute(userID)
		return fmt.Errorf("unmuting %s: %w", userID, err)
	}

	if snapshot.UserLevel(userID) >= AdminFloor {
		e.logger.Warn("unmute target is elevated, clearing record only",
			"room_id", roomID, "user_id", userID, "level", snapshot.UserLevel(userID))
		e.store.Unmute(userID)
		return nil
	}

	if explicit, ok := snapshot.Users[userID.String()]; ok && explicit == MutedLevel {
		levels := snapshot.Clone()
		levels.Users[userID.String()] = 0
		if err := e.writePowerLevels(ctx, roomID, levels); err != nil {
			e.store.Unmute(userID)
			if Classify(err) == FailurePermissionDenied {
				e.logger.Warn("cannot restore power level, cleared mute record anyway",
					"room_id", roomID, "user_id", userID, "error", err)
				return nil
			}
			return fmt.Errorf("unmuting %s: %w", userID, err)
		}
	}

	e.store.Unmute(userID)
	e.logger.Info("unmuted user", "room_id", roomID, "user_id", userID)
	return nil
}

// Lock restricts message sending to admins by setting the send level
// for m.room.message to LockedSendLevel.
func (e *Engine) Lock(ctx context.Context, roomID ref.RoomID) error {
	snapshot, err := e.Snapshot(ctx, roomID)
	if err != nil {
		return fmt.Errorf("locking %s: %w", roomID, err)
	}

	levels := snapshot.Clone()
	levels.Events[string(ref.EventTypeMessage)] = LockedSendLevel
	if err := e.writePowerLevels(ctx, roomID, levels); err != nil {
		return fmt.Errorf("locking %s: %w", roomID, err)
	}

	e.store.LockRoom(roomID, LockRecord{Timestamp: e.clock.Now().UnixMilli()})
	e.logger.Info("locked room", "room_id", roomID)
	return nil
}

// Unlock removes the send-level override for m.room.message.
func (e *Engine) Unlock(ctx context.Context, roomID ref.RoomID) error {
	snapshot, err := e.Snapshot(ctx, roomID)
	if err != nil {
		return fmt.Errorf("unlocking %s: %w", roomID, err)
	}

	levels := snapshot.Clone()
	delete(levels.Events, string(ref.EventTypeMessage))
	if err := e.writePowerLevels(ctx, roomID, levels); err != nil {
		return fmt.Errorf("unlocking %s: %w", roomID, err)
	}

	e.store.UnlockRoom(roomID)
	e.logger.Info("unlocked room", "room_id", roomID)
	return nil
}

// Kick removes the user from the room. Two local preconditions are
// checked before any remote call so the caller can report the precise
// cause: the bot's effective level must meet the room's kick threshold
// (ErrBotUnderprivileged) and the target's effective level must be
// below AdminFloor (ErrTargetIsAdmin).
func (e *Engine) Kick(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error {
	snapshot, err := e.Snapshot(ctx, roomID)
	if err != nil {
		return fmt.Errorf("kicking %s: %w", userID, err)
	}

	if snapshot.UserLevel(e.session.UserID()) < snapshot.KickLevel() {
		return ErrBotUnderprivileged
	}
	if snapshot.UserLevel(userID) >= AdminFloor {
		return ErrTargetIsAdmin
	}

	if reason == "" {
		reason = "Kicked by admin"
	}
	if err := e.session.KickUser(ctx, roomID, userID, reason); err != nil {
		return fmt.Errorf("kicking %s: %w", userID, err)
	}
	e.logger.Info("kicked user", "room_id", roomID, "user_id", userID, "reason", reason)
	return nil
}

// Ban removes the user from the room and records the ban. The removal
// is a plain membership kick, not a permission-map edit; the BanRecord
// is what keeps the user out of moderated conversation if they return.
func (e *Engine) Ban(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error {
	if reason == "" {
		reason = "Banned by admin"
	}
	if err := e.session.KickUser(ctx, roomID, userID, reason); err != nil {
		return fmt.Errorf("banning %s: %w", userID, err)
	}

	e.store.Ban(userID, BanRecord{
		RoomID:    roomID,
		Timestamp: e.clock.Now().UnixMilli(),
		Reason:    reason,
	})
	e.logger.Info("banned user", "room_id", roomID, "user_id", userID, "reason", reason)
	return nil
}

// Unban clears the user's ban record, then tries to re-invite them.
// The invite is best-effort: the user may already be in the room or the
// bot may lack invite rights, and ban-state cleanup must not fail for
// that.
func (e *Engine) Unban(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	e.store.Unban(userID)

	if err := e.session.InviteUser(ctx, roomID, userID); err != nil {
		e.logger.Warn("could not re-invite unbanned user",
			"room_id", roomID, "user_id", userID, "error", err)
	}
	e.logger.Info("unbanned user", "room_id", roomID, "user_id", userID)
	return nil
}

// BotPermission reports the bot's standing in a room.
type BotPermission struct {
	// Level is the bot's effective power level.
	Level int
	// RequiredSendLevel is the effective level needed to send
	// m.room.message.
	RequiredSendLevel int
	// CanSend is Level >= RequiredSendLevel.
	CanSend bool
}

// BotPermission computes the bot's effective level and send capability
// from a fresh snapshot. Effective values use the uniform explicit →
// default fallback: users_default for members, state_default for the
// send threshold.
func (e *Engine) BotPermission(ctx context.Context, roomID ref.RoomID) (BotPermission, error) {
	snapshot, err := e.Snapshot(ctx, roomID)
	if err != nil {
		return BotPermission{}, fmt.Errorf("checking bot permission in %s: %w", roomID, err)
	}

	level := snapshot.UserLevel(e.session.UserID())
	required := snapshot.EventLevel(ref.EventTypeMessage)
	return BotPermission{
		Level:             level,
		RequiredSendLevel: required,
		CanSend:           level >= required,
	}, nil
}
