// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/bureau-foundation/warden/moderation"
)

func TestUnverifiedSenderRedactedAndMuted(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)

	bot.handleMessage(context.Background(), room1, messageEvent(alice, "hello everyone"))

	if len(homeserver.redactions) != 1 || homeserver.redactions[0] != "$msg-alice" {
		t.Errorf("redactions = %v", homeserver.redactions)
	}
	if !bot.store.IsMuted(alice) {
		t.Error("unverified sender not muted")
	}
	if got := homeserver.writes[0].Users[alice.String()]; got != moderation.MutedLevel {
		t.Errorf("alice's level = %d, want %d", got, moderation.MutedLevel)
	}
}

func TestUnverifiedCommandNeverDispatched(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)

	// !myrole is open to members, but the gate halts the pipeline
	// before the dispatcher: no reply, only the redaction and mute.
	bot.handleMessage(context.Background(), room1, messageEvent(alice, "!myrole"))

	if len(homeserver.sends) != 0 {
		t.Errorf("gated command produced a reply: %v", homeserver.sentBodies())
	}
	if len(homeserver.redactions) != 1 {
		t.Errorf("redactions = %v", homeserver.redactions)
	}
	if !bot.store.IsMuted(alice) {
		t.Error("gated sender not muted")
	}
}

func TestAlreadyMutedUnverifiedSenderNotReMuted(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)
	bot.store.Mute(alice, moderation.MuteRecord{RoomID: room1, Timestamp: 1})

	bot.handleMessage(context.Background(), room1, messageEvent(alice, "hello"))

	if len(homeserver.redactions) != 1 {
		t.Errorf("redactions = %v", homeserver.redactions)
	}
	if len(homeserver.writes) != 0 {
		t.Errorf("re-muted an already muted sender: %d writes", len(homeserver.writes))
	}
}

func TestVerifiedMutedSenderRedactedOnly(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)
	bot.store.SetRole(alice, "verified")
	bot.store.Mute(alice, moderation.MuteRecord{RoomID: room1, Timestamp: 1})

	bot.handleMessage(context.Background(), room1, messageEvent(alice, "let me speak"))

	if len(homeserver.redactions) != 1 {
		t.Errorf("redactions = %v", homeserver.redactions)
	}
	if len(homeserver.writes) != 0 {
		t.Errorf("power levels touched: %d writes", len(homeserver.writes))
	}
}

func TestVerifiedSenderPlainMessageIgnored(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)
	bot.store.SetRole(alice, "verified")

	bot.handleMessage(context.Background(), room1, messageEvent(alice, "just chatting"))

	if len(homeserver.ops) != 0 {
		t.Errorf("plain message triggered operations: %v", homeserver.ops)
	}
}

func TestOwnMessagesSkipped(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)

	bot.handleMessage(context.Background(), room1, messageEvent(botUser, "!mute alice"))

	if len(homeserver.ops) != 0 {
		t.Errorf("own message triggered operations: %v", homeserver.ops)
	}
}

func TestAdminCommandDispatched(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)

	bot.handleMessage(context.Background(), room1, messageEvent(adminUser, "!mute Alice spamming links"))

	if !bot.store.IsMuted(alice) {
		t.Fatal("command did not mute the target")
	}
	record, _ := bot.store.MuteRecordFor(alice)
	if record.Reason != "spamming links" {
		t.Errorf("reason = %q", record.Reason)
	}
	bodies := homeserver.sentBodies()
	if len(bodies) != 1 || !strings.Contains(bodies[0], alice.String()) {
		t.Errorf("confirmation = %v", bodies)
	}
}

func TestAdminCommandInvisibleToNonAdmin(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)
	bot.store.SetRole(bob, "verified")

	bot.handleMessage(context.Background(), room1, messageEvent(bob, "!mute Alice"))

	if len(homeserver.ops) != 0 {
		t.Errorf("unauthorized command triggered operations: %v", homeserver.ops)
	}
}

// TestVerificationLifecycle walks the full gate: a new member joins and
// is muted, an admin unmutes them, and — because unmuting does not
// verify — their next message is still redacted and they are re-muted.
func TestVerificationLifecycle(t *testing.T) {
	bot, homeserver := newTestBot(t, `{"users":{"@warden:example.com":100}}`)
	ctx := context.Background()

	bot.handleMembership(ctx, room1, joinEvent(alice))
	if !bot.store.IsMuted(alice) {
		t.Fatal("join did not mute")
	}

	// Serve the muted snapshot so the unmute sees the explicit -1.
	homeserver.mu.Lock()
	homeserver.levels = `{"users":{"@warden:example.com":100,"@alice:example.com":-1}}`
	homeserver.mu.Unlock()

	bot.handleMessage(ctx, room1, messageEvent(adminUser, "!free Alice verified over DM"))
	if bot.store.IsMuted(alice) {
		t.Fatal("unmute did not clear the record")
	}
	restored := homeserver.writes[len(homeserver.writes)-1]
	if level, ok := restored.Users[alice.String()]; !ok || level != 0 {
		t.Errorf("restored level = %d, %v, want explicit 0", level, ok)
	}

	// Role is still the default: speaking re-triggers the gate.
	homeserver.mu.Lock()
	homeserver.levels = `{"users":{"@warden:example.com":100,"@alice:example.com":0}}`
	homeserver.mu.Unlock()

	before := len(homeserver.redactions)
	bot.handleMessage(ctx, room1, messageEvent(alice, "am I free now?"))
	if len(homeserver.redactions) != before+1 {
		t.Error("unverified sender's message survived after unmute")
	}
	if !bot.store.IsMuted(alice) {
		t.Error("unverified sender not re-muted")
	}

	// Verification ends the cycle.
	bot.handleMessage(ctx, room1, messageEvent(adminUser, "!setrole Alice verified"))
	bot.store.Unmute(alice)
	before = len(homeserver.redactions)
	bot.handleMessage(ctx, room1, messageEvent(alice, "hello!"))
	if len(homeserver.redactions) != before {
		t.Error("verified sender's message was redacted")
	}
}
