// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import (
	"github.com/bureau-foundation/warden/lib/ref"
)

// Outcome is the single tagged result of the inbound-message decision
// list.
type Outcome int

const (
	// Allow lets the message stand; command dispatch may follow.
	Allow Outcome = iota
	// RedactAndMute deletes the message and mutes the sender if they
	// are not already muted. The sender never reaches command dispatch.
	RedactAndMute
	// Redact deletes the message; the sender never reaches command
	// dispatch.
	Redact
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedactAndMute:
		return "redact_and_mute"
	case Redact:
		return "redact"
	default:
		return "unknown"
	}
}

// Policy is the ordered decision list applied to every inbound message.
// The order is load-bearing:
//
//  1. admins bypass all enforcement;
//  2. the verification gate keys on role alone — a user whose role is
//     still the default is redacted and muted even if an explicit
//     unmute cleared their mute record;
//  3. mute/ban state from the store applies to everyone else.
//
// Role-gating and mute-gating are intentionally separate conditions:
// unmuting does not verify, and verifying does not unmute.
type Policy struct {
	Matcher     *AdminMatcher
	Store       *Store
	DefaultRole string
}

// Decide returns the outcome for a message from sender.
func (p *Policy) Decide(sender ref.UserID) Outcome {
	if p.Matcher.IsAdmin(sender.String()) {
		return Allow
	}
	if p.Store.Role(sender, p.DefaultRole) == p.DefaultRole {
		return RedactAndMute
	}
	if p.Store.IsMuted(sender) || p.Store.IsBanned(sender) {
		return Redact
	}
	return Allow
}
