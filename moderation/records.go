// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import (
	"github.com/bureau-foundation/warden/lib/ref"
)

// MuteRecord marks a user as muted by policy. Presence of the record is
// authoritative for enforcement regardless of the remote permission
// state.
type MuteRecord struct {
	RoomID    ref.RoomID `json:"roomId"`
	Timestamp int64      `json:"timestamp"`
	Reason    string     `json:"reason"`
}

// BanRecord marks a user as banned. Removing the record does not
// retroactively reverse the remote kick that imposed it.
type BanRecord struct {
	RoomID    ref.RoomID `json:"roomId"`
	Timestamp int64      `json:"timestamp"`
	Reason    string     `json:"reason"`
}

// Warning is one entry in a user's ordered warning sequence. Warnings
// never expire on their own.
type Warning struct {
	Timestamp int64      `json:"timestamp"`
	Reason    string     `json:"reason"`
	AdminID   ref.UserID `json:"adminId"`
}

// LockRecord marks a room whose send permission has been restricted to
// admins.
type LockRecord struct {
	Timestamp int64 `json:"timestamp"`
}

// IntervalMessage is a named recurring broadcast for one room.
// LastSent starts at zero so a freshly created entry fires on the next
// scheduler pass once its interval has elapsed since the epoch.
type IntervalMessage struct {
	Minutes  int    `json:"minutes"`
	Message  string `json:"message"`
	LastSent int64  `json:"lastSent"`
}

// ScammerWarningName is the reserved interval entry installed by the
// setscammermessage command.
const ScammerWarningName = "scammer_warning"
