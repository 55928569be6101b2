// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import (
	"errors"

	"github.com/bureau-foundation/warden/messaging"
)

// Kick precondition failures, detected locally before any remote call
// is issued so the user-facing reply can name the precise cause.
var (
	// ErrBotUnderprivileged: the bot's effective level is below the
	// room's kick threshold.
	ErrBotUnderprivileged = errors.New("moderation: bot power level below the room's kick threshold")

	// ErrTargetIsAdmin: the target's effective level is at or above the
	// admin floor (50); peer admins are never kicked.
	ErrTargetIsAdmin = errors.New("moderation: target power level is at admin level")
)

// FailureKind classifies a remote-operation failure for reporting.
type FailureKind int

const (
	// FailureNone: not a failure.
	FailureNone FailureKind = iota
	// FailurePermissionDenied: the homeserver refused the edit
	// (M_FORBIDDEN). Terminal; never retried.
	FailurePermissionDenied
	// FailureNotFound: the target state or entity does not exist
	// remotely (M_NOT_FOUND).
	FailureNotFound
	// FailureRemoteUnavailable: connectivity failure, timeout, or a
	// 5xx response. Terminal for the invocation; no automatic retry.
	FailureRemoteUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailurePermissionDenied:
		return "permission_denied"
	case FailureNotFound:
		return "not_found"
	case FailureRemoteUnavailable:
		return "remote_unavailable"
	default:
		return "unknown"
	}
}

// Classify maps a remote-call error onto the failure taxonomy. Matrix
// client errors split on their error code and status; everything else
// (transport errors, context cancellation) is a connectivity failure.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var matrixErr *messaging.MatrixError
	if errors.As(err, &matrixErr) {
		switch {
		case matrixErr.Code == messaging.ErrCodeForbidden:
			return FailurePermissionDenied
		case matrixErr.Code == messaging.ErrCodeNotFound:
			return FailureNotFound
		case matrixErr.StatusCode == 429 || matrixErr.StatusCode >= 500:
			return FailureRemoteUnavailable
		default:
			return FailurePermissionDenied
		}
	}
	return FailureRemoteUnavailable
}
