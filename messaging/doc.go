// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API for Warden's
// moderation needs.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client that handles login, returning authenticated [Session]
// values. Client holds the homeserver URL and HTTP transport, shared
// across all Sessions derived from it.
//
// [Session] wraps a Client with an access token for authenticated
// operations: room membership (join, leave, invite, kick), messaging
// (send events, redact events), state events (get/set, power levels),
// incremental sync with long-polling, profile display names, and media
// upload.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_NOT_FOUND, etc.) and HTTP status
// code. [IsMatrixError] tests for a specific error code. Request URLs
// are built by string concatenation rather than url.URL to avoid
// double-encoding of path segments that contain URL-encoded characters.
package messaging
