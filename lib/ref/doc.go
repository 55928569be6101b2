// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for Matrix identifiers:
// user IDs, room IDs, event IDs, and event types.
//
// Raw identifier strings from the homeserver are parsed into these
// types at the boundary (sync responses, API responses, configuration).
// Code past the boundary never handles an unvalidated identifier, and
// the compiler prevents a room ID from being passed where a user ID is
// expected.
//
// All types are immutable values. The zero value of each is not valid;
// use IsZero to check.
package ref
