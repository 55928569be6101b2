// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package moderation holds the bot's enforcement core: the durable
// state store, the admin matcher, the inbound-message decision list,
// and the engine that edits room power levels to carry out mutes,
// locks, kicks, and bans.
package moderation
