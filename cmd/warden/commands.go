// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
	"github.com/bureau-foundation/warden/moderation"
)

// command is one entry in the flat dispatch table. Admin-only commands
// are invisible to non-admins: an unauthorized invocation falls through
// exactly like an unrecognized word, leaking nothing about the admin
// surface.
type command struct {
	adminOnly bool
	usage     string
	summary   string
	run       func(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string)
}

// commands maps the lowercased command word (without the ! prefix) to
// its entry. Aliases share one entry.
var commands map[string]*command

// commandOrder drives the help listing; aliases are folded into their
// canonical names.
var commandOrder = []string{
	"mute", "free", "kick", "ban", "unban", "warn", "unwarn", "warns",
	"lockchat", "unlockchat", "setrole", "role", "allroles", "muted",
	"setrules", "setinterval", "removeinterval", "listintervals",
	"setscammermessage", "removescammermessage", "sendimage",
	"info", "stats", "id", "checkpower",
	"rules", "myrole", "roles", "status", "help",
}

func init() {
	commands = map[string]*command{
		"mute": {adminOnly: true, usage: "!mute <user> [reason]",
			summary: "mute a user", run: cmdMute},
		"free": {adminOnly: true, usage: "!free <user> <reason>",
			summary: "unmute a user (reason required)", run: cmdFree},
		"kick": {adminOnly: true, usage: "!kick <user> [reason]",
			summary: "remove a user from the room", run: cmdKick},
		"ban": {adminOnly: true, usage: "!ban <user> [reason]",
			summary: "remove a user and keep them muted on return", run: cmdBan},
		"unban": {adminOnly: true, usage: "!unban <user>",
			summary: "lift a ban and re-invite", run: cmdUnban},
		"warn": {adminOnly: true, usage: "!warn <user> [reason]",
			summary: "record a warning", run: cmdWarn},
		"unwarn": {adminOnly: true, usage: "!unwarn <user> [number]",
			summary: "remove a warning (most recent by default)", run: cmdUnwarn},
		"warns": {adminOnly: true, usage: "!warns <user>",
			summary: "list a user's warnings", run: cmdWarns},
		"lockchat": {adminOnly: true, usage: "!lockchat",
			summary: "restrict sending to admins", run: cmdLockChat},
		"unlockchat": {adminOnly: true, usage: "!unlockchat",
			summary: "lift the chat lock", run: cmdUnlockChat},
		"setrole": {adminOnly: true, usage: "!setrole <user> <role>",
			summary: "assign a role", run: cmdSetRole},
		"role": {adminOnly: true, usage: "!role <user>",
			summary: "show a user's role", run: cmdRole},
		"allroles": {adminOnly: true, usage: "!allroles",
			summary: "list every explicit role assignment", run: cmdAllRoles},
		"muted": {adminOnly: true, usage: "!muted",
			summary: "list muted users", run: cmdMuted},
		"setrules": {adminOnly: true, usage: "!setrules <text>",
			summary: "set this room's rules", run: cmdSetRules},
		"setinterval": {adminOnly: true, usage: "!setinterval <name> <minutes> <message>",
			summary: "schedule a recurring broadcast", run: cmdSetInterval},
		"removeinterval": {adminOnly: true, usage: "!removeinterval <name>",
			summary: "remove a recurring broadcast", run: cmdRemoveInterval},
		"listintervals": {adminOnly: true, usage: "!listintervals",
			summary: "list this room's broadcasts", run: cmdListIntervals},
		"setscammermessage": {adminOnly: true, usage: "!setscammermessage <minutes> [message]",
			summary: "schedule the recurring scam warning", run: cmdSetScammerMessage},
		"removescammermessage": {adminOnly: true, usage: "!removescammermessage",
			summary: "remove the recurring scam warning", run: cmdRemoveScammerMessage},
		"sendimage": {adminOnly: true, usage: "!sendimage <url-or-path>",
			summary: "upload and post an image", run: cmdSendImage},
		"info": {adminOnly: true, usage: "!info [user]",
			summary: "show user or room details", run: cmdInfo},
		"stats": {adminOnly: true, usage: "!stats",
			summary: "show bot statistics", run: cmdStats},
		"id": {adminOnly: true, usage: "!id <user>",
			summary: "resolve a user's full ID", run: cmdID},
		"checkpower": {adminOnly: true, usage: "!checkpower",
			summary: "show the bot's power level here", run: cmdCheckPower},

		"rules": {usage: "!rules", summary: "show this room's rules", run: cmdRules},
		"myrole": {usage: "!myrole", summary: "show your role", run: cmdMyRole},
		"roles": {usage: "!roles", summary: "explain the role system", run: cmdRoles},
		"status": {usage: "!status", summary: "check whether the bot is alive", run: cmdStatus},
		"help": {usage: "!help", summary: "show this list", run: cmdHelp},
	}
	commands["unmute"] = commands["free"]
	commands["commands"] = commands["help"]
	commands["online"] = commands["status"]
}

// dispatch routes one tokenized command message. Unknown words and
// unauthorized admin commands are ignored without a reply.
func (b *Bot) dispatch(ctx context.Context, roomID ref.RoomID, event *messaging.Event, tokens []string) {
	word := strings.ToLower(strings.TrimPrefix(tokens[0], "!"))
	entry, ok := commands[word]
	if !ok {
		return
	}
	if entry.adminOnly && !b.isAdmin(event.Sender) {
		return
	}
	b.logger.Info("command", "room_id", roomID, "sender", event.Sender, "command", word)
	entry.run(b, ctx, roomID, event, tokens[1:])
}

// resolveUser turns a command argument into a room member. A fully
// qualified @user:server ID passes through unresolved; anything else is
// matched case-insensitively as a substring of member display names and
// user IDs, first match wins.
func (b *Bot) resolveUser(ctx context.Context, roomID ref.RoomID, arg string) (ref.UserID, bool) {
	if strings.HasPrefix(arg, "@") {
		userID, err := ref.ParseUserID(arg)
		return userID, err == nil
	}

	members, err := b.session.GetRoomMembers(ctx, roomID)
	if err != nil {
		b.logger.Error("listing members for lookup", "room_id", roomID, "error", err)
		return ref.UserID{}, false
	}
	needle := strings.ToLower(arg)
	for _, member := range members {
		if strings.Contains(strings.ToLower(member.DisplayName), needle) ||
			strings.Contains(strings.ToLower(member.UserID.String()), needle) {
			return member.UserID, true
		}
	}
	return ref.UserID{}, false
}

// requireTarget resolves args[0] to a member, replying with usage or
// not-found text when it cannot.
func (b *Bot) requireTarget(ctx context.Context, roomID ref.RoomID, usage string, args []string) (ref.UserID, bool) {
	if len(args) == 0 {
		b.reply(ctx, roomID, "Usage: `"+usage+"`")
		return ref.UserID{}, false
	}
	target, ok := b.resolveUser(ctx, roomID, args[0])
	if !ok {
		b.reply(ctx, roomID, fmt.Sprintf("No member matching **%s** found.", args[0]))
		return ref.UserID{}, false
	}
	return target, true
}

func cmdMute(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	target, ok := b.requireTarget(ctx, roomID, commands["mute"].usage, args)
	if !ok {
		return
	}
	reason := strings.Join(args[1:], " ")
	if reason == "" {
		reason = "Muted by admin"
	}
	if err := b.engine.Mute(ctx, roomID, target, reason); err != nil {
		b.logger.Error("mute failed", "room_id", roomID, "user_id", target, "error", err)
		b.reply(ctx, roomID, fmt.Sprintf("Could not mute **%s**.", target))
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf("🔇 Muted **%s** — %s", target, reason))
}

func cmdFree(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	// The reason is mandatory: every unmute is an auditable decision.
	if len(args) < 2 {
		b.reply(ctx, roomID, "Usage: `"+commands["free"].usage+"` — the reason is required.")
		return
	}
	target, ok := b.resolveUser(ctx, roomID, args[0])
	if !ok {
		b.reply(ctx, roomID, fmt.Sprintf("No member matching **%s** found.", args[0]))
		return
	}
	reason := strings.Join(args[1:], " ")
	if err := b.engine.Unmute(ctx, roomID, target); err != nil {
		b.logger.Error("unmute failed", "room_id", roomID, "user_id", target, "error", err)
		b.reply(ctx, roomID, fmt.Sprintf("Could not unmute **%s**.", target))
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf("🔊 Unmuted **%s** — %s", target, reason))
}

func cmdKick(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	target, ok := b.requireTarget(ctx, roomID, commands["kick"].usage, args)
	if !ok {
		return
	}
	reason := strings.Join(args[1:], " ")
	err := b.engine.Kick(ctx, roomID, target, reason)
	switch {
	case errors.Is(err, moderation.ErrBotUnderprivileged):
		b.reply(ctx, roomID, "I don't have a high enough power level to kick here.")
	case errors.Is(err, moderation.ErrTargetIsAdmin):
		b.reply(ctx, roomID, fmt.Sprintf("**%s** is an admin — not kicking.", target))
	case err != nil:
		b.logger.Error("kick failed", "room_id", roomID, "user_id", target, "error", err)
		b.reply(ctx, roomID, fmt.Sprintf("Could not kick **%s**.", target))
	default:
		b.reply(ctx, roomID, fmt.Sprintf("👢 Kicked **%s**.", target))
	}
}

func cmdBan(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	target, ok := b.requireTarget(ctx, roomID, commands["ban"].usage, args)
	if !ok {
		return
	}
	reason := strings.Join(args[1:], " ")
	if err := b.engine.Ban(ctx, roomID, target, reason); err != nil {
		b.logger.Error("ban failed", "room_id", roomID, "user_id", target, "error", err)
		b.reply(ctx, roomID, fmt.Sprintf("Could not ban **%s**.", target))
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf("⛔ Banned **%s**.", target))
}

func cmdUnban(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if len(args) == 0 {
		b.reply(ctx, roomID, "Usage: `"+commands["unban"].usage+"`")
		return
	}
	// A banned user is usually no longer a member, so room lookup can
	// fail; fall back to treating the raw argument as a user ID.
	target, ok := b.resolveUser(ctx, roomID, args[0])
	if !ok {
		raw := args[0]
		if !strings.HasPrefix(raw, "@") {
			raw = "@" + raw
		}
		parsed, err := ref.ParseUserID(raw)
		if err != nil {
			b.reply(ctx, roomID, fmt.Sprintf("**%s** is not a valid user ID.", args[0]))
			return
		}
		target = parsed
	}
	if err := b.engine.Unban(ctx, roomID, target); err != nil {
		b.logger.Error("unban failed", "room_id", roomID, "user_id", target, "error", err)
		b.reply(ctx, roomID, fmt.Sprintf("Could not unban **%s**.", target))
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf("✅ Unbanned **%s** and sent a fresh invite.", target))
}

func cmdWarn(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	target, ok := b.requireTarget(ctx, roomID, commands["warn"].usage, args)
	if !ok {
		return
	}
	reason := strings.Join(args[1:], " ")
	if reason == "" {
		reason = "Behavior warning"
	}
	b.store.Warn(target, moderation.Warning{
		Timestamp: b.clock.Now().UnixMilli(),
		Reason:    reason,
		AdminID:   event.Sender,
	})
	count := len(b.store.Warnings(target))
	b.reply(ctx, roomID, fmt.Sprintf("⚠️ Warned **%s** (%d total) — %s", target, count, reason))
}

func cmdUnwarn(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	target, ok := b.requireTarget(ctx, roomID, commands["unwarn"].usage, args)
	if !ok {
		return
	}
	index := -1 // most recent
	if len(args) >= 2 {
		// User-facing numbering is 1-based, matching !warns output.
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			b.reply(ctx, roomID, "Usage: `"+commands["unwarn"].usage+"`")
			return
		}
		index = n - 1
	}
	if !b.store.Unwarn(target, index) {
		b.reply(ctx, roomID, fmt.Sprintf("**%s** has no such warning.", target))
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf("Removed a warning from **%s** (%d remaining).",
		target, len(b.store.Warnings(target))))
}

func cmdWarns(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	target, ok := b.requireTarget(ctx, roomID, commands["warns"].usage, args)
	if !ok {
		return
	}
	warnings := b.store.Warnings(target)
	if len(warnings) == 0 {
		b.reply(ctx, roomID, fmt.Sprintf("**%s** has no warnings.", target))
		return
	}
	var out strings.Builder
	fmt.Fprintf(&out, "Warnings for **%s**:\n", target)
	for i, warning := range warnings {
		fmt.Fprintf(&out, "%d. %s (by %s)\n", i+1, warning.Reason, warning.AdminID)
	}
	b.reply(ctx, roomID, out.String())
}

func cmdLockChat(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if err := b.engine.Lock(ctx, roomID); err != nil {
		b.logger.Error("lock failed", "room_id", roomID, "error", err)
		b.reply(ctx, roomID, "Could not lock the chat.")
		return
	}
	b.reply(ctx, roomID, "🔒 Chat locked — only admins can send messages.")
}

func cmdUnlockChat(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if err := b.engine.Unlock(ctx, roomID); err != nil {
		b.logger.Error("unlock failed", "room_id", roomID, "error", err)
		b.reply(ctx, roomID, "Could not unlock the chat.")
		return
	}
	b.reply(ctx, roomID, "🔓 Chat unlocked.")
}

func cmdSetRole(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if len(args) < 2 {
		b.reply(ctx, roomID, "Usage: `"+commands["setrole"].usage+"`")
		return
	}
	target, ok := b.resolveUser(ctx, roomID, args[0])
	if !ok {
		b.reply(ctx, roomID, fmt.Sprintf("No member matching **%s** found.", args[0]))
		return
	}
	role := args[1]
	b.store.SetRole(target, role)
	b.reply(ctx, roomID, fmt.Sprintf("Set **%s** to role **%s**.", target, role))
}

func cmdRole(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	target, ok := b.requireTarget(ctx, roomID, commands["role"].usage, args)
	if !ok {
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf("**%s** has role **%s**.", target, b.store.Role(target, b.defaultRole)))
}

func cmdAllRoles(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	assignments := b.store.RoleAssignments()
	if len(assignments) == 0 {
		b.reply(ctx, roomID, "No explicit role assignments.")
		return
	}
	users := make([]ref.UserID, 0, len(assignments))
	for userID := range assignments {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].String() < users[j].String() })

	var out strings.Builder
	out.WriteString("Role assignments:\n")
	for _, userID := range users {
		fmt.Fprintf(&out, "- %s: **%s**\n", userID, assignments[userID])
	}
	b.reply(ctx, roomID, out.String())
}

func cmdMuted(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	users := b.store.MutedUsers()
	if len(users) == 0 {
		b.reply(ctx, roomID, "Nobody is muted.")
		return
	}
	var out strings.Builder
	out.WriteString("Muted users:\n")
	for _, userID := range users {
		record, _ := b.store.MuteRecordFor(userID)
		fmt.Fprintf(&out, "- %s — %s\n", userID, record.Reason)
	}
	b.reply(ctx, roomID, out.String())
}

func cmdSetRules(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if len(args) == 0 {
		b.reply(ctx, roomID, "Usage: `"+commands["setrules"].usage+"`")
		return
	}
	b.store.SetRules(roomID, strings.Join(args, " "))
	b.reply(ctx, roomID, "📋 Rules updated.")
}

func cmdRules(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	rules := b.store.Rules(roomID)
	if rules == "" {
		b.reply(ctx, roomID, "No rules set for this room.")
		return
	}
	b.reply(ctx, roomID, "📋 **Room rules:**\n"+rules)
}

func cmdSetInterval(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if len(args) < 3 {
		b.reply(ctx, roomID, "Usage: `"+commands["setinterval"].usage+"`")
		return
	}
	name := strings.ToLower(args[0])
	if name == moderation.ScammerWarningName {
		b.reply(ctx, roomID, "That name is reserved, use `!setscammermessage`.")
		return
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil || minutes < 1 {
		b.reply(ctx, roomID, "Minutes must be a positive number.")
		return
	}
	b.store.SetInterval(roomID, name, moderation.IntervalMessage{
		Minutes: minutes,
		Message: strings.Join(args[2:], " "),
	})
	b.reply(ctx, roomID, fmt.Sprintf("⏰ Broadcast **%s** set to every %d minutes.", name, minutes))
}

func cmdRemoveInterval(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if len(args) == 0 {
		b.reply(ctx, roomID, "Usage: `"+commands["removeinterval"].usage+"`")
		return
	}
	name := strings.ToLower(args[0])
	if name == moderation.ScammerWarningName {
		b.reply(ctx, roomID, "That name is reserved, use `!removescammermessage`.")
		return
	}
	if !b.store.RemoveInterval(roomID, name) {
		b.reply(ctx, roomID, fmt.Sprintf("No broadcast named **%s** here.", name))
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf("Removed broadcast **%s**.", name))
}

func cmdListIntervals(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	intervals := b.store.Intervals(roomID)
	if len(intervals) == 0 {
		b.reply(ctx, roomID, "No broadcasts scheduled in this room.")
		return
	}
	names := make([]string, 0, len(intervals))
	for name := range intervals {
		names = append(names, name)
	}
	sort.Strings(names)

	var out strings.Builder
	out.WriteString("Scheduled broadcasts:\n")
	for _, name := range names {
		fmt.Fprintf(&out, "- **%s** every %d minutes\n", name, intervals[name].Minutes)
	}
	b.reply(ctx, roomID, out.String())
}

func cmdSetScammerMessage(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if len(args) == 0 {
		b.reply(ctx, roomID, "Usage: `"+commands["setscammermessage"].usage+"`")
		return
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes < 1 {
		b.reply(ctx, roomID, "Minutes must be a positive number.")
		return
	}
	message := strings.Join(args[1:], " ")
	if message == "" {
		message = expand(b.templates.ScamWarning, map[string]string{"contacts": b.contactList()})
	}
	b.store.SetInterval(roomID, moderation.ScammerWarningName, moderation.IntervalMessage{
		Minutes: minutes,
		Message: message,
	})
	b.reply(ctx, roomID, fmt.Sprintf("⏰ Scam warning scheduled every %d minutes.", minutes))
}

func cmdRemoveScammerMessage(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if !b.store.RemoveInterval(roomID, moderation.ScammerWarningName) {
		b.reply(ctx, roomID, "No scam warning is scheduled here.")
		return
	}
	b.reply(ctx, roomID, "Scam warning removed.")
}

func cmdSendImage(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if len(args) == 0 {
		b.reply(ctx, roomID, "Usage: `"+commands["sendimage"].usage+"`")
		return
	}
	if err := b.sendImage(ctx, roomID, args[0]); err != nil {
		b.logger.Error("sending image", "room_id", roomID, "source", args[0], "error", err)
		b.reply(ctx, roomID, "Could not send that image.")
	}
}

func cmdInfo(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	if len(args) == 0 {
		b.roomInfo(ctx, roomID)
		return
	}
	target, ok := b.resolveUser(ctx, roomID, args[0])
	if !ok {
		b.reply(ctx, roomID, fmt.Sprintf("No member matching **%s** found.", args[0]))
		return
	}
	b.userInfo(ctx, roomID, target)
}

func (b *Bot) roomInfo(ctx context.Context, roomID ref.RoomID) {
	var out strings.Builder
	fmt.Fprintf(&out, "**Room** `%s`\n", roomID)
	if members, err := b.session.GetRoomMembers(ctx, roomID); err == nil {
		joined := 0
		for _, member := range members {
			if member.Membership == "join" {
				joined++
			}
		}
		fmt.Fprintf(&out, "- Members: %d\n", joined)
	}
	fmt.Fprintf(&out, "- Locked: %t\n", b.store.IsLocked(roomID))
	fmt.Fprintf(&out, "- Rules set: %t\n", b.store.Rules(roomID) != "")
	fmt.Fprintf(&out, "- Broadcasts: %d\n", len(b.store.Intervals(roomID)))
	b.reply(ctx, roomID, out.String())
}

func (b *Bot) userInfo(ctx context.Context, roomID ref.RoomID, target ref.UserID) {
	var out strings.Builder
	fmt.Fprintf(&out, "**%s** (`%s`)\n", b.displayName(ctx, target), target)
	fmt.Fprintf(&out, "- Role: %s\n", b.store.Role(target, b.defaultRole))
	if record, ok := b.store.MuteRecordFor(target); ok {
		fmt.Fprintf(&out, "- Muted: yes — %s\n", record.Reason)
	} else {
		out.WriteString("- Muted: no\n")
	}
	fmt.Fprintf(&out, "- Banned: %t\n", b.store.IsBanned(target))
	fmt.Fprintf(&out, "- Warnings: %d\n", len(b.store.Warnings(target)))
	if snapshot, err := b.engine.Snapshot(ctx, roomID); err == nil {
		fmt.Fprintf(&out, "- Power level: %d\n", snapshot.UserLevel(target))
	}
	b.reply(ctx, roomID, out.String())
}

func cmdStats(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	muted, banned := b.store.Counts()
	warnedUsers, totalWarnings := b.store.WarningStats()

	var out strings.Builder
	out.WriteString("**Bot statistics**\n")
	if rooms, err := b.session.JoinedRooms(ctx); err == nil {
		fmt.Fprintf(&out, "- Rooms: %d\n", len(rooms))
	}
	fmt.Fprintf(&out, "- Muted: %d\n", muted)
	fmt.Fprintf(&out, "- Banned: %d\n", banned)
	fmt.Fprintf(&out, "- Warnings: %d across %d users\n", totalWarnings, warnedUsers)
	fmt.Fprintf(&out, "- Uptime: %s\n", b.clock.Now().Sub(b.startedAt).Round(time.Second))
	b.reply(ctx, roomID, out.String())
}

func cmdID(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	target, ok := b.requireTarget(ctx, roomID, commands["id"].usage, args)
	if !ok {
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf("`%s`", target))
}

func cmdCheckPower(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	permission, err := b.engine.BotPermission(ctx, roomID)
	if err != nil {
		b.logger.Error("checking own permission", "room_id", roomID, "error", err)
		b.reply(ctx, roomID, "Could not read my power level here.")
		return
	}
	b.reply(ctx, roomID, fmt.Sprintf(
		"My power level is **%d**; sending here requires **%d** (can send: %t).",
		permission.Level, permission.RequiredSendLevel, permission.CanSend))
}

func cmdMyRole(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	b.reply(ctx, roomID, fmt.Sprintf("Your role is **%s**.", b.store.Role(event.Sender, b.defaultRole)))
}

func cmdRoles(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	b.reply(ctx, roomID, fmt.Sprintf(
		"Members start as **%s** and are muted until verified. "+
			"Verified members hold the **%s** role and can chat freely. "+
			"Contact %s to get verified.",
		b.defaultRole, b.verifiedRole, b.contactList()))
}

func cmdStatus(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	b.reply(ctx, roomID, fmt.Sprintf("✅ Online — up %s.", b.clock.Now().Sub(b.startedAt).Round(time.Second)))
}

func cmdHelp(b *Bot, ctx context.Context, roomID ref.RoomID, event *messaging.Event, args []string) {
	admin := b.isAdmin(event.Sender)
	var out strings.Builder
	out.WriteString("**Commands**\n")
	for _, name := range commandOrder {
		entry := commands[name]
		if entry.adminOnly && !admin {
			continue
		}
		fmt.Fprintf(&out, "- `%s` — %s\n", entry.usage, entry.summary)
	}
	b.reply(ctx, roomID, out.String())
}
