// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
)

// syncFilter restricts the /sync response to the two event types the
// bot acts on: membership transitions and room messages. Presence,
// typing notifications, receipts, and account data are all dropped at
// the homeserver.
const syncFilter = `{
	"room": {
		"state": {
			"types": ["m.room.member"]
		},
		"timeline": {
			"types": ["m.room.member", "m.room.message"],
			"limit": 50
		},
		"ephemeral": {
			"types": []
		},
		"account_data": {
			"types": []
		}
	},
	"presence": {
		"types": []
	},
	"account_data": {
		"types": []
	}
}`

// initialSync performs the first /sync to obtain a since token and
// establish baseline state: pending invites are accepted, and every
// already-joined room gets the admin sweep so admins who obtained their
// rights while the bot was offline are promoted.
//
// Timeline events from the initial snapshot are deliberately not
// replayed — they are history, and moderating them again would re-mute
// members for joins that happened weeks ago.
func (b *Bot) initialSync(ctx context.Context) (string, error) {
	response, err := b.session.Sync(ctx, messaging.SyncOptions{Filter: syncFilter})
	if err != nil {
		return "", fmt.Errorf("initial sync: %w", err)
	}

	b.logger.Info("initial sync complete",
		"next_batch", response.NextBatch,
		"joined_rooms", len(response.Rooms.Join),
		"pending_invites", len(response.Rooms.Invite),
	)

	for roomID := range response.Rooms.Invite {
		b.acceptInvite(ctx, roomID)
	}
	for roomID := range response.Rooms.Join {
		if b.ignoredRooms[roomID] {
			continue
		}
		b.adminSweep(ctx, roomID)
	}
	return response.NextBatch, nil
}

// syncLoop runs the incremental /sync long-poll. The long-poll timeout
// is 30 seconds: when nothing happens the homeserver returns an empty
// response and the loop immediately re-polls; when events arrive it
// returns immediately. Transient errors retry with exponential backoff
// (1s → 30s); context cancellation exits cleanly.
func (b *Bot) syncLoop(ctx context.Context, sinceToken string) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		response, err := b.session.Sync(ctx, messaging.SyncOptions{
			Since:      sinceToken,
			Timeout:    30000, // 30 seconds in milliseconds
			SetTimeout: true,
			Filter:     syncFilter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return
			case <-b.clock.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = time.Second
		sinceToken = response.NextBatch

		b.processSyncResponse(ctx, response)
	}
}

// processSyncResponse accepts invites and dispatches timeline events.
// Ignored rooms are dropped wholesale before any event is examined.
func (b *Bot) processSyncResponse(ctx context.Context, response *messaging.SyncResponse) {
	for roomID := range response.Rooms.Invite {
		b.acceptInvite(ctx, roomID)
	}

	for roomID, room := range response.Rooms.Join {
		if b.ignoredRooms[roomID] {
			continue
		}
		for i := range room.Timeline.Events {
			event := &room.Timeline.Events[i]
			switch event.Type {
			case ref.EventTypeMember:
				b.handleMembership(ctx, roomID, event)
			case ref.EventTypeMessage:
				b.handleMessage(ctx, roomID, event)
			}
		}
	}
}
