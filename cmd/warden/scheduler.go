// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"
)

// schedulerCadence is how often due intervals are checked. Interval
// granularity is minutes, so a one-minute sweep never skips a slot.
const schedulerCadence = time.Minute

// runScheduler fires recurring broadcasts until ctx is cancelled. An
// entry is due when at least its configured interval has passed since
// it last fired; after sending, lastSent advances to now (not the slot
// boundary), so a stalled process resumes with at most one broadcast
// per entry rather than a burst of missed ones.
func (b *Bot) runScheduler(ctx context.Context) {
	ticker := b.clock.NewTicker(schedulerCadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.broadcastDue(ctx)
		}
	}
}

// broadcastDue sends every due interval message. Send failures are
// logged and the entry is not advanced, so it retries on the next
// sweep.
func (b *Bot) broadcastDue(ctx context.Context) {
	nowMillis := b.clock.Now().UnixMilli()

	for _, roomID := range b.store.RoomsWithIntervals() {
		if b.ignoredRooms[roomID] {
			continue
		}
		for name, interval := range b.store.Intervals(roomID) {
			if interval.Minutes < 1 {
				continue
			}
			if nowMillis-interval.LastSent < int64(interval.Minutes)*60_000 {
				continue
			}
			if _, err := b.session.SendMessage(ctx, roomID, markdownMessage(interval.Message)); err != nil {
				b.logger.Error("sending scheduled broadcast",
					"room_id", roomID, "name", name, "error", err)
				continue
			}
			b.store.MarkIntervalSent(roomID, name, nowMillis)
			b.logger.Info("scheduled broadcast sent", "room_id", roomID, "name", name)
		}
	}
}
