// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/warden/lib/ref"
)

var (
	alice = ref.MustParseUserID("@alice:example.com")
	bob   = ref.MustParseUserID("@bob:example.com")
	room1 = ref.MustParseRoomID("!room1:example.com")
	room2 = ref.MustParseRoomID("!room2:example.com")
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := OpenStore(path, nil)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	return store, path
}

func TestStoreStartsEmptyWhenFileAbsent(t *testing.T) {
	store, _ := newTestStore(t)
	if store.IsMuted(alice) {
		t.Error("fresh store reports a mute")
	}
	muted, banned := store.Counts()
	if muted != 0 || banned != 0 {
		t.Errorf("counts = %d, %d, want 0, 0", muted, banned)
	}
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenStore(path, nil); err == nil {
		t.Fatal("expected error for unparseable state file")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, path := newTestStore(t)

	store.Mute(alice, MuteRecord{RoomID: room1, Timestamp: 1700000000000, Reason: "spam"})
	store.Ban(bob, BanRecord{RoomID: room1, Timestamp: 1700000001000, Reason: "scam links"})
	store.SetRole(alice, "verified")
	store.Warn(alice, Warning{Timestamp: 1700000002000, Reason: "caps", AdminID: bob})
	store.LockRoom(room2, LockRecord{Timestamp: 1700000003000})
	store.SetRules(room1, "Be kind.")
	store.SetInterval(room1, "reminder", IntervalMessage{Minutes: 30, Message: "drink water"})

	reopened, err := OpenStore(path, nil)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}

	record, ok := reopened.MuteRecordFor(alice)
	if !ok || record.Reason != "spam" || record.RoomID != room1 {
		t.Errorf("mute record = %+v, %v", record, ok)
	}
	if !reopened.IsBanned(bob) {
		t.Error("ban record lost across reopen")
	}
	if role := reopened.Role(alice, "unverified"); role != "verified" {
		t.Errorf("role = %q, want verified", role)
	}
	warnings := reopened.Warnings(alice)
	if len(warnings) != 1 || warnings[0].AdminID != bob {
		t.Errorf("warnings = %+v", warnings)
	}
	if !reopened.IsLocked(room2) {
		t.Error("lock record lost across reopen")
	}
	if rules := reopened.Rules(room1); rules != "Be kind." {
		t.Errorf("rules = %q", rules)
	}
	intervals := reopened.Intervals(room1)
	if intervals["reminder"].Minutes != 30 {
		t.Errorf("intervals = %+v", intervals)
	}
}

func TestStoreLegacyKeyNames(t *testing.T) {
	store, path := newTestStore(t)
	store.Mute(alice, MuteRecord{RoomID: room1, Timestamp: 1, Reason: "x"})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("state file is not JSON: %v", err)
	}
	for _, key := range []string{"mutedUsers", "userRoles", "bannedUsers", "lockedRooms", "warnings", "roomRules", "intervalMessages"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("state file missing key %q", key)
		}
	}
}

func TestStorePartialFileKeepsMapsUsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"mutedUsers":{}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	store, err := OpenStore(path, nil)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	// Writes into maps the file omitted must not panic.
	store.SetRole(alice, "verified")
	store.Warn(alice, Warning{Timestamp: 1, Reason: "r", AdminID: bob})
	store.SetInterval(room1, "n", IntervalMessage{Minutes: 5, Message: "m"})
}

func TestUnwarnIndexing(t *testing.T) {
	store, _ := newTestStore(t)
	store.Warn(alice, Warning{Timestamp: 1, Reason: "r1", AdminID: bob})
	store.Warn(alice, Warning{Timestamp: 2, Reason: "r2", AdminID: bob})
	store.Warn(alice, Warning{Timestamp: 3, Reason: "r3", AdminID: bob})

	if !store.Unwarn(alice, 1) {
		t.Fatal("Unwarn(1) failed")
	}
	warnings := store.Warnings(alice)
	if len(warnings) != 2 || warnings[0].Reason != "r1" || warnings[1].Reason != "r3" {
		t.Fatalf("after removing index 1: %+v", warnings)
	}

	// Negative index removes the most recent.
	if !store.Unwarn(alice, -1) {
		t.Fatal("Unwarn(-1) failed")
	}
	warnings = store.Warnings(alice)
	if len(warnings) != 1 || warnings[0].Reason != "r1" {
		t.Fatalf("after removing last: %+v", warnings)
	}

	if store.Unwarn(alice, 5) {
		t.Error("out-of-range index succeeded")
	}

	// Removing the final warning drops the user's entry entirely.
	if !store.Unwarn(alice, 0) {
		t.Fatal("Unwarn(0) failed")
	}
	if store.Unwarn(alice, -1) {
		t.Error("Unwarn on empty list succeeded")
	}
	users, total := store.WarningStats()
	if users != 0 || total != 0 {
		t.Errorf("warning stats = %d users, %d total, want 0, 0", users, total)
	}
}

func TestIntervalLifecycle(t *testing.T) {
	store, _ := newTestStore(t)

	store.SetInterval(room1, "reminder", IntervalMessage{Minutes: 30, Message: "hi"})
	store.SetInterval(room2, "other", IntervalMessage{Minutes: 5, Message: "yo"})

	rooms := store.RoomsWithIntervals()
	if len(rooms) != 2 || rooms[0] != room1 || rooms[1] != room2 {
		t.Fatalf("rooms with intervals = %v", rooms)
	}

	store.MarkIntervalSent(room1, "reminder", 1700000000000)
	if got := store.Intervals(room1)["reminder"].LastSent; got != 1700000000000 {
		t.Errorf("lastSent = %d", got)
	}
	// Marking a removed entry is a no-op.
	store.MarkIntervalSent(room1, "gone", 42)

	if !store.RemoveInterval(room2, "other") {
		t.Fatal("RemoveInterval failed")
	}
	if store.RemoveInterval(room2, "other") {
		t.Error("second RemoveInterval succeeded")
	}
	rooms = store.RoomsWithIntervals()
	if len(rooms) != 1 || rooms[0] != room1 {
		t.Errorf("rooms after removal = %v", rooms)
	}
}

func TestMutedUsersSorted(t *testing.T) {
	store, _ := newTestStore(t)
	store.Mute(bob, MuteRecord{RoomID: room1, Timestamp: 1})
	store.Mute(alice, MuteRecord{RoomID: room1, Timestamp: 2})

	users := store.MutedUsers()
	if len(users) != 2 || users[0] != alice || users[1] != bob {
		t.Errorf("muted users = %v", users)
	}
}
