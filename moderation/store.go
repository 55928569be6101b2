// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bureau-foundation/warden/lib/ref"
)

// storeData is the persisted document. Top-level key names match the
// legacy state file so an existing deployment's data carries over.
type storeData struct {
	MutedUsers       map[ref.UserID]MuteRecord                 `json:"mutedUsers"`
	UserRoles        map[ref.UserID]string                     `json:"userRoles"`
	BannedUsers      map[ref.UserID]BanRecord                  `json:"bannedUsers"`
	LockedRooms      map[ref.RoomID]LockRecord                 `json:"lockedRooms"`
	Warnings         map[ref.UserID][]Warning                  `json:"warnings"`
	RoomRules        map[ref.RoomID]string                     `json:"roomRules"`
	IntervalMessages map[ref.RoomID]map[string]IntervalMessage `json:"intervalMessages"`
}

func emptyStoreData() storeData {
	return storeData{
		MutedUsers:       make(map[ref.UserID]MuteRecord),
		UserRoles:        make(map[ref.UserID]string),
		BannedUsers:      make(map[ref.UserID]BanRecord),
		LockedRooms:      make(map[ref.RoomID]LockRecord),
		Warnings:         make(map[ref.UserID][]Warning),
		RoomRules:        make(map[ref.RoomID]string),
		IntervalMessages: make(map[ref.RoomID]map[string]IntervalMessage),
	}
}

// Store is the durable moderation state: mute and ban records, role
// assignments, warnings, room locks, rule text, and scheduled interval
// messages. One instance is owned by the daemon and passed by handle
// into every component; all mutation goes through accessor methods that
// write the full document back to disk before returning.
//
// A flush failure is logged and the in-memory state keeps serving —
// durability is lost for that write but the process does not crash.
type Store struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	data storeData
}

// OpenStore loads the state file at path, or starts empty when the file
// does not exist. A file that exists but cannot be parsed is an error:
// silently starting empty would erase real state on the next flush.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{path: path, logger: logger, data: emptyStoreData()}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("moderation: reading state file %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &store.data); err != nil {
		return nil, fmt.Errorf("moderation: parsing state file %s: %w", path, err)
	}
	// Maps omitted from the file stay usable.
	if store.data.MutedUsers == nil {
		store.data.MutedUsers = make(map[ref.UserID]MuteRecord)
	}
	if store.data.UserRoles == nil {
		store.data.UserRoles = make(map[ref.UserID]string)
	}
	if store.data.BannedUsers == nil {
		store.data.BannedUsers = make(map[ref.UserID]BanRecord)
	}
	if store.data.LockedRooms == nil {
		store.data.LockedRooms = make(map[ref.RoomID]LockRecord)
	}
	if store.data.Warnings == nil {
		store.data.Warnings = make(map[ref.UserID][]Warning)
	}
	if store.data.RoomRules == nil {
		store.data.RoomRules = make(map[ref.RoomID]string)
	}
	if store.data.IntervalMessages == nil {
		store.data.IntervalMessages = make(map[ref.RoomID]map[string]IntervalMessage)
	}
	return store, nil
}

// flush rewrites the full document. Callers hold s.mu. The write goes
// through a temp file and rename so a crash mid-write cannot truncate
// the previous state.
func (s *Store) flush() {
	encoded, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.logger.Error("encoding moderation state", "error", err)
		return
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Error("creating state directory", "path", s.path, "error", err)
		return
	}
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		s.logger.Error("writing moderation state", "path", tmp, "error", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error("replacing moderation state", "path", s.path, "error", err)
	}
}

// Mute records a mute for the user. Idempotent: an existing record is
// replaced.
func (s *Store) Mute(userID ref.UserID, record MuteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.MutedUsers[userID] = record
	s.flush()
}

// Unmute removes the user's mute record, if any.
func (s *Store) Unmute(userID ref.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.MutedUsers, userID)
	s.flush()
}

// IsMuted reports whether the user has a mute record.
func (s *Store) IsMuted(userID ref.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.MutedUsers[userID]
	return ok
}

// MuteRecordFor returns the user's mute record.
func (s *Store) MuteRecordFor(userID ref.UserID) (MuteRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.data.MutedUsers[userID]
	return record, ok
}

// MutedUsers returns the muted user IDs in sorted order.
func (s *Store) MutedUsers() []ref.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]ref.UserID, 0, len(s.data.MutedUsers))
	for userID := range s.data.MutedUsers {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].String() < users[j].String() })
	return users
}

// Ban records a ban for the user.
func (s *Store) Ban(userID ref.UserID, record BanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.BannedUsers[userID] = record
	s.flush()
}

// Unban removes the user's ban record, if any.
func (s *Store) Unban(userID ref.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.BannedUsers, userID)
	s.flush()
}

// IsBanned reports whether the user has a ban record.
func (s *Store) IsBanned(userID ref.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.BannedUsers[userID]
	return ok
}

// Role returns the user's assigned role, or defaultRole when none is
// recorded.
func (s *Store) Role(userID ref.UserID, defaultRole string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if role, ok := s.data.UserRoles[userID]; ok {
		return role
	}
	return defaultRole
}

// SetRole assigns a role to the user.
func (s *Store) SetRole(userID ref.UserID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.UserRoles[userID] = role
	s.flush()
}

// RoleAssignments returns a copy of every explicit role assignment.
func (s *Store) RoleAssignments() map[ref.UserID]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignments := make(map[ref.UserID]string, len(s.data.UserRoles))
	for userID, role := range s.data.UserRoles {
		assignments[userID] = role
	}
	return assignments
}

// Warn appends a warning to the user's sequence.
func (s *Store) Warn(userID ref.UserID, warning Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Warnings[userID] = append(s.data.Warnings[userID], warning)
	s.flush()
}

// Unwarn removes one warning. index is zero-based; a negative index
// removes the most recent warning. Returns false when the user has no
// warnings or the index is out of range.
func (s *Store) Unwarn(userID ref.UserID, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	warnings := s.data.Warnings[userID]
	if len(warnings) == 0 {
		return false
	}
	if index < 0 {
		index = len(warnings) - 1
	}
	if index >= len(warnings) {
		return false
	}
	warnings = append(warnings[:index], warnings[index+1:]...)
	if len(warnings) == 0 {
		delete(s.data.Warnings, userID)
	} else {
		s.data.Warnings[userID] = warnings
	}
	s.flush()
	return true
}

// Warnings returns a copy of the user's warning sequence, oldest first.
func (s *Store) Warnings(userID ref.UserID) []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	warnings := s.data.Warnings[userID]
	out := make([]Warning, len(warnings))
	copy(out, warnings)
	return out
}

// WarningStats returns the number of users with warnings and the total
// warning count.
func (s *Store) WarningStats() (users, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, warnings := range s.data.Warnings {
		users++
		total += len(warnings)
	}
	return users, total
}

// LockRoom records that the room's chat has been locked.
func (s *Store) LockRoom(roomID ref.RoomID, record LockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LockedRooms[roomID] = record
	s.flush()
}

// UnlockRoom clears the room's lock record.
func (s *Store) UnlockRoom(roomID ref.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.LockedRooms, roomID)
	s.flush()
}

// IsLocked reports whether the room has a lock record.
func (s *Store) IsLocked(roomID ref.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.LockedRooms[roomID]
	return ok
}

// Rules returns the room's rule text, or "" when none is set.
func (s *Store) Rules(roomID ref.RoomID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.RoomRules[roomID]
}

// SetRules sets the room's rule text.
func (s *Store) SetRules(roomID ref.RoomID, rules string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.RoomRules[roomID] = rules
	s.flush()
}

// SetInterval creates or replaces a named interval message for a room.
func (s *Store) SetInterval(roomID ref.RoomID, name string, interval IntervalMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.IntervalMessages[roomID] == nil {
		s.data.IntervalMessages[roomID] = make(map[string]IntervalMessage)
	}
	s.data.IntervalMessages[roomID][name] = interval
	s.flush()
}

// RemoveInterval deletes a named interval message. Returns false when
// no such entry exists. The room's map is dropped when it empties.
func (s *Store) RemoveInterval(roomID ref.RoomID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	intervals, ok := s.data.IntervalMessages[roomID]
	if !ok {
		return false
	}
	if _, ok := intervals[name]; !ok {
		return false
	}
	delete(intervals, name)
	if len(intervals) == 0 {
		delete(s.data.IntervalMessages, roomID)
	}
	s.flush()
	return true
}

// Intervals returns a copy of the room's interval messages.
func (s *Store) Intervals(roomID ref.RoomID) map[string]IntervalMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	intervals := s.data.IntervalMessages[roomID]
	out := make(map[string]IntervalMessage, len(intervals))
	for name, interval := range intervals {
		out[name] = interval
	}
	return out
}

// RoomsWithIntervals returns every room that has at least one interval
// message.
func (s *Store) RoomsWithIntervals() []ref.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]ref.RoomID, 0, len(s.data.IntervalMessages))
	for roomID := range s.data.IntervalMessages {
		rooms = append(rooms, roomID)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].String() < rooms[j].String() })
	return rooms
}

// MarkIntervalSent advances a fired interval's lastSent to now. No-op
// when the entry has been removed since the caller read it.
func (s *Store) MarkIntervalSent(roomID ref.RoomID, name string, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intervals, ok := s.data.IntervalMessages[roomID]
	if !ok {
		return
	}
	interval, ok := intervals[name]
	if !ok {
		return
	}
	interval.LastSent = now
	intervals[name] = interval
	s.flush()
}

// Counts returns summary figures for the stats report.
func (s *Store) Counts() (muted, banned int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.MutedUsers), len(s.data.BannedUsers)
}
