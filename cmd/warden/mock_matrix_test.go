// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/warden/lib/clock"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
	"github.com/bureau-foundation/warden/moderation"
)

var (
	botUser   = ref.MustParseUserID("@warden:example.com")
	adminUser = ref.MustParseUserID("@root:example.com")
	alice     = ref.MustParseUserID("@alice:example.com")
	bob       = ref.MustParseUserID("@bob:example.com")
	room1     = ref.MustParseRoomID("!room1:example.com")
)

// mockHomeserver records every operation the bot issues. The ops slice
// keeps operation labels in arrival order so tests can assert ordering
// (mute before welcome, for example).
type mockHomeserver struct {
	mu           sync.Mutex
	levels       string
	members      []messaging.RoomMemberEvent
	displayNames map[string]string

	ops        []string
	writes     []messaging.PowerLevelsContent
	sends      []map[string]any
	redactions []string
	kicks      []map[string]any
	invites    []map[string]any
	joins      []string
	leaves     []string
	uploads    []string // content types
}

func (f *mockHomeserver) respond(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *mockHomeserver) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		path := r.URL.Path

		switch {
		case r.Method == http.MethodGet && strings.Contains(path, "/state/m.room.power_levels"):
			f.respond(w, f.levels)

		case r.Method == http.MethodPut && strings.Contains(path, "/state/m.room.power_levels"):
			var content messaging.PowerLevelsContent
			json.NewDecoder(r.Body).Decode(&content)
			f.ops = append(f.ops, "power_levels")
			f.writes = append(f.writes, content)
			f.respond(w, `{"event_id":"$pl"}`)

		case r.Method == http.MethodPut && strings.Contains(path, "/send/m.room.message/"):
			var content map[string]any
			json.NewDecoder(r.Body).Decode(&content)
			f.ops = append(f.ops, "send")
			f.sends = append(f.sends, content)
			f.respond(w, `{"event_id":"$sent"}`)

		case r.Method == http.MethodPut && strings.Contains(path, "/redact/"):
			segments := strings.Split(path, "/")
			// .../redact/{eventID}/{txn}
			f.ops = append(f.ops, "redact")
			f.redactions = append(f.redactions, segments[len(segments)-2])
			f.respond(w, `{"event_id":"$redaction"}`)

		case r.Method == http.MethodPost && strings.HasSuffix(path, "/kick"):
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			f.ops = append(f.ops, "kick")
			f.kicks = append(f.kicks, body)
			f.respond(w, `{}`)

		case r.Method == http.MethodPost && strings.HasSuffix(path, "/invite"):
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			f.ops = append(f.ops, "invite")
			f.invites = append(f.invites, body)
			f.respond(w, `{}`)

		case r.Method == http.MethodPost && strings.HasSuffix(path, "/leave"):
			segments := strings.Split(path, "/")
			f.ops = append(f.ops, "leave")
			f.leaves = append(f.leaves, segments[len(segments)-2])
			f.respond(w, `{}`)

		case r.Method == http.MethodPost && strings.Contains(path, "/v3/join/"):
			segments := strings.Split(path, "/")
			roomID := segments[len(segments)-1]
			f.ops = append(f.ops, "join")
			f.joins = append(f.joins, roomID)
			f.respond(w, `{"room_id":"`+roomID+`"}`)

		case r.Method == http.MethodGet && strings.HasSuffix(path, "/members"):
			body, _ := json.Marshal(messaging.RoomMembersResponse{Chunk: f.members})
			f.respond(w, string(body))

		case r.Method == http.MethodGet && path == "/_matrix/client/v3/joined_rooms":
			f.respond(w, `{"joined_rooms":["!room1:example.com"]}`)

		case r.Method == http.MethodGet && strings.HasSuffix(path, "/displayname"):
			segments := strings.Split(path, "/")
			name, ok := f.displayNames[segments[len(segments)-2]]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				f.respond(w, `{"errcode":"M_NOT_FOUND","error":"profile not found"}`)
				return
			}
			body, _ := json.Marshal(messaging.DisplayNameResponse{DisplayName: name})
			f.respond(w, string(body))

		case r.Method == http.MethodPost && strings.HasPrefix(path, "/_matrix/media/v3/upload"):
			f.uploads = append(f.uploads, r.Header.Get("Content-Type"))
			f.respond(w, `{"content_uri":"mxc://example.com/media1"}`)

		default:
			w.WriteHeader(http.StatusNotFound)
			f.respond(w, `{"errcode":"M_NOT_FOUND","error":"unexpected request"}`)
		}
	})
}

// joinedMember builds a /members chunk entry.
func joinedMember(userID ref.UserID, displayName string) messaging.RoomMemberEvent {
	return messaging.RoomMemberEvent{
		Type:     "m.room.member",
		StateKey: userID,
		Sender:   userID,
		Content: messaging.RoomMemberContent{
			Membership:  "join",
			DisplayName: displayName,
		},
	}
}

func newTestBot(t *testing.T, levels string) (*Bot, *mockHomeserver) {
	t.Helper()
	homeserver := &mockHomeserver{
		levels:       levels,
		displayNames: map[string]string{},
		members: []messaging.RoomMemberEvent{
			joinedMember(botUser, "Warden"),
			joinedMember(adminUser, "Root"),
			joinedMember(alice, "Alice"),
			joinedMember(bob, "Bob"),
		},
	}
	server := httptest.NewServer(homeserver.handler())
	t.Cleanup(server.Close)

	client, err := messaging.NewClient(messaging.ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	session, err := client.SessionFromToken(botUser, "test-token")
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}

	store, err := moderation.OpenStore(filepath.Join(t.TempDir(), "state.json"), nil)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}

	clk := clock.NewFake(time.UnixMilli(1700000000000))
	matcher := moderation.NewAdminMatcher([]string{adminUser.String()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Bot{
		session: session,
		store:   store,
		engine:  moderation.NewEngine(session, store, clk, logger),
		matcher: matcher,
		policy: &moderation.Policy{
			Matcher:     matcher,
			Store:       store,
			DefaultRole: "unverified",
		},
		templates:    defaultTemplates(),
		defaultRole:  "unverified",
		verifiedRole: "verified",
		contacts:     []string{"@root:example.com"},
		ignoredRooms: map[ref.RoomID]bool{},
		httpClient:   server.Client(),
		clock:        clk,
		logger:       logger,
		startedAt:    clk.Now(),
	}, homeserver
}

// joinEvent builds an m.room.member join timeline event.
func joinEvent(target ref.UserID) *messaging.Event {
	stateKey := target.String()
	return &messaging.Event{
		EventID:  ref.MustParseEventID("$join-" + target.Localpart()),
		Type:     ref.EventTypeMember,
		Sender:   target,
		StateKey: &stateKey,
		Content:  map[string]any{"membership": "join"},
	}
}

// profileUpdateEvent builds a join→join m.room.member event, the shape
// the server emits for displayname or avatar changes.
func profileUpdateEvent(target ref.UserID, displayName string) *messaging.Event {
	event := joinEvent(target)
	event.Content["displayname"] = displayName
	event.Unsigned = &messaging.EventUnsigned{
		PrevContent: map[string]any{"membership": "join"},
	}
	return event
}

// messageEvent builds an m.room.message timeline event.
func messageEvent(sender ref.UserID, body string) *messaging.Event {
	return &messaging.Event{
		EventID: ref.MustParseEventID("$msg-" + sender.Localpart()),
		Type:    ref.EventTypeMessage,
		Sender:  sender,
		Content: map[string]any{"msgtype": "m.text", "body": body},
	}
}

// newImageServer serves a small PNG-typed payload for !sendimage tests
// and returns its base URL.
func newImageServer(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\nfakepixels"))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// sentBodies extracts the plain bodies of every message the bot sent.
func (f *mockHomeserver) sentBodies() []string {
	bodies := make([]string, 0, len(f.sends))
	for _, send := range f.sends {
		body, _ := send["body"].(string)
		bodies = append(bodies, body)
	}
	return bodies
}
