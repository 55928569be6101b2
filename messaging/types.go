// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/bureau-foundation/warden/lib/ref"
)

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id,omitempty"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// MessageContent is the content body of a Matrix message event
// (m.room.message). For formatted replies, Format is
// "org.matrix.custom.html" and FormattedBody carries the rendered HTML
// while Body holds the plain-text fallback.
type MessageContent struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewHTMLMessage creates a message with an HTML rendering alongside the
// plain-text fallback.
func NewHTMLMessage(body, html string) MessageContent {
	return MessageContent{
		MsgType:       "m.text",
		Body:          body,
		Format:        "org.matrix.custom.html",
		FormattedBody: html,
	}
}

// ImageMessageContent is the content body of an m.image message. URL is
// the MXC URI returned by UploadMedia.
type ImageMessageContent struct {
	MsgType string     `json:"msgtype"`
	Body    string     `json:"body"`
	URL     string     `json:"url"`
	Info    *ImageInfo `json:"info,omitempty"`
}

// ImageInfo describes an uploaded image.
type ImageInfo struct {
	MimeType string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Width    int    `json:"w,omitempty"`
	Height   int    `json:"h,omitempty"`
}

// PowerLevelsContent is the content of an m.room.power_levels state
// event. Pointer fields distinguish "absent from the event" from an
// explicit zero; use the accessor methods for resolved values.
type PowerLevelsContent struct {
	Users        map[string]int `json:"users,omitempty"`
	UsersDefault *int           `json:"users_default,omitempty"`
	Events       map[string]int `json:"events,omitempty"`
	StateDefault *int           `json:"state_default,omitempty"`
	Ban          *int           `json:"ban,omitempty"`
	Kick         *int           `json:"kick,omitempty"`
	Redact       *int           `json:"redact,omitempty"`
}

// UserLevel returns the effective power level for a user: the explicit
// entry when present, otherwise users_default.
func (p *PowerLevelsContent) UserLevel(userID ref.UserID) int {
	if level, ok := p.Users[userID.String()]; ok {
		return level
	}
	return p.UsersDefaultValue()
}

// UsersDefaultValue returns users_default, or 0 when absent.
func (p *PowerLevelsContent) UsersDefaultValue() int {
	if p.UsersDefault != nil {
		return *p.UsersDefault
	}
	return 0
}

// StateDefaultValue returns state_default, or 0 when absent.
func (p *PowerLevelsContent) StateDefaultValue() int {
	if p.StateDefault != nil {
		return *p.StateDefault
	}
	return 0
}

// EventLevel returns the level required to send the given event type:
// the explicit events entry when present, otherwise state_default.
func (p *PowerLevelsContent) EventLevel(eventType ref.EventType) int {
	if level, ok := p.Events[string(eventType)]; ok {
		return level
	}
	return p.StateDefaultValue()
}

// KickLevel returns the level required to kick, or 50 when absent.
func (p *PowerLevelsContent) KickLevel() int {
	if p.Kick != nil {
		return *p.Kick
	}
	return 50
}

// Clone returns a deep copy with every absent field materialized to its
// default (users_default and state_default 0; ban, kick, redact 50).
// A power_levels state write replaces the whole object, so writers must
// always send a fully populated copy rather than a sparse patch.
func (p *PowerLevelsContent) Clone() *PowerLevelsContent {
	users := make(map[string]int, len(p.Users))
	for userID, level := range p.Users {
		users[userID] = level
	}
	events := make(map[string]int, len(p.Events))
	for eventType, level := range p.Events {
		events[eventType] = level
	}
	usersDefault := p.UsersDefaultValue()
	stateDefault := p.StateDefaultValue()
	ban := 50
	if p.Ban != nil {
		ban = *p.Ban
	}
	kick := p.KickLevel()
	redact := 50
	if p.Redact != nil {
		redact = *p.Redact
	}
	return &PowerLevelsContent{
		Users:        users,
		UsersDefault: &usersDefault,
		Events:       events,
		StateDefault: &stateDefault,
		Ban:          &ban,
		Kick:         &kick,
		Redact:       &redact,
	}
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id,omitempty"`
	StateKey       *string        `json:"state_key,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`
}

// EventUnsigned holds optional unsigned data attached to events.
type EventUnsigned struct {
	Age           int64          `json:"age,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	PrevContent   map[string]any `json:"prev_content,omitempty"`
}

// MessageBody extracts the body string from a message event's content.
// Returns empty for non-message content (e.g., redacted events).
func (e *Event) MessageBody() string {
	body, _ := e.Content["body"].(string)
	return body
}

// Membership extracts the membership string from a member event's
// content ("invite", "join", "leave", "ban").
func (e *Event) Membership() string {
	membership, _ := e.Content["membership"].(string)
	return membership
}

// PrevMembership extracts the membership string from a member event's
// prev_content. Empty when the event has no prior state, so a join
// event with PrevMembership "join" is a profile update, not a join
// transition.
func (e *Event) PrevMembership() string {
	if e.Unsigned == nil {
		return ""
	}
	membership, _ := e.Unsigned.PrevContent["membership"].(string)
	return membership
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds; 0 for immediate return
	SetTimeout bool   // if true, send the timeout parameter (needed to distinguish "not set" from "0")
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains per-room sync data grouped by membership state.
// Map keys are room IDs; encoding/json uses ref.RoomID's TextUnmarshaler
// for automatic validation at deserialization.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
	Leave  map[ref.RoomID]LeftRoom    `json:"leave,omitempty"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// InvitedRoom contains sync data for a room the user was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom contains sync data for a room the user has left.
type LeftRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// InviteRequest holds the user ID to invite to a room.
type InviteRequest struct {
	UserID ref.UserID `json:"user_id"`
}

// KickRequest is the request body for kicking a user from a room.
type KickRequest struct {
	UserID ref.UserID `json:"user_id"`
	Reason string     `json:"reason,omitempty"`
}

// SendEventResponse is returned by SendMessage, SendEvent, RedactEvent,
// and SendStateEvent.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// UploadResponse is returned by UploadMedia.
type UploadResponse struct {
	ContentURI string `json:"content_uri"`
}

// JoinedRoomsResponse is returned by JoinedRooms.
type JoinedRoomsResponse struct {
	JoinedRooms []ref.RoomID `json:"joined_rooms"`
}

// RoomMember represents a member of a Matrix room.
type RoomMember struct {
	UserID      ref.UserID `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Membership  string     `json:"membership"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
}

// RoomMembersResponse is returned by the /members endpoint.
type RoomMembersResponse struct {
	Chunk []RoomMemberEvent `json:"chunk"`
}

// RoomMemberEvent is a member state event from the /members endpoint.
type RoomMemberEvent struct {
	Type     string            `json:"type"`
	StateKey ref.UserID        `json:"state_key"`
	Sender   ref.UserID        `json:"sender"`
	Content  RoomMemberContent `json:"content"`
}

// RoomMemberContent is the content of a m.room.member state event.
type RoomMemberContent struct {
	Membership  string `json:"membership"`
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// DisplayNameResponse is the body of the /profile/{userId}/displayname
// endpoint, used for both reads and writes.
type DisplayNameResponse struct {
	DisplayName string `json:"displayname"`
}

// ServerVersionsResponse is returned by Client.ServerVersions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}
