// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import "time"

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID    string `json:"userId"`
	AuthToken string `json:"authToken"`
}

// SettingRecord is one public setting as the server sends it. Value is
// untyped because the server mixes strings, booleans, and numbers; the
// settings sync engine filters by Type and renders values to strings
// at the merge boundary.
type SettingRecord struct {
	ID        string    `json:"_id"`
	Value     any       `json:"value"`
	Type      string    `json:"type"`
	UpdatedAt time.Time `json:"_updatedAt"`
}

// Message is a timeline message in a room.
type Message struct {
	ID        string    `json:"_id"`
	RoomID    string    `json:"rid"`
	Sender    string    `json:"sender"`
	Body      string    `json:"msg"`
	Timestamp time.Time `json:"ts"`
}

// TypingSignal is an ephemeral typing notification for a room.
type TypingSignal struct {
	RoomID   string `json:"rid"`
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

// RoomEvent is one entry in a room events long-poll response. Exactly
// one of Message and Typing is set, matching Type.
type RoomEvent struct {
	Type    string        `json:"type"` // "message" or "typing"
	Message *Message      `json:"message,omitempty"`
	Typing  *TypingSignal `json:"typing,omitempty"`
}

// Room event types.
const (
	EventTypeMessage = "message"
	EventTypeTyping  = "typing"
)

// roomEventsResponse is the room events endpoint's envelope.
type roomEventsResponse struct {
	Events    []RoomEvent `json:"events"`
	NextBatch string      `json:"nextBatch"`
}

// SpotlightOptions selects which directories a spotlight search hits.
type SpotlightOptions struct {
	Users bool
	Rooms bool
}

// SpotlightResult holds spotlight search matches.
type SpotlightResult struct {
	Users []SpotlightUser `json:"users"`
	Rooms []SpotlightRoom `json:"rooms"`
}

// SpotlightUser is a user directory match.
type SpotlightUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// SpotlightRoom is a room directory match.
type SpotlightRoom struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
