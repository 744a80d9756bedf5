// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"sort"
	"sync"

	"github.com/lagoon-chat/lagoon/store"
)

// State is the in-memory session state the application surface reads:
// merged settings, the current room, its draft, who is typing, and
// whether the session is authenticated. All ephemeral facts live here
// and only server-confirmed facts reach the store.
//
// State is safe for concurrent use. Accessors return snapshots; the
// internal maps are never exposed.
type State struct {
	mu            sync.Mutex
	settings      map[string]string
	typing        map[string]map[string]struct{}
	currentRoom   *Room
	draft         string
	loading       bool
	authenticated bool
	authReady     chan struct{}
}

func newState() *State {
	return &State{
		settings:  make(map[string]string),
		typing:    make(map[string]map[string]struct{}),
		authReady: make(chan struct{}),
	}
}

// Setting returns the merged value for a setting key.
func (s *State) Setting(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.settings[key]
	return value, ok
}

// Settings returns a snapshot of all merged settings.
func (s *State) Settings() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]string, len(s.settings))
	for key, value := range s.settings {
		snapshot[key] = value
	}
	return snapshot
}

func (s *State) mergeSettings(settings []store.Setting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, setting := range settings {
		s.settings[setting.Key] = setting.Value
	}
}

// CurrentRoom returns the open room, if any.
func (s *State) CurrentRoom() (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentRoom == nil {
		return Room{}, false
	}
	return *s.currentRoom, true
}

func (s *State) setCurrentRoom(room Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRoom = &room
}

func (s *State) clearCurrentRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRoom = nil
}

// Loading reports whether a room open is still settling (feed not yet
// live). The surface shows a spinner while true.
func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *State) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// Draft returns the unsent message text for the current room.
func (s *State) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft stores unsent message text for the current room. The draft
// is discarded when the room closes.
func (s *State) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

func (s *State) clearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = ""
}

// TypingUsers returns the usernames currently typing in a room, in
// sorted order for stable rendering.
func (s *State) TypingUsers(roomID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]string, 0, len(s.typing[roomID]))
	for username := range s.typing[roomID] {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

func (s *State) addTypingUser(roomID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.typing[roomID] == nil {
		s.typing[roomID] = make(map[string]struct{})
	}
	s.typing[roomID][username] = struct{}{}
}

func (s *State) removeTypingUser(roomID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.typing[roomID], username)
	if len(s.typing[roomID]) == 0 {
		delete(s.typing, roomID)
	}
}

func (s *State) clearTyping(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.typing, roomID)
}

// Authenticated reports whether login has completed.
func (s *State) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *State) setAuthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		s.authenticated = true
		close(s.authReady)
	}
}

// authDone returns a channel closed once login completes. Handlers
// that need credentials select on it alongside their context.
func (s *State) authDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authReady
}
