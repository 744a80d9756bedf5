// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"github.com/lagoon-chat/lagoon/remote"
	"github.com/lagoon-chat/lagoon/store"
)

// Room identifies a room the user can open.
type Room struct {
	ID   string
	Name string
	Type string
}

// Intent is an input to the sync core. The surrounding application
// constructs one of the concrete intent types below and hands it to
// [Core.Dispatch].
type Intent interface {
	kind() intentKind
}

// intentKind keys the latest-wins supersession slots: two intents of
// the same kind contend for one slot, intents of different kinds run
// independently.
type intentKind int

const (
	kindOpenRoom intentKind = iota
	kindCloseRoom
	kindLeaveRoom
	kindEraseRoom
	kindUserTyping
	kindMessageReceived
	kindBackgrounded
	kindLoginSuccess
	kindSettingsMerge
)

// OpenRoom makes a room the current room and starts its live feed.
// Latest-wins: opening a new room supersedes any still-running open.
type OpenRoom struct {
	Room Room
}

func (OpenRoom) kind() intentKind { return kindOpenRoom }

// CloseRoom signals that the current room's view was closed. The
// running room handler unwinds its feed and clears the current room.
type CloseRoom struct{}

func (CloseRoom) kind() intentKind { return kindCloseRoom }

// LeaveRoom removes the user's membership in a room. Local room data
// is deleted only after the server confirms.
type LeaveRoom struct {
	RoomID string
}

func (LeaveRoom) kind() intentKind { return kindLeaveRoom }

// EraseRoom deletes a room on the server. Local room data is deleted
// only after the server confirms.
type EraseRoom struct {
	RoomID string
}

func (EraseRoom) kind() intentKind { return kindEraseRoom }

// UserTyping announces the local user's typing state in the current
// room. Latest-wins: rapid keystrokes collapse to the newest state.
type UserTyping struct {
	Typing bool
}

func (UserTyping) kind() intentKind { return kindUserTyping }

// MessageReceived carries one message from a room's live feed. Every
// occurrence is handled; messages never supersede each other.
type MessageReceived struct {
	Message remote.Message
}

func (MessageReceived) kind() intentKind { return kindMessageReceived }

// Backgrounded signals that the application moved to the background.
// The core stamps the current room's last-open time and writes the
// saved session file.
type Backgrounded struct{}

func (Backgrounded) kind() intentKind { return kindBackgrounded }

// LoginSuccess signals that authentication completed. Handlers that
// were waiting for credentials (such as typing emission) proceed.
type LoginSuccess struct{}

func (LoginSuccess) kind() intentKind { return kindLoginSuccess }

// settingsMerged is the internal intent carrying a pulled settings
// batch into the serialized merge path. Latest-wins: a newer pull
// supersedes an unmerged older one.
type settingsMerged struct {
	settings []store.Setting
}

func (settingsMerged) kind() intentKind { return kindSettingsMerge }
