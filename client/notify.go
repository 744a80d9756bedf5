// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package client

// Navigator is the navigation surface the core drives. The production
// implementation is supplied by the embedding application; the core
// only ever pops back to the room list after a confirmed leave or
// erase.
type Navigator interface {
	PopToRoot()
}

// Notifier surfaces user-visible notices. The core raises one for
// failed room operations; transient sync errors are logged, not
// surfaced.
type Notifier interface {
	Alert(message string)
}

const (
	lastOwnerNotice   = "You are the last owner. Set a new owner before leaving the room."
	leaveFailedNotice = "Could not leave the room. Try again."
	eraseFailedNotice = "Could not delete the room. Try again."
)

type nopNavigator struct{}

func (nopNavigator) PopToRoot() {}

type nopNotifier struct{}

func (nopNotifier) Alert(string) {}
