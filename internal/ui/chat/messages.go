// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea messages that carry engine events into
// the update loop. The UI holds no session state of its own; every message
// is a cue to re-read store snapshots.
package chat

// storeChangedMsg signals a store notification: re-render from snapshots.
type storeChangedMsg struct{}

// sessionsLoadedMsg reports a completed session list refresh.
type sessionsLoadedMsg struct {
	err error
}

// favoritesLoadedMsg reports a completed favorites refresh.
type favoritesLoadedMsg struct {
	err error
}

// sessionCreatedMsg reports a completed session creation.
type sessionCreatedMsg struct {
	err error
}

// sessionMutatedMsg reports a completed rename, delete, or favorite toggle.
type sessionMutatedMsg struct {
	err error
}

// sendFinishedMsg reports that a blocking send (including its stream) ended.
type sendFinishedMsg struct {
	err error
}
