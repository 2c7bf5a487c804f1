// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The view is a pure consumer of the engine: it reads session snapshots from
// the store, send state from the controller, and forwards user intents back
// as engine calls wrapped in commands.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/mirrorchat/internal/conversation"
	"github.com/jeranaias/mirrorchat/internal/store"
	"github.com/jeranaias/mirrorchat/internal/ui/styles"
)

// inputMode selects what the text input is currently editing.
type inputMode int

const (
	modeChat       inputMode = iota // Composing a chat message
	modeNewSession                  // Naming a new session
	modeRename                      // Renaming the selected session
)

// sidebarWidth is the fixed width of the session list column.
const (
	sidebarWidth        = 28
	sidebarWidthCompact = 20
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	store      *store.Store
	controller *conversation.Controller
	theme      *styles.Theme
	compact    bool

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	keyMap   KeyMap
	renderer *glamour.TermRenderer

	// Dimensions
	width  int
	height int
	ready  bool

	// Sidebar state
	showFavorites bool
	cursor        int

	// Input state
	mode     inputMode
	renameID string

	// Last failed list/mutation operation, shown in the status line.
	opErr error

	// changes carries store notifications into the update loop.
	changes chan struct{}
}

// New creates the chat view over an engine.
func New(st *store.Store, ctrl *conversation.Controller, theme *styles.Theme, compact bool) Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	changes := make(chan struct{}, 1)
	st.Subscribe(func() {
		// Coalescing push: a full channel already means a pending redraw.
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	return Model{
		store:      st,
		controller: ctrl,
		theme:      theme,
		compact:    compact,
		input:      input,
		spin:       spin,
		keyMap:     DefaultKeyMap(),
		changes:    changes,
	}
}

// Init starts the initial list loads and the notification pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		m.loadSessionsCmd(),
		m.loadFavoritesCmd(),
		m.waitForChange(),
	)
}

// sidebarSize returns the configured sidebar width.
func (m Model) sidebarSize() int {
	if m.compact {
		return sidebarWidthCompact
	}
	return sidebarWidth
}

// visibleSessions returns the sessions for the current sidebar view.
func (m Model) visibleSessions() []*sessionEntry {
	var entries []*sessionEntry
	if m.showFavorites {
		for _, s := range m.store.Favorites().List() {
			entries = append(entries, &sessionEntry{session: s})
		}
	} else {
		for _, s := range m.store.Sessions() {
			entries = append(entries, &sessionEntry{session: s})
		}
	}
	active := m.store.Active()
	for _, e := range entries {
		e.active = active != nil && e.session.ID == active.ID
	}
	return entries
}

// clampCursor keeps the sidebar cursor inside the visible list.
func (m *Model) clampCursor() {
	n := len(m.visibleSessions())
	if n == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
