// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// Update handles incoming messages and drives the engine.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.resize(msg.Width, msg.Height)
		m.refreshTranscript()

	case tea.KeyMsg:
		model, cmd, handled := m.handleKey(msg)
		if handled {
			return model, cmd
		}
		m = model

	case storeChangedMsg:
		m.clampCursor()
		m.refreshTranscript()
		cmds = append(cmds, m.waitForChange())

	case sessionsLoadedMsg:
		m.opErr = msg.err
		m.clampCursor()
		m.refreshTranscript()

	case favoritesLoadedMsg:
		m.opErr = msg.err
		m.clampCursor()

	case sessionCreatedMsg:
		m.opErr = msg.err
		m.clampCursor()
		m.refreshTranscript()

	case sessionMutatedMsg:
		m.opErr = msg.err
		m.clampCursor()
		m.refreshTranscript()

	case sendFinishedMsg:
		// Errors surface through the controller's LastError; the final
		// transcript state arrived via store notifications already.
		m.refreshTranscript()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// resize recomputes component dimensions and the markdown renderer.
func (m Model) resize(width, height int) Model {
	m.width = width
	m.height = height

	contentWidth := width - m.sidebarSize() - 3
	if contentWidth < 20 {
		contentWidth = 20
	}
	// Header, input, and status rows surround the transcript.
	contentHeight := height - 5
	if contentHeight < 3 {
		contentHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = contentHeight
	}
	m.input.Width = contentWidth - 4

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(contentWidth-2),
	)
	if err == nil {
		m.renderer = renderer
	}
	return m
}

// handleKey processes one key press. The third result reports whether the
// key was consumed; unconsumed keys fall through to the input component.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit, true
	}

	// Naming modes reuse the input for the session name.
	if m.mode != modeChat {
		switch {
		case key.Matches(msg, m.keyMap.Submit):
			name := strings.TrimSpace(m.input.Value())
			mode := m.mode
			renameID := m.renameID
			m = m.exitNamingMode()
			if name == "" {
				return m, nil, true
			}
			if mode == modeNewSession {
				return m, m.createSessionCmd(name), true
			}
			return m, m.renameSessionCmd(renameID, name), true

		case key.Matches(msg, m.keyMap.Cancel):
			return m.exitNamingMode(), nil, true
		}
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		text := m.input.Value()
		if strings.TrimSpace(text) == "" || m.controller.IsSending() || m.store.Active() == nil {
			return m, nil, true
		}
		m.input.Reset()
		return m, m.sendCmd(text), true

	case key.Matches(msg, m.keyMap.PrevSession):
		return m.moveCursor(-1), nil, true

	case key.Matches(msg, m.keyMap.NextSession):
		return m.moveCursor(1), nil, true

	case key.Matches(msg, m.keyMap.ToggleView):
		m.showFavorites = !m.showFavorites
		m.cursor = 0
		return m, nil, true

	case key.Matches(msg, m.keyMap.NewSession):
		m.mode = modeNewSession
		m.input.Reset()
		m.input.Placeholder = "New session name..."
		return m, nil, true

	case key.Matches(msg, m.keyMap.Rename):
		active := m.store.Active()
		if active == nil {
			return m, nil, true
		}
		m.mode = modeRename
		m.renameID = active.ID
		m.input.SetValue(active.Name)
		m.input.CursorEnd()
		return m, nil, true

	case key.Matches(msg, m.keyMap.Delete):
		active := m.store.Active()
		if active == nil {
			return m, nil, true
		}
		return m, m.deleteSessionCmd(active.ID), true

	case key.Matches(msg, m.keyMap.Favorite):
		active := m.store.Active()
		if active == nil {
			return m, nil, true
		}
		return m, m.toggleFavoriteCmd(active.ID), true

	case key.Matches(msg, m.keyMap.Refresh):
		return m, tea.Batch(m.loadSessionsCmd(), m.loadFavoritesCmd()), true

	case key.Matches(msg, m.keyMap.Cancel):
		m.opErr = nil
		m.controller.ClearError()
		return m, nil, true
	}

	return m, nil, false
}

// moveCursor shifts the sidebar selection and switches the active session.
func (m Model) moveCursor(delta int) Model {
	entries := m.visibleSessions()
	if len(entries) == 0 {
		return m
	}
	m.cursor += delta
	m.clampCursor()
	m.controller.Switch(entries[m.cursor].session.ID)
	m.refreshTranscript()
	return m
}

// exitNamingMode restores the chat input.
func (m Model) exitNamingMode() Model {
	m.mode = modeChat
	m.renameID = ""
	m.input.Reset()
	m.input.Placeholder = "Type a message..."
	return m
}
