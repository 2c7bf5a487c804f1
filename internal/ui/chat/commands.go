// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// waitForChange blocks on the store notification channel and wakes the
// update loop. Re-issued after every receive so notifications keep flowing.
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return storeChangedMsg{}
	}
}

// loadSessionsCmd refreshes the main session list.
func (m Model) loadSessionsCmd() tea.Cmd {
	return func() tea.Msg {
		return sessionsLoadedMsg{err: m.store.LoadAll(context.Background())}
	}
}

// loadFavoritesCmd refreshes the favorites view.
func (m Model) loadFavoritesCmd() tea.Cmd {
	return func() tea.Msg {
		return favoritesLoadedMsg{err: m.store.Favorites().Refresh(context.Background())}
	}
}

// createSessionCmd creates a named session server-side.
func (m Model) createSessionCmd(name string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.store.Create(context.Background(), name)
		return sessionCreatedMsg{err: err}
	}
}

// renameSessionCmd renames a session, confirm-then-apply.
func (m Model) renameSessionCmd(id, name string) tea.Cmd {
	return func() tea.Msg {
		return sessionMutatedMsg{err: m.store.Rename(context.Background(), id, name)}
	}
}

// deleteSessionCmd deletes a session after server confirmation.
func (m Model) deleteSessionCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return sessionMutatedMsg{err: m.store.Delete(context.Background(), id)}
	}
}

// toggleFavoriteCmd inverts a session's favorite status and refreshes both
// list views.
func (m Model) toggleFavoriteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return sessionMutatedMsg{err: m.store.Favorites().Toggle(context.Background(), id)}
	}
}

// sendCmd runs the blocking send in the command goroutine. Per-frame
// updates arrive through the store notification channel while this runs.
func (m Model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return sendFinishedMsg{err: m.controller.Send(context.Background(), text)}
	}
}
