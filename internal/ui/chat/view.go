// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/mirrorchat/internal/conversation"
	"github.com/jeranaias/mirrorchat/internal/model"
)

// sessionEntry pairs a session snapshot with its display state.
type sessionEntry struct {
	session *model.Session
	active  bool
}

// View renders the full chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	sidebar := m.renderSidebar()
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatus(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.theme.Sidebar.Render(sidebar), content)
}

// renderSidebar renders the session list column.
func (m Model) renderSidebar() string {
	width := m.sidebarSize() - 2

	title := "Sessions"
	if m.showFavorites {
		title = "Favorites"
	}

	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render(title))
	b.WriteString("\n")

	entries := m.visibleSessions()
	if len(entries) == 0 {
		b.WriteString(m.theme.SessionItem.Render("(none)"))
	}
	for i, e := range entries {
		name := runewidth.Truncate(e.session.Name, width-4, "...")

		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		line := marker + name
		if e.session.IsFavorite() {
			line += " " + m.theme.FavoriteMark.Render("*")
		}

		style := m.theme.SessionItem
		switch {
		case i == m.cursor:
			style = m.theme.SessionSelected
		case e.active:
			style = m.theme.SessionActive
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.HelpText.Render("C-t new  C-r rename\nC-x del  C-s star\nTab favorites  C-c quit"))

	// Pad to full height so the border runs the whole column.
	lines := strings.Split(b.String(), "\n")
	for len(lines) < m.height-1 {
		lines = append(lines, "")
	}
	return strings.Join(lines[:m.height-1], "\n")
}

// renderHeader renders the active session title bar.
func (m Model) renderHeader() string {
	title := "No session selected"
	if active := m.store.Active(); active != nil {
		title = active.Name
	}
	return m.theme.Header.Width(m.viewport.Width).Render(title)
}

// renderInput renders the input row.
func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.viewport.Width).Render(m.input.View())
}

// renderStatus renders the status line: send state or last error.
func (m Model) renderStatus() string {
	if err := m.statusError(); err != nil {
		return m.theme.ErrorText.Render("error: " + err.Error() + "  (Esc to dismiss)")
	}

	switch m.controller.State() {
	case conversation.StateSending:
		return m.theme.StatusSending.Render(m.spin.View() + " sending...")
	case conversation.StateStreamOpen:
		return m.theme.StatusSending.Render(m.spin.View() + " receiving...")
	default:
		mode := "message"
		if m.mode == modeNewSession {
			mode = "new session name"
		} else if m.mode == modeRename {
			mode = "rename session"
		}
		return m.theme.StatusBar.Render("ready - " + mode)
	}
}

// statusError returns the error to surface, preferring send failures.
func (m Model) statusError() error {
	if err := m.controller.LastError(); err != nil {
		return err
	}
	return m.opErr
}

// refreshTranscript rebuilds the viewport content from the active session.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}

	active := m.store.Active()
	if active == nil {
		m.viewport.SetContent(m.theme.HelpText.Render("Select a session with C-p/C-n, or create one with C-t."))
		return
	}

	wasAtBottom := m.viewport.AtBottom()

	var b strings.Builder
	for _, msg := range active.Messages {
		switch msg.Role {
		case model.RoleUser:
			b.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
			b.WriteString("\n")
			b.WriteString(m.theme.UserBubble.Render(msg.Content))
		case model.RoleAssistant:
			b.WriteString(m.theme.AssistantLabel.Render(msg.Role.DisplayName()))
			b.WriteString("\n")
			b.WriteString(m.theme.AssistantBubble.Render(m.renderMarkdown(msg.Content)))
		}
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())

	// Follow the stream unless the user scrolled away.
	if wasAtBottom || m.controller.IsSending() {
		m.viewport.GotoBottom()
	}
}

// renderMarkdown renders assistant markdown, falling back to raw text.
func (m Model) renderMarkdown(content string) string {
	if content == "" {
		return m.theme.HelpText.Render("...")
	}
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
