// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// localIDPrefix marks message IDs generated client-side before the server
// has confirmed the message. Server-assigned IDs never carry this prefix.
const localIDPrefix = "local-"

// Message represents a single message in a session.
//
// For assistant messages, Content is a cumulative snapshot: each streaming
// update replaces the whole string rather than appending a delta.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message with a local ID.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:      NewLocalID(),
		Role:    RoleUser,
		Content: content,
	}
}

// NewAssistantPlaceholder creates an empty assistant message to receive a
// streamed reply. The ID stays local until the stream carries a server ID.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:   NewLocalID(),
		Role: RoleAssistant,
	}
}

// NewLocalID generates a client-side message ID.
func NewLocalID() string {
	return localIDPrefix + uuid.NewString()
}

// IsConfirmed reports whether the message carries a server-assigned ID.
func (m *Message) IsConfirmed() bool {
	return m.ID != "" && !strings.HasPrefix(m.ID, localIDPrefix)
}

// Preview returns a truncated single-line preview of the content.
func (m *Message) Preview(maxRunes int) string {
	line := strings.ReplaceAll(m.Content, "\n", " ")
	runes := []rune(strings.TrimSpace(line))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
