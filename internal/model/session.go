// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"time"
)

// FavoriteOwnerTag is the reserved owner tag marking a session as favorited.
// Tag equality is the single source of favorite truth; no other component
// keeps independent favorite state.
const FavoriteOwnerTag = "favorite_user"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one remote conversation thread mirrored locally.
//
// ID is server-assigned and immutable once created. Messages are append-only
// while a send is in flight; a successful send initiation grows the slice by
// exactly two entries (user message plus assistant placeholder).
type Session struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Messages   []*Message `json:"messages"`
	OwnerTag   string     `json:"user_id,omitempty"`
	UpdateTime time.Time  `json:"update_time"`
}

// IsFavorite reports whether the session carries the favorite owner tag.
func (s *Session) IsFavorite() bool {
	return s.OwnerTag == FavoriteOwnerTag
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// LastMessage returns the most recent message, or nil if empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// FindMessage returns the message with the given ID, or nil.
func (s *Session) FindMessage(id string) *Message {
	for _, msg := range s.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// AppendExchange appends a user message and an empty assistant placeholder
// for the streamed reply. This is the only operation that grows Messages
// during a send.
func (s *Session) AppendExchange(text string) (*Message, *Message) {
	user := NewUserMessage(text)
	assistant := NewAssistantPlaceholder()
	s.Messages = append(s.Messages, user, assistant)
	s.UpdateTime = time.Now()
	return user, assistant
}

// SetLastAnswer replaces the content of the last message with a cumulative
// streamed snapshot. A non-empty messageID adopts the server-assigned ID for
// the placeholder. An empty snapshot only adopts the ID: content already
// received is never wiped. No-op when the last message is not an assistant
// message.
func (s *Session) SetLastAnswer(content, messageID string) {
	last := s.LastMessage()
	if last == nil || last.Role != RoleAssistant {
		return
	}
	if content != "" {
		last.Content = content
	}
	if messageID != "" {
		last.ID = messageID
	}
	s.UpdateTime = time.Now()
}

// Preview returns a short preview of the most recent message for listings.
func (s *Session) Preview(maxRunes int) string {
	last := s.LastMessage()
	if last == nil {
		return ""
	}
	return last.Preview(maxRunes)
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:         s.ID,
		Name:       s.Name,
		OwnerTag:   s.OwnerTag,
		UpdateTime: s.UpdateTime,
		Messages:   make([]*Message, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}
