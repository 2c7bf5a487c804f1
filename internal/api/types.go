// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/mirrorchat/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// envelope is the response wrapper used by every service endpoint.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// sessionRecord is the wire shape of a session in list and create responses.
type sessionRecord struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Messages   []messageRecord `json:"messages"`
	UserID     string          `json:"user_id"`
	UpdateTime int64           `json:"update_time"` // epoch milliseconds
}

// messageRecord is the wire shape of a message inside a session record.
type messageRecord struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// toModel converts a wire record into the validated domain type. Messages
// with unknown roles are dropped at this boundary rather than propagated.
func (r *sessionRecord) toModel() *model.Session {
	s := &model.Session{
		ID:         r.ID,
		Name:       r.Name,
		OwnerTag:   r.UserID,
		UpdateTime: time.UnixMilli(r.UpdateTime),
		Messages:   make([]*model.Message, 0, len(r.Messages)),
	}
	for _, m := range r.Messages {
		role := model.Role(m.Role)
		if !role.Valid() {
			continue
		}
		s.Messages = append(s.Messages, &model.Message{
			ID:      m.ID,
			Role:    role,
			Content: m.Content,
		})
	}
	return s
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ListOptions controls the session list query.
type ListOptions struct {
	Page     int
	PageSize int
	OrderBy  string
	Desc     bool

	// OwnerTag filters by owner tag; used for the favorites query.
	OwnerTag string
}

// SessionUpdate carries the mutable session fields for an update request.
// Nil fields are omitted and left unchanged on the server.
type SessionUpdate struct {
	Name     *string `json:"name,omitempty"`
	OwnerTag *string `json:"user_id,omitempty"`
}

// createRequest is the body of a session creation request.
type createRequest struct {
	Name string `json:"name"`
}

// deleteRequest is the body of a session deletion request.
type deleteRequest struct {
	IDs []string `json:"ids"`
}

// askRequest is the body of a streaming completion request.
type askRequest struct {
	Question  string `json:"question"`
	Stream    bool   `json:"stream"`
	SessionID string `json:"session_id"`
}
