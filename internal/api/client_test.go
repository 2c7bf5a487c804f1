// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mirrorchat/internal/model"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, "test-key", "chat-1")
}

func TestListSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chats/chat-1/sessions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "update_time", r.URL.Query().Get("orderby"))
		assert.Equal(t, "true", r.URL.Query().Get("desc"))

		io.WriteString(w, `{"code":0,"data":[
			{"id":"s2","name":"Newer","user_id":"","update_time":1735700000000,
			 "messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello","id":"m1"},
			             {"role":"system","content":"dropped"}]},
			{"id":"s1","name":"Older","user_id":"favorite_user","update_time":1735600000000,"messages":[]}
		]}`)
	}))
	defer srv.Close()

	sessions, err := newTestClient(srv).ListSessions(context.Background(), ListOptions{
		Page: 1, PageSize: 30, OrderBy: "update_time", Desc: true,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "s2", sessions[0].ID)
	// Unknown roles are dropped at the boundary.
	assert.Len(t, sessions[0].Messages, 2)
	assert.Equal(t, model.RoleAssistant, sessions[0].Messages[1].Role)
	assert.True(t, sessions[1].IsFavorite())
	assert.True(t, sessions[0].UpdateTime.After(sessions[1].UpdateTime))
}

func TestListSessionsOwnerFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, model.FavoriteOwnerTag, r.URL.Query().Get("user_id"))
		io.WriteString(w, `{"code":0,"data":[]}`)
	}))
	defer srv.Close()

	sessions, err := newTestClient(srv).ListSessions(context.Background(), ListOptions{
		OwnerTag: model.FavoriteOwnerTag,
	})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body createRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "S1", body.Name)

		io.WriteString(w, `{"code":0,"data":{"id":"new-id","name":"S1","messages":[]}}`)
	}))
	defer srv.Close()

	s, err := newTestClient(srv).CreateSession(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, "new-id", s.ID)
	assert.Equal(t, "S1", s.Name)
}

func TestUpdateSessionOmitsUnsetFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/chats/chat-1/sessions/s1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"name": "Renamed"}, body)

		io.WriteString(w, `{"code":0}`)
	}))
	defer srv.Close()

	name := "Renamed"
	err := newTestClient(srv).UpdateSession(context.Background(), "s1", SessionUpdate{Name: &name})
	assert.NoError(t, err)
}

func TestDeleteSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var body deleteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"s1"}, body.IDs)

		io.WriteString(w, `{"code":0}`)
	}))
	defer srv.Close()

	assert.NoError(t, newTestClient(srv).DeleteSession(context.Background(), "s1"))
}

func TestEnvelopeCodeBecomesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"code":102,"message":"session does not exist"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListSessions(context.Background(), ListOptions{})

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, 102, serverErr.Code)
	assert.Contains(t, serverErr.Error(), "session does not exist")
}

func TestConnectionFailureBecomesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Refuse all connections.

	_, err := newTestClient(srv).ListSessions(context.Background(), ListOptions{})

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestClient(srv).DeleteSession(context.Background(), "s1")

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusUnauthorized, serverErr.Status)
	assert.Contains(t, serverErr.Error(), "authentication failed")
}

func TestAskReturnsRawStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body askRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)
		assert.Equal(t, "s1", body.SessionID)
		assert.Equal(t, "2+2?", body.Question)

		io.WriteString(w, "data:{\"code\":0,\"data\":{\"answer\":\"4\"}}\n")
		io.WriteString(w, "data:{\"code\":0,\"data\":true}\n")
	}))
	defer srv.Close()

	body, err := newTestClient(srv).Ask(context.Background(), "s1", "2+2?")
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"answer":"4"`)
}

func TestAskRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"code":500,"message":"upstream unavailable"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Ask(context.Background(), "s1", "hello")

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadGateway, serverErr.Status)
	assert.Contains(t, serverErr.Error(), "upstream unavailable")
}

func TestNotConfigured(t *testing.T) {
	c := NewClient("", "", "")

	_, err := c.ListSessions(context.Background(), ListOptions{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.Ask(context.Background(), "s1", "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
