// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP gateway to the remote chat-session service.
//
// The gateway is a thin request/response and chunked-stream layer: it
// validates the service envelope at the wire boundary and converts records
// into domain types, but holds no session state of its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/jeranaias/mirrorchat/internal/model"
)

// Configuration constants for the chat service API.
const (
	// DefaultTimeout bounds non-streaming API requests.
	DefaultTimeout = 30 * time.Second

	// maxRetries is the attempt count for idempotent requests.
	maxRetries = 3

	// MaxResponseSize caps response bodies to keep a misbehaving server
	// from exhausting memory.
	MaxResponseSize = 10 * 1024 * 1024

	// requestsPerSecond is the client-side request rate ceiling.
	requestsPerSecond = 5
)

var (
	// Shared HTTP client with connection pooling for request/response calls.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for completion streams. No client
	// timeout: stream lifetime is controlled via context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the remote chat-session service.
type Client struct {
	baseURL string
	apiKey  string
	chatID  string

	limiter *rate.Limiter
	logger  *log.Logger
}

// NewClient creates a gateway for the given service endpoint. chatID selects
// the assistant/agent whose sessions are addressed.
func NewClient(baseURL, apiKey, chatID string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:  log.WithPrefix("api"),
	}
}

// IsConfigured reports whether the client has an endpoint and credential.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != "" && c.chatID != ""
}

// sessionsURL returns the sessions collection URL, optionally with a
// trailing session ID path element.
func (c *Client) sessionsURL(id string) string {
	u := c.baseURL + "/api/v1/chats/" + url.PathEscape(c.chatID) + "/sessions"
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

// setHeaders sets the required headers for service requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "mirrorchat/0.1.0")
}

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

// ListSessions fetches a page of sessions. Ordering and owner filtering are
// controlled by opts; zero-valued fields fall back to server defaults.
func (c *Client) ListSessions(ctx context.Context, opts ListOptions) ([]*model.Session, error) {
	const op = "list sessions"
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.OrderBy != "" {
		q.Set("orderby", opts.OrderBy)
		q.Set("desc", strconv.FormatBool(opts.Desc))
	}
	if opts.OwnerTag != "" {
		q.Set("user_id", opts.OwnerTag)
	}

	data, err := c.call(ctx, op, http.MethodGet, c.sessionsURL("")+"?"+q.Encode(), nil, true)
	if err != nil {
		return nil, err
	}

	var records []sessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &ServerError{Op: op, Message: "malformed session list: " + err.Error()}
	}

	sessions := make([]*model.Session, 0, len(records))
	for i := range records {
		if records[i].ID == "" {
			continue
		}
		sessions = append(sessions, records[i].toModel())
	}
	return sessions, nil
}

// CreateSession creates a named session and returns the server record.
func (c *Client) CreateSession(ctx context.Context, name string) (*model.Session, error) {
	const op = "create session"
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	data, err := c.call(ctx, op, http.MethodPost, c.sessionsURL(""), createRequest{Name: name}, false)
	if err != nil {
		return nil, err
	}

	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &ServerError{Op: op, Message: "malformed session record: " + err.Error()}
	}
	if record.ID == "" {
		return nil, &ServerError{Op: op, Message: "server returned session without id"}
	}
	return record.toModel(), nil
}

// UpdateSession applies a partial update (rename, owner tag) to a session.
func (c *Client) UpdateSession(ctx context.Context, id string, update SessionUpdate) error {
	const op = "update session"
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	_, err := c.call(ctx, op, http.MethodPut, c.sessionsURL(id), update, true)
	return err
}

// DeleteSession deletes a session by ID.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	const op = "delete session"
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	_, err := c.call(ctx, op, http.MethodDelete, c.sessionsURL(""), deleteRequest{IDs: []string{id}}, true)
	return err
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// Ask starts a streaming completion for the given session and question. On
// success it returns the raw response body for the stream ingester; the
// caller owns closing it. Completion requests are never retried.
func (c *Client) Ask(ctx context.Context, sessionID, question string) (io.ReadCloser, error) {
	const op = "ask"
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(askRequest{
		Question:  question,
		Stream:    true,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	u := c.baseURL + "/api/v1/chats/" + url.PathEscape(c.chatID) + "/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	start := time.Now()
	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	c.logger.Debug("stream opened", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return nil, c.statusError(op, resp.StatusCode, raw)
	}
	return resp.Body, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// call performs one envelope-wrapped request and returns the decoded data
// field. Idempotent calls are retried with exponential backoff on transient
// failures (connection errors, 429, 5xx).
func (c *Client) call(ctx context.Context, op, method, u string, payload any, idempotent bool) (json.RawMessage, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}

	attempts := 1
	if idempotent {
		attempts = maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 500ms, 1s.
			select {
			case <-ctx.Done():
				return nil, &TransportError{Op: op, Err: ctx.Err()}
			case <-time.After(time.Duration(1<<(attempt-1)) * 500 * time.Millisecond):
			}
		}

		data, retryable, err := c.doOnce(ctx, op, method, u, body)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.logger.Debug("retrying request", "op", op, "attempt", attempt+1, "err", err)
	}
	return nil, lastErr
}

// doOnce performs a single request attempt. The second result reports
// whether the failure is transient and worth retrying.
func (c *Client) doOnce(ctx context.Context, op, method, u string, body []byte) (json.RawMessage, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, false, &TransportError{Op: op, Err: err}
	}
	c.setHeaders(req)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, &TransportError{Op: op, Err: err}
	}

	start := time.Now()
	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, true, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("request", "method", method, "path", req.URL.Path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, true, &TransportError{Op: op, Err: err}
	}
	if len(raw) > MaxResponseSize {
		return nil, false, &TransportError{Op: op, Err: fmt.Errorf("response exceeded %d bytes", MaxResponseSize)}
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, c.statusError(op, resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, &ServerError{Op: op, Status: resp.StatusCode, Message: "malformed response envelope"}
	}
	if env.Code != 0 {
		return nil, false, &ServerError{Op: op, Code: env.Code, Message: env.Message}
	}
	return env.Data, false, nil
}

// statusError converts an HTTP error response into the error taxonomy,
// pulling the envelope message through when the body carries one.
func (c *Client) statusError(op string, status int, raw []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &ServerError{Op: op, Status: status, Message: ErrAuthFailed.Error()}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return &ServerError{Op: op, Status: status, Code: env.Code, Message: env.Message}
	}
	return &ServerError{Op: op, Status: status}
}
