// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation drives the active conversation: optimistic sends,
// stream ingestion into the placeholder message, and the send state machine.
package conversation

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/mirrorchat/internal/api"
	"github.com/jeranaias/mirrorchat/internal/store"
	"github.com/jeranaias/mirrorchat/internal/stream"
)

// =============================================================================
// SEND STATE
// =============================================================================

// State is the send state of the active conversation.
type State int

const (
	StateIdle       State = iota // No send in flight
	StateSending                 // Request issued, stream not yet open
	StateStreamOpen              // Frames arriving
	StateError                   // Last send failed; cleared on the next send
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreamOpen:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the currently open conversation. Sends are serialized
// process-wide by the guard, so two concurrent sends can never mutate the
// same placeholder message.
//
// All message-list mutations go through the store, which shares one logical
// record between the active view and the session list.
type Controller struct {
	mu sync.Mutex

	store  *store.Store
	api    *api.Client
	guard  sendGuard
	logger *log.Logger

	state   State
	lastErr error
}

// NewController creates a controller over the given store and gateway.
func NewController(st *store.Store, client *api.Client) *Controller {
	return &Controller{
		store:  st,
		api:    client,
		logger: log.WithPrefix("conversation"),
	}
}

// Switch makes the session with the given ID active. Already-active and
// unknown IDs are silent no-ops; an open stream keeps applying frames to its
// own session in the background.
func (c *Controller) Switch(sessionID string) {
	c.store.SetActive(sessionID)
}

// State returns the current send state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsSending reports whether a send is in flight.
func (c *Controller) IsSending() bool {
	return c.guard.Held()
}

// LastError returns the error of the most recent failed send, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError resets a lingering error state back to idle.
func (c *Controller) ClearError() {
	c.mu.Lock()
	if c.state == StateError {
		c.state = StateIdle
	}
	c.lastErr = nil
	c.mu.Unlock()
	c.store.Notify()
}

// setState moves the state machine and notifies subscribers.
func (c *Controller) setState(s State, err error) {
	c.mu.Lock()
	c.state = s
	if s == StateError {
		c.lastErr = err
	} else if s == StateSending {
		c.lastErr = nil
	}
	c.mu.Unlock()
	c.store.Notify()
}

// =============================================================================
// SEND
// =============================================================================

// Send submits the user's text to the active session and ingests the
// streamed reply into the placeholder message.
//
// Preconditions: non-empty trimmed text, an active session, and no send
// already in flight. A violated precondition is a no-op returning nil.
//
// Send blocks until the stream ends; run it from a goroutine when driving a
// UI. The in-flight token is released on every exit path. Errors are both
// returned and retained in LastError; the optimistic placeholder is left in
// place, never finalized, so the UI can show an incomplete reply.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	active := c.store.Active()
	if active == nil {
		return nil
	}
	if !c.guard.TryAcquire() {
		return nil
	}
	defer c.guard.Release()

	sessionID := active.ID
	c.setState(StateSending, nil)

	// Optimistic append: user message plus assistant placeholder.
	if !c.store.BeginExchange(sessionID, text) {
		c.setState(StateIdle, nil)
		return nil
	}

	body, err := c.api.Ask(ctx, sessionID, text)
	if err != nil {
		c.logger.Error("send failed", "session", sessionID, "err", err)
		c.setState(StateError, err)
		return err
	}
	defer body.Close()

	c.setState(StateStreamOpen, nil)

	ingester := stream.New(body)
	for {
		frame, err := ingester.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.Error("stream aborted", "session", sessionID, "err", err)
			c.setState(StateError, err)
			return err
		}
		// Cumulative snapshot: replace the placeholder content wholesale.
		c.store.ApplyAnswer(sessionID, frame.Answer, frame.MessageID)
	}

	c.setState(StateIdle, nil)
	return nil
}
