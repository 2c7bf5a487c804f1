// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store keeps the local mirror of the remote session collection.
//
// The store is the single authority for session state on this side of the
// wire: the presentation layer subscribes to change notifications and reads
// snapshots, never holding session state of its own. Server-confirmed
// mutations (rename, delete, owner tag) follow a confirm-then-apply
// discipline, so a failed request never leaves local state diverged.
package store

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/mirrorchat/internal/api"
	"github.com/jeranaias/mirrorchat/internal/model"
)

// DefaultPageSize is the session list page size used when none is configured.
const DefaultPageSize = 30

// =============================================================================
// SESSION STORE
// =============================================================================

// Store is the authoritative local collection of sessions.
type Store struct {
	mu sync.Mutex

	api      *api.Client
	pageSize int
	logger   *log.Logger

	sessions []*model.Session
	active   *model.Session

	favorites *FavoritesIndex
	listeners []func()
}

// New creates a store backed by the given gateway.
func New(client *api.Client, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	s := &Store{
		api:      client,
		pageSize: pageSize,
		logger:   log.WithPrefix("store"),
	}
	s.favorites = newFavoritesIndex(client, s, pageSize)
	return s
}

// Favorites returns the favorites view of this store.
func (s *Store) Favorites() *FavoritesIndex {
	return s.favorites
}

// Subscribe registers a callback invoked after every state change.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Notify wakes subscribers without a state change of the store itself; the
// conversation controller uses it for send-state transitions.
func (s *Store) Notify() {
	s.notify()
}

// notify invokes listeners outside the lock.
func (s *Store) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// =============================================================================
// LIST REFRESH
// =============================================================================

// LoadAll fetches the first page of sessions ordered by update time
// descending and replaces the local collection. On failure the prior
// collection is retained untouched.
func (s *Store) LoadAll(ctx context.Context) error {
	sessions, err := s.api.ListSessions(ctx, api.ListOptions{
		Page:     1,
		PageSize: s.pageSize,
		OrderBy:  "update_time",
		Desc:     true,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions = sessions
	// Re-point the active session at the fresh record so the controller
	// and the list keep sharing one logical record.
	if s.active != nil {
		for _, sess := range sessions {
			if sess.ID == s.active.ID {
				s.active = sess
				break
			}
		}
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Sessions returns a snapshot of the session list. The snapshot is a deep
// copy: the live records are only ever touched under the store lock, so
// readers never observe a mid-stream mutation.
func (s *Store) Sessions() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Get returns a snapshot of the session with the given ID from the main
// collection, or nil.
func (s *Store) Get(id string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.findLocked(id); sess != nil {
		return sess.Clone()
	}
	return nil
}

// findLocked looks up a session in the main collection. Caller holds mu.
func (s *Store) findLocked(id string) *model.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// =============================================================================
// ACTIVE SESSION
// =============================================================================

// Active returns a snapshot of the currently active session, or nil.
func (s *Store) Active() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.Clone()
}

// SetActive switches the active session by ID, searching the main and
// favorite collections. Unknown IDs are a silent no-op: the prior session
// stays active. Switching to the already-active session is also a no-op.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.mu.Unlock()
		return
	}
	target := s.findLocked(id)
	if target == nil {
		target = s.favorites.find(id)
	}
	if target == nil {
		s.mu.Unlock()
		return
	}
	s.active = target
	s.mu.Unlock()

	s.notify()
}

// clearActiveIf unsets the active session when it matches id.
func (s *Store) clearActiveIf(id string) {
	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.active = nil
	}
	s.mu.Unlock()
}

// =============================================================================
// SERVER-CONFIRMED MUTATIONS
// =============================================================================

// Create requests server-side creation of a named session. On success the
// new session is prepended to the collection and made active; on failure no
// local mutation occurs. The returned session is a snapshot.
func (s *Store) Create(ctx context.Context, name string) (*model.Session, error) {
	created, err := s.api.CreateSession(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions = append([]*model.Session{created}, s.sessions...)
	s.active = created
	snapshot := created.Clone()
	s.mu.Unlock()

	s.notify()
	return snapshot, nil
}

// Rename renames a session. The local name changes only after the server
// acknowledges the update.
func (s *Store) Rename(ctx context.Context, id, newName string) error {
	if err := s.api.UpdateSession(ctx, id, api.SessionUpdate{Name: &newName}); err != nil {
		return err
	}

	s.mu.Lock()
	if sess := s.findLocked(id); sess != nil {
		sess.Name = newName
	}
	if sess := s.favorites.find(id); sess != nil {
		sess.Name = newName
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetOwnerTag updates a session's owner tag, confirm-then-apply.
func (s *Store) SetOwnerTag(ctx context.Context, id, tag string) error {
	if err := s.api.UpdateSession(ctx, id, api.SessionUpdate{OwnerTag: &tag}); err != nil {
		return err
	}

	s.mu.Lock()
	if sess := s.findLocked(id); sess != nil {
		sess.OwnerTag = tag
	}
	if sess := s.favorites.find(id); sess != nil {
		sess.OwnerTag = tag
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Delete removes a session after the server confirms the deletion. Deleting
// the active session unsets the active conversation.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteSession(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for i, sess := range s.sessions {
		if sess.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	if s.active != nil && s.active.ID == id {
		s.active = nil
	}
	s.mu.Unlock()
	s.favorites.remove(id)

	s.notify()
	return nil
}

// =============================================================================
// STREAMING MUTATIONS
// =============================================================================

// The conversation controller is the only writer of these two operations.
// Both mutate the live session record under the store lock; readers only
// ever hold detached snapshots, so a concurrent re-render cannot observe a
// torn update.

// BeginExchange appends a user message and an assistant placeholder to the
// session. Returns false when the session is unknown.
func (s *Store) BeginExchange(id, text string) bool {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		sess = s.favorites.find(id)
	}
	if sess == nil {
		s.mu.Unlock()
		return false
	}
	sess.AppendExchange(text)
	s.mu.Unlock()

	s.notify()
	return true
}

// ApplyAnswer replaces the streamed placeholder content of the session with
// a cumulative snapshot, adopting the server message ID when present.
func (s *Store) ApplyAnswer(id, content, messageID string) {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		sess = s.favorites.find(id)
	}
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.SetLastAnswer(content, messageID)
	s.mu.Unlock()

	s.notify()
}
