// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/mirrorchat/internal/api"
	"github.com/jeranaias/mirrorchat/internal/model"
)

// =============================================================================
// FAVORITES INDEX
// =============================================================================

// FavoritesIndex is the favorited view of the session collection. It is
// populated by a dedicated owner-filtered server query rather than filtered
// locally, so the remote and local views may transiently diverge until the
// next refresh. Favorite status itself lives only in the session owner tag;
// the index holds no independent state.
type FavoritesIndex struct {
	mu sync.Mutex

	api      *api.Client
	store    *Store
	pageSize int
	logger   *log.Logger

	sessions []*model.Session
}

func newFavoritesIndex(client *api.Client, parent *Store, pageSize int) *FavoritesIndex {
	return &FavoritesIndex{
		api:      client,
		store:    parent,
		pageSize: pageSize,
		logger:   log.WithPrefix("favorites"),
	}
}

// Refresh fetches the favorited sessions. On failure the prior view is
// retained untouched.
func (f *FavoritesIndex) Refresh(ctx context.Context) error {
	sessions, err := f.api.ListSessions(ctx, api.ListOptions{
		Page:     1,
		PageSize: f.pageSize,
		OwnerTag: model.FavoriteOwnerTag,
	})
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.sessions = sessions
	f.mu.Unlock()

	f.store.notify()
	return nil
}

// List returns a snapshot of the favorited sessions. Deep copies, same as
// Store.Sessions: the live records stay behind the locks.
func (f *FavoritesIndex) List() []*model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Session, len(f.sessions))
	for i, sess := range f.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// find looks up a favorited session by ID.
func (f *FavoritesIndex) find(id string) *model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sess := range f.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// remove drops a session from the view, e.g. after deletion.
func (f *FavoritesIndex) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sess := range f.sessions {
		if sess.ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return
		}
	}
}

// resolve finds the session owning the given session or message ID across
// the main and favorite collections. The result is a snapshot.
func (f *FavoritesIndex) resolve(id string) *model.Session {
	for _, sess := range f.store.Sessions() {
		if sess.ID == id || sess.FindMessage(id) != nil {
			return sess
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sess := range f.sessions {
		if sess.ID == id || sess.FindMessage(id) != nil {
			return sess.Clone()
		}
	}
	return nil
}

// Toggle inverts the favorite status of the session identified by a session
// or message ID, then refreshes both the main list and this view so the two
// queries converge. Refresh failures after a confirmed toggle are logged,
// not surfaced. Unknown IDs are a no-op.
func (f *FavoritesIndex) Toggle(ctx context.Context, id string) error {
	sess := f.resolve(id)
	if sess == nil {
		return nil
	}

	tag := model.FavoriteOwnerTag
	if sess.IsFavorite() {
		tag = ""
	}
	if err := f.store.SetOwnerTag(ctx, sess.ID, tag); err != nil {
		return err
	}

	if err := f.store.LoadAll(ctx); err != nil {
		f.logger.Warn("session list refresh after toggle failed", "err", err)
	}
	if err := f.Refresh(ctx); err != nil {
		f.logger.Warn("favorites refresh after toggle failed", "err", err)
	}
	return nil
}
