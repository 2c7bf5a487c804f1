// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "sync"

// sendGuard is the mutual-exclusion token for sends. Exactly one send may
// hold the token at a time, process-wide; acquisition at send start and
// release on every exit path replaces scattered in-flight flags.
type sendGuard struct {
	mu       sync.Mutex
	inFlight bool
}

// TryAcquire claims the token. Returns false when a send already holds it.
func (g *sendGuard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return false
	}
	g.inFlight = true
	return true
}

// Release returns the token. Safe to call when not held.
func (g *sendGuard) Release() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// Held reports whether a send currently holds the token.
func (g *sendGuard) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}
