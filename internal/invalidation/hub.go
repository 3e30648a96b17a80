// Package invalidation fans post-commit view-invalidation signals out to
// in-process subscribers (dashboard caches, account views). Signals are
// fire-and-forget: slow subscribers miss signals rather than block commits.
package invalidation

import (
	"sync"
	"time"
)

// Scope identifies which view a signal invalidates.
type Scope string

const (
	// ScopeDashboard invalidates a user's aggregate dashboard view.
	ScopeDashboard Scope = "dashboard"
	// ScopeAccount invalidates a single account's view.
	ScopeAccount Scope = "account"
)

// Signal is one invalidation event. Key is the user id for dashboard scope
// and the account id for account scope.
type Signal struct {
	Scope Scope     `json:"scope"`
	Key   string    `json:"key"`
	At    time.Time `json:"at"`
}

// Hub distributes signals to subscribers. Safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	subs   []chan Signal
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// the hub shuts down.
func (h *Hub) Subscribe(buffer int) <-chan Signal {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Signal, buffer)
	if h.closed {
		close(ch)
		return ch
	}
	h.subs = append(h.subs, ch)
	return ch
}

// Publish delivers sig to every subscriber that has buffer room.
func (h *Hub) Publish(sig Signal) {
	if sig.At.IsZero() {
		sig.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- sig:
		default:
			// Subscriber is saturated; dropping is acceptable for cache
			// eviction signals, blocking a committed operation is not.
		}
	}
}

// InvalidateDashboard implements the engine's Invalidator contract.
func (h *Hub) InvalidateDashboard(userID string) {
	h.Publish(Signal{Scope: ScopeDashboard, Key: userID})
}

// InvalidateAccount implements the engine's Invalidator contract.
func (h *Hub) InvalidateAccount(accountID string) {
	h.Publish(Signal{Scope: ScopeAccount, Key: accountID})
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
