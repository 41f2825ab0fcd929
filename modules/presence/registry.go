package presence

import (
	"errors"
	"sync"
)

// ErrNoIdentity is returned when a registration arrives without a user id.
// Callers must surface an explicit registration-failure signal.
var ErrNoIdentity = errors.New("registration requires an authenticated identity")

// Registry maps a user id to at most one live connection handle. It is the
// authoritative source of "is this user online". Last registration wins: a
// new registration for the same user orphans the previous entry without
// force-closing its socket.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Handle // userID -> live handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Handle),
	}
}

// Register binds a user id to a handle, superseding any prior entry for the
// same user. Safe to call repeatedly with the same handle (idempotent
// re-registration).
func (r *Registry) Register(userID string, h *Handle) error {
	if userID == "" {
		return ErrNoIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h.setUserID(userID)
	r.entries[userID] = h
	return nil
}

// Unregister removes the registry entry owned by h. It is a no-op when the
// entry was already superseded by a newer registration for the same user:
// an old connection's cleanup must never evict a fresh one.
func (r *Registry) Unregister(h *Handle) {
	userID := h.UserID()
	if userID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.entries[userID]; ok && current == h {
		delete(r.entries, userID)
	}
}

// IsOnline reports whether the user has a live registered connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[userID]
	return ok
}

// Lookup returns the user's current connection handle.
func (r *Registry) Lookup(userID string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[userID]
	return h, ok
}

// OnlineUsers returns the ids of all currently registered users.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.entries))
	for userID := range r.entries {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
