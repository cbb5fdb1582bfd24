// Package session tracks the active session of each logged-in user so it can
// be invalidated by login, from an administrator or from a second device.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// ErrNotRegistered is returned when no session is registered for a login.
var ErrNotRegistered = errors.New("no active session for login")

// Handle ends one user's session.
type Handle interface {
	Invalidate(ctx context.Context) error
}

// Registry maps logins to their active session. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Handle
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Handle)}
}

// Add registers h as the active session of login and returns the handle it replaced, if any.
func (r *Registry) Add(login string, h Handle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.sessions[login]
	r.sessions[login] = h
	return prev
}

// Invalidate removes login from the registry and invalidates its session.
// The entry is removed even when the handle fails; the failure is returned.
func (r *Registry) Invalidate(ctx context.Context, login string) error {
	r.mu.Lock()
	h, ok := r.sessions[login]
	delete(r.sessions, login)
	r.mu.Unlock()

	if !ok {
		return ErrNotRegistered
	}
	if err := h.Invalidate(ctx); err != nil {
		slog.Warn("session invalidation failed", "login", login, "error", err)
		return err
	}
	return nil
}

// Has reports whether login has a registered session.
func (r *Registry) Has(login string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[login]
	return ok
}

// Logins returns the registered logins, sorted.
func (r *Registry) Logins() []string {
	r.mu.RLock()
	logins := make([]string, 0, len(r.sessions))
	for l := range r.sessions {
		logins = append(logins, l)
	}
	r.mu.RUnlock()
	slices.Sort(logins)
	return logins
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
