// Package viewscope keeps per-screen state between requests. A client opens a
// view, passes its id on every request of that screen and closes it when the
// screen goes away; named beans live exactly as long as the view.
package viewscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrViewNotFound is returned for unknown, expired or destroyed views.
	ErrViewNotFound = errors.New("view not found")
	// ErrViewForbidden is returned when a view is used by someone other than its owner.
	ErrViewForbidden = errors.New("view belongs to another user")
	// ErrBeanType is returned when a bean exists under a name with another type.
	ErrBeanType = errors.New("bean has unexpected type")
)

// View is one open screen. Its beans may only be used while the view is acquired.
type View struct {
	id    string
	owner string

	mu        sync.Mutex
	beans     map[string]any
	callbacks map[string]func()
	lastSeen  time.Time
	destroyed bool
}

// ID returns the view id.
func (v *View) ID() string { return v.id }

// Get returns the bean stored under name, creating it with factory on first use.
func (v *View) Get(name string, factory func() any) any {
	if b, ok := v.beans[name]; ok {
		return b
	}
	b := factory()
	v.beans[name] = b
	return b
}

// Remove drops the bean stored under name together with its destruction callback.
func (v *View) Remove(name string) (any, bool) {
	b, ok := v.beans[name]
	delete(v.beans, name)
	delete(v.callbacks, name)
	return b, ok
}

// RegisterDestructionCallback runs fn when the view is destroyed.
// Registering again under the same name replaces the previous callback.
func (v *View) RegisterDestructionCallback(name string, fn func()) {
	v.callbacks[name] = fn
}

// Bean is the typed form of View.Get.
func Bean[T any](v *View, name string, factory func() T) (T, error) {
	b := v.Get(name, func() any { return factory() })
	typed, ok := b.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s is %T", ErrBeanType, name, b)
	}
	return typed, nil
}

// Scope is the registry of open views.
type Scope struct {
	mu    sync.Mutex
	views map[string]*View
	now   func() time.Time
}

// New returns an empty Scope.
func New() *Scope {
	return &Scope{views: make(map[string]*View), now: time.Now}
}

// Create opens a view owned by owner and returns its id.
func (s *Scope) Create(owner string) string {
	v := &View{
		id:        uuid.NewString(),
		owner:     owner,
		beans:     make(map[string]any),
		callbacks: make(map[string]func()),
		lastSeen:  s.now(),
	}
	s.mu.Lock()
	s.views[v.id] = v
	s.mu.Unlock()
	return v.id
}

// Acquire locks the view id for owner. Requests on the same view are
// serialised; Release must be called when the request ends.
func (s *Scope) Acquire(id, owner string) (*View, error) {
	s.mu.Lock()
	v, ok := s.views[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrViewNotFound
	}
	if v.owner != owner {
		return nil, ErrViewForbidden
	}

	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return nil, ErrViewNotFound
	}
	v.lastSeen = s.now()
	return v, nil
}

// Release unlocks a view obtained from Acquire.
func (s *Scope) Release(v *View) {
	v.lastSeen = s.now()
	v.mu.Unlock()
}

// Destroy closes the view id owned by owner and runs its destruction callbacks.
func (s *Scope) Destroy(id, owner string) error {
	s.mu.Lock()
	v, ok := s.views[id]
	if ok && v.owner != owner {
		s.mu.Unlock()
		return ErrViewForbidden
	}
	delete(s.views, id)
	s.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}

	v.mu.Lock()
	callbacks := teardown(v)
	v.mu.Unlock()
	runCallbacks(id, callbacks)
	return nil
}

// Sweep destroys views idle for longer than maxIdle and returns how many it
// destroyed. Views currently acquired are skipped.
func (s *Scope) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	type expired struct {
		id        string
		callbacks []func()
	}
	var done []expired

	s.mu.Lock()
	for id, v := range s.views {
		if !v.mu.TryLock() {
			continue
		}
		if v.lastSeen.Before(cutoff) {
			delete(s.views, id)
			done = append(done, expired{id: id, callbacks: teardown(v)})
		}
		v.mu.Unlock()
	}
	s.mu.Unlock()

	for _, e := range done {
		runCallbacks(e.id, e.callbacks)
	}
	return len(done)
}

// Len returns the number of open views.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Run sweeps idle views every interval until ctx is done.
func (s *Scope) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				slog.Info("expired idle views", "count", n, "open", s.Len())
			}
		}
	}
}

// teardown marks v destroyed and returns its callbacks. v.mu must be held.
func teardown(v *View) []func() {
	callbacks := make([]func(), 0, len(v.callbacks))
	for _, fn := range v.callbacks {
		callbacks = append(callbacks, fn)
	}
	v.destroyed = true
	v.beans = nil
	v.callbacks = nil
	return callbacks
}

func runCallbacks(id string, callbacks []func()) {
	for _, fn := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("view destruction callback panicked", "view_id", id, "panic", r)
				}
			}()
			fn()
		}()
	}
}
