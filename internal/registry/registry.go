package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultAPIBaseURL is the standard Telegram Bot API base URL, used when an
// endpoint does not override it.
const DefaultAPIBaseURL = "https://api.telegram.org"

var (
	// ErrDuplicateName is returned when adding an endpoint whose name is taken.
	ErrDuplicateName = errors.New("endpoint name already registered")

	// ErrNotFound is returned when a named endpoint does not exist.
	ErrNotFound = errors.New("endpoint not found")

	// ErrNoChannelConfigured is returned when no endpoint can serve a request.
	ErrNoChannelConfigured = errors.New("no channel endpoint configured")
)

// Endpoint is a named chat destination: a bot credential plus the
// conversation it posts into. Lookups hand out copies, so a running session
// never shares endpoint data with the registry.
type Endpoint struct {
	Name       string `json:"name" mapstructure:"name"`
	Token      string `json:"token" mapstructure:"token"`
	ChatID     int64  `json:"chat_id" mapstructure:"chat_id"`
	APIBaseURL string `json:"api_base_url" mapstructure:"api_base_url"`
}

// BaseURL returns the endpoint's API base URL, falling back to the standard one.
func (e Endpoint) BaseURL() string {
	if e.APIBaseURL == "" {
		return DefaultAPIBaseURL
	}
	return e.APIBaseURL
}

// PendingSession is a session seen without a resolvable binding, queued for
// manual channel assignment.
type PendingSession struct {
	SessionID string    `json:"session_id" mapstructure:"session_id"`
	FirstSeen time.Time `json:"first_seen" mapstructure:"first_seen"`
}

// Registry holds named channel endpoints, the designated default, the
// session-to-channel binding table, and the pending-session queue. All
// mutations are serialized behind one mutex; critical sections are short and
// never block on I/O.
type Registry struct {
	mu          sync.RWMutex
	endpoints   map[string]Endpoint
	defaultName string
	bindings    map[string]string
	pending     []PendingSession
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		endpoints: make(map[string]Endpoint),
		bindings:  make(map[string]string),
	}
}

// Add registers a new endpoint.
func (r *Registry) Add(ep Endpoint) error {
	name := strings.TrimSpace(ep.Name)
	if name == "" {
		return fmt.Errorf("endpoint name is required")
	}
	ep.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.endpoints[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	r.endpoints[name] = ep
	if r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

// Remove deletes an endpoint by name. Every session binding pointing at the
// removed endpoint is deleted with it; a dangling binding is worse than a
// lost one. If the endpoint was the default, the default is cleared.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.endpoints[name]; !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	delete(r.endpoints, name)
	r.dropBindingsTo(name)
	if r.defaultName == name {
		r.defaultName = ""
	}
	return nil
}

// Update replaces the endpoint registered under oldName with ep, as a single
// atomic remove-then-add: either both steps apply or the registry is left
// unchanged. When the name stays the same, session bindings survive; when the
// endpoint is renamed, bindings to the old name are dropped and the default
// follows the rename.
func (r *Registry) Update(oldName string, ep Endpoint) error {
	newName := strings.TrimSpace(ep.Name)
	if newName == "" {
		return fmt.Errorf("endpoint name is required")
	}
	ep.Name = newName

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.endpoints[oldName]; !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, oldName)
	}
	if newName != oldName {
		if _, exists := r.endpoints[newName]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateName, newName)
		}
	}

	delete(r.endpoints, oldName)
	r.endpoints[newName] = ep
	if newName != oldName {
		r.dropBindingsTo(oldName)
		if r.defaultName == oldName {
			r.defaultName = newName
		}
	}
	return nil
}

// SetDefault designates the endpoint used when no explicit target or session
// binding applies.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.endpoints[name]; !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	r.defaultName = name
	return nil
}

// Get returns the endpoint registered under name.
func (r *Registry) Get(name string) (Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.endpoints[name]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return ep, nil
}

// Default returns the default endpoint. When the designated default is unset
// or dangling but endpoints exist, the first endpoint by name is used instead,
// so a lone misconfigured default never makes the registry unroutable.
func (r *Registry) Default() (Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ep, ok := r.endpoints[r.defaultName]; ok {
		return ep, nil
	}
	if len(r.endpoints) == 0 {
		return Endpoint{}, ErrNoChannelConfigured
	}

	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return r.endpoints[names[0]], nil
}

// DefaultName returns the currently designated default endpoint name.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Names returns the sorted names of all registered endpoints.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BindSession maps a session id to a named endpoint. A matching pending-queue
// entry is removed, keeping a session either pending or routable, never both.
func (r *Registry) BindSession(sessionID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.endpoints[name]; !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	r.bindings[sessionID] = name
	r.removePending(sessionID)
	return nil
}

// UnbindSession removes the binding for a session id.
func (r *Registry) UnbindSession(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[sessionID]; !ok {
		return fmt.Errorf("%w: no binding for session %q", ErrNotFound, sessionID)
	}
	delete(r.bindings, sessionID)
	return nil
}

// ResolveSession returns the endpoint bound to the session id, if any.
func (r *Registry) ResolveSession(sessionID string) (Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.bindings[sessionID]
	if !ok {
		return Endpoint{}, false
	}
	ep, ok := r.endpoints[name]
	return ep, ok
}

// Bindings returns a copy of the session binding table.
func (r *Registry) Bindings() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.bindings))
	for k, v := range r.bindings {
		out[k] = v
	}
	return out
}

// RecordPending enqueues a session id for manual binding. Re-recording an
// already-pending session or one that already has a binding is a no-op.
func (r *Registry) RecordPending(sessionID string) {
	if sessionID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, bound := r.bindings[sessionID]; bound {
		return
	}
	for _, p := range r.pending {
		if p.SessionID == sessionID {
			return
		}
	}
	r.pending = append(r.pending, PendingSession{
		SessionID: sessionID,
		FirstSeen: time.Now().UTC(),
	})
}

// DequeuePending removes a session id from the pending queue.
func (r *Registry) DequeuePending(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.pending {
		if p.SessionID == sessionID {
			r.removePending(sessionID)
			return nil
		}
	}
	return fmt.Errorf("%w: session %q is not pending", ErrNotFound, sessionID)
}

// PendingSessions returns a copy of the pending-session queue in arrival order.
func (r *Registry) PendingSessions() []PendingSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PendingSession, len(r.pending))
	copy(out, r.pending)
	return out
}

// dropBindingsTo removes every binding whose value equals name.
// Caller must hold the write lock.
func (r *Registry) dropBindingsTo(name string) {
	for sid, bound := range r.bindings {
		if bound == name {
			delete(r.bindings, sid)
		}
	}
}

// removePending deletes a pending entry by session id.
// Caller must hold the write lock.
func (r *Registry) removePending(sessionID string) {
	for i, p := range r.pending {
		if p.SessionID == sessionID {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}
