package usecase

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
)

// Registry is the in-memory map of session name to connected client.
// Every inspect-or-mutate path takes the registry lock; callers that need
// to perform network calls first snapshot the entries they need and
// release the lock.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]deps.Client
	order   []string // insertion order, drives bulk target selection

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger zerolog.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		clients: make(map[string]deps.Client),
		logger:  logger.With().Str("component", "session_registry").Logger(),
		metrics: m,
	}
}

// Add registers a client under its session name. Duplicate names are
// rejected so a session can never be silently doubled.
func (r *Registry) Add(client deps.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := client.Name()
	if _, exists := r.clients[name]; exists {
		return accounterrors.ErrSessionExists
	}
	r.clients[name] = client
	r.order = append(r.order, name)
	r.updateGauge()
	r.logger.Debug().Str("session", name).Msg("session registered")
	return nil
}

// Get returns the client for a session name.
func (r *Registry) Get(name string) (deps.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	return c, ok
}

// Remove drops a session from the registry and returns its client so the
// caller can disconnect it outside the lock.
func (r *Registry) Remove(name string) (deps.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[name]
	if !ok {
		return nil, false
	}
	delete(r.clients, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.updateGauge()
	r.logger.Debug().Str("session", name).Msg("session removed from registry")
	return c, true
}

// Has reports whether a session name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Names returns the session names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Snapshot returns the registered clients in insertion order. The slice is
// a copy; the registry lock is not held once it returns.
func (r *Registry) Snapshot() []deps.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]deps.Client, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.clients[name])
	}
	return out
}

// PickClients returns up to n clients in insertion order for a bulk batch.
func (r *Registry) PickClients(n int) []deps.Client {
	if n <= 0 {
		return nil
	}
	snapshot := r.Snapshot()
	if n < len(snapshot) {
		snapshot = snapshot[:n]
	}
	return snapshot
}

// ActiveCount returns the number of registered sessions.
func (r *Registry) ActiveCount() int {
	return r.Len()
}

// Clear empties the registry and returns the removed clients in insertion
// order so the caller can disconnect them outside the lock.
func (r *Registry) Clear() []deps.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]deps.Client, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.clients[name])
	}
	r.clients = make(map[string]deps.Client)
	r.order = nil
	r.updateGauge()
	return out
}

func (r *Registry) updateGauge() {
	if r.metrics != nil {
		r.metrics.UpdateActiveSessions(len(r.clients))
	}
}
