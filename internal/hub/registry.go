package hub

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/metrics"
)

// Registry maps each connected user to their delivery handle. A user holds at
// most one handle at a time: registering again replaces the previous handle
// and closes it, which terminates its forwarding goroutine.
type Registry struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]*Outbox
	buffer int

	logger *slog.Logger
}

func NewRegistry(sendBuffer int, logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]*Outbox),
		buffer: sendBuffer,
		logger: logger.With(slog.String("component", "registry")),
	}
}

// Register creates a fresh outbox for the user and returns it. Any prior
// handle is replaced last-write-wins and closed.
func (r *Registry) Register(userID uuid.UUID) *Outbox {
	outbox := newOutbox(r.buffer)

	r.mu.Lock()
	prior := r.conns[userID]
	r.conns[userID] = outbox
	total := len(r.conns)
	r.mu.Unlock()

	if prior != nil {
		prior.Close()
		r.logger.Debug("replaced existing connection handle", slog.String("userID", userID.String()))
	} else {
		metrics.ActiveConnections.Inc()
	}
	r.logger.Debug("user registered", slog.String("userID", userID.String()), slog.Int("total", total))
	return outbox
}

// Deregister removes the user's handle only if it is still the given one, so
// a superseded connection's teardown cannot evict its replacement. Removing
// an absent user is a no-op. Reports whether a handle was removed.
func (r *Registry) Deregister(userID uuid.UUID, handle *Outbox) bool {
	r.mu.Lock()
	current, ok := r.conns[userID]
	if !ok || current != handle {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	total := len(r.conns)
	r.mu.Unlock()

	handle.Close()
	metrics.ActiveConnections.Dec()
	r.logger.Debug("user deregistered", slog.String("userID", userID.String()), slog.Int("total", total))
	return true
}

// Get returns the user's current handle, if any.
func (r *Registry) Get(userID uuid.UUID) (*Outbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	outbox, ok := r.conns[userID]
	return outbox, ok
}

// Current reports whether the given handle is still the user's registered one.
func (r *Registry) Current(userID uuid.UUID, handle *Outbox) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[userID] == handle
}

// Snapshot returns the registered users and their handles at one instant.
func (r *Registry) Snapshot() map[uuid.UUID]*Outbox {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[uuid.UUID]*Outbox, len(r.conns))
	for userID, outbox := range r.conns {
		snapshot[userID] = outbox
	}
	return snapshot
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
