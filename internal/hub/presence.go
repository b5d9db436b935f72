package hub

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/protocol"
)

// Presence maps users to their advertised status. Presence is advisory:
// concurrent writers for the same user race last-write-wins.
type Presence struct {
	mu       sync.RWMutex
	statuses map[uuid.UUID]protocol.UserStatus
}

func NewPresence() *Presence {
	return &Presence{statuses: make(map[uuid.UUID]protocol.UserStatus)}
}

func (p *Presence) Set(userID uuid.UUID, status protocol.UserStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[userID] = status
}

// Get returns the user's status, defaulting to offline for unknown users.
func (p *Presence) Get(userID uuid.UUID) protocol.UserStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if status, ok := p.statuses[userID]; ok {
		return status
	}
	return protocol.StatusOffline
}
