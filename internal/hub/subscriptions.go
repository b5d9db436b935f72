package hub

import (
	"sync"

	"github.com/google/uuid"
)

// SubscriptionTable is a many-to-many map from a scope (channel or call) to
// the users currently interested in its real-time events. Subscription is
// volatile and orthogonal to durable membership.
type SubscriptionTable struct {
	mu     sync.RWMutex
	scopes map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewSubscriptionTable() *SubscriptionTable {
	return &SubscriptionTable{scopes: make(map[uuid.UUID]map[uuid.UUID]struct{})}
}

// Subscribe adds the user to the scope, creating the scope if absent.
func (t *SubscriptionTable) Subscribe(scopeID, userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.scopes[scopeID]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		t.scopes[scopeID] = members
	}
	members[userID] = struct{}{}
}

// Unsubscribe removes the user from the scope. Missing entries are a no-op.
// An emptied scope is pruned.
func (t *SubscriptionTable) Unsubscribe(scopeID, userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.scopes[scopeID]
	if !ok {
		return
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(t.scopes, scopeID)
	}
}

// Members returns a snapshot of the scope's subscribers.
func (t *SubscriptionTable) Members(scopeID uuid.UUID) []uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members, ok := t.scopes[scopeID]
	if !ok {
		return nil
	}
	out := make([]uuid.UUID, 0, len(members))
	for userID := range members {
		out = append(out, userID)
	}
	return out
}

// Contains reports whether the user is subscribed to the scope.
func (t *SubscriptionTable) Contains(scopeID, userID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members, ok := t.scopes[scopeID]
	if !ok {
		return false
	}
	_, ok = members[userID]
	return ok
}

// RemoveUserEverywhere removes the user from every scope. Called once per
// disconnect, after the session has stopped processing inbound frames.
func (t *SubscriptionTable) RemoveUserEverywhere(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for scopeID, members := range t.scopes {
		delete(members, userID)
		if len(members) == 0 {
			delete(t.scopes, scopeID)
		}
	}
}

// RemoveScope drops the scope and all its subscribers (e.g. an ended call).
func (t *SubscriptionTable) RemoveScope(scopeID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.scopes, scopeID)
}
