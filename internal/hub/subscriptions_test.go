package hub

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionTableMembership(t *testing.T) {
	table := NewSubscriptionTable()
	scope := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	table.Subscribe(scope, alice)
	table.Subscribe(scope, bob)
	table.Subscribe(scope, bob) // duplicate is a no-op

	members := table.Members(scope)
	require.Len(t, members, 2)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, members)
	assert.True(t, table.Contains(scope, alice))

	table.Unsubscribe(scope, alice)
	assert.False(t, table.Contains(scope, alice))
	require.Len(t, table.Members(scope), 1)
}

func TestSubscriptionTableUnsubscribeIsIdempotent(t *testing.T) {
	table := NewSubscriptionTable()
	scope, user := uuid.New(), uuid.New()

	// Neither the scope nor the user exists yet.
	table.Unsubscribe(scope, user)

	table.Subscribe(scope, user)
	table.Unsubscribe(scope, user)
	table.Unsubscribe(scope, user)

	assert.Empty(t, table.Members(scope))
}

func TestSubscriptionTableEmptyScopePruned(t *testing.T) {
	table := NewSubscriptionTable()
	scope, user := uuid.New(), uuid.New()

	table.Subscribe(scope, user)
	table.Unsubscribe(scope, user)

	table.mu.RLock()
	_, exists := table.scopes[scope]
	table.mu.RUnlock()
	assert.False(t, exists, "emptied scope should be pruned")
}

func TestRemoveUserEverywhere(t *testing.T) {
	table := NewSubscriptionTable()
	user, other := uuid.New(), uuid.New()

	scopes := make([]uuid.UUID, 5)
	for i := range scopes {
		scopes[i] = uuid.New()
		table.Subscribe(scopes[i], user)
	}
	table.Subscribe(scopes[0], other)

	table.RemoveUserEverywhere(user)

	for _, scope := range scopes {
		assert.False(t, table.Contains(scope, user))
	}
	assert.True(t, table.Contains(scopes[0], other), "other users are untouched")
}

func TestRemoveScope(t *testing.T) {
	table := NewSubscriptionTable()
	scope := uuid.New()
	table.Subscribe(scope, uuid.New())
	table.Subscribe(scope, uuid.New())

	table.RemoveScope(scope)
	assert.Empty(t, table.Members(scope))
}

func TestSubscriptionTableConcurrency(t *testing.T) {
	table := NewSubscriptionTable()
	scopes := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	users := make([]uuid.UUID, 10)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scope := scopes[i%len(scopes)]
			user := users[i%len(users)]
			table.Subscribe(scope, user)
			table.Members(scope)
			if i%3 == 0 {
				table.Unsubscribe(scope, user)
			}
			if i%7 == 0 {
				table.RemoveUserEverywhere(user)
			}
		}(i)
	}
	wg.Wait()
}
