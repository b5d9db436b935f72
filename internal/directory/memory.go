package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/protocol"
)

// Memory is an in-process implementation of every collaborator interface,
// used by the standalone binary and by tests. The real deployment swaps in
// the persistence service's clients.
type Memory struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]protocol.User
	channels map[uuid.UUID]map[uuid.UUID]struct{}
	messages map[uuid.UUID]protocol.Message
}

var (
	_ Users    = (*Memory)(nil)
	_ Channels = (*Memory)(nil)
	_ Messages = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]protocol.User),
		channels: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		messages: make(map[uuid.UUID]protocol.Message),
	}
}

// PutUser creates or replaces a user profile.
func (m *Memory) PutUser(user protocol.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

// AddChannelMember records durable membership of a user in a channel.
func (m *Memory) AddChannelMember(channelID, userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.channels[channelID]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		m.channels[channelID] = members
	}
	members[userID] = struct{}{}
}

func (m *Memory) Get(_ context.Context, userID uuid.UUID) (protocol.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return protocol.User{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return user, nil
}

func (m *Memory) UpdateStatus(_ context.Context, userID uuid.UUID, status protocol.UserStatus, message *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	user.Status = status
	user.StatusMessage = message
	now := time.Now().UTC()
	user.LastSeen = &now
	m.users[userID] = user
	return nil
}

func (m *Memory) IsMember(_ context.Context, channelID, userID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, ok := m.channels[channelID]
	if !ok {
		return false, nil
	}
	_, ok = members[userID]
	return ok, nil
}

func (m *Memory) Members(_ context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, ok := m.channels[channelID]
	if !ok {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(members))
	for userID := range members {
		out = append(out, userID)
	}
	return out, nil
}

func (m *Memory) Send(ctx context.Context, channelID, senderID uuid.UUID, content string, replyToID *uuid.UUID) (protocol.Message, error) {
	sender, err := m.Get(ctx, senderID)
	if err != nil {
		return protocol.Message{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.channels[channelID]; !ok {
		return protocol.Message{}, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	if _, ok := m.channels[channelID][senderID]; !ok {
		return protocol.Message{}, fmt.Errorf("user %s in channel %s: %w", senderID, channelID, ErrNotAMember)
	}

	var replyTo *protocol.Message
	if replyToID != nil {
		if parent, ok := m.messages[*replyToID]; ok {
			replyTo = &parent
		}
	}

	now := time.Now().UTC()
	message := protocol.Message{
		ID:          uuid.New(),
		ChannelID:   channelID,
		Sender:      sender,
		Content:     content,
		MessageType: "text",
		ReplyTo:     replyTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.messages[message.ID] = message
	return message, nil
}
