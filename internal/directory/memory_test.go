package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/protocol"
)

func seedUser(m *Memory, username string) protocol.User {
	user := protocol.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Status:   protocol.StatusOnline,
	}
	m.PutUser(user)
	return user
}

func TestMemoryGetUser(t *testing.T) {
	m := NewMemory()
	alice := seedUser(m, "alice")

	got, err := m.Get(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = m.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateStatus(t *testing.T) {
	m := NewMemory()
	alice := seedUser(m, "alice")
	note := "in a meeting"

	require.NoError(t, m.UpdateStatus(context.Background(), alice.ID, protocol.StatusBusy, &note))

	got, err := m.Get(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusBusy, got.Status)
	require.NotNil(t, got.StatusMessage)
	assert.Equal(t, note, *got.StatusMessage)
	assert.NotNil(t, got.LastSeen)

	err = m.UpdateStatus(context.Background(), uuid.New(), protocol.StatusAway, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryChannelMembership(t *testing.T) {
	m := NewMemory()
	alice := seedUser(m, "alice")
	bob := seedUser(m, "bob")
	channelID := uuid.New()

	m.AddChannelMember(channelID, alice.ID)

	member, err := m.IsMember(context.Background(), channelID, alice.ID)
	require.NoError(t, err)
	assert.True(t, member)

	member, err = m.IsMember(context.Background(), channelID, bob.ID)
	require.NoError(t, err)
	assert.False(t, member)

	member, err = m.IsMember(context.Background(), uuid.New(), alice.ID)
	require.NoError(t, err)
	assert.False(t, member, "unknown channel has no members")

	members, err := m.Members(context.Background(), channelID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice.ID}, members)
}

func TestMemorySendMessage(t *testing.T) {
	m := NewMemory()
	alice := seedUser(m, "alice")
	channelID := uuid.New()
	m.AddChannelMember(channelID, alice.ID)

	msg, err := m.Send(context.Background(), channelID, alice.ID, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, channelID, msg.ChannelID)
	assert.Equal(t, alice.ID, msg.Sender.ID)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "text", msg.MessageType)
	assert.Nil(t, msg.ReplyTo)

	reply, err := m.Send(context.Background(), channelID, alice.ID, "and again", &msg.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, msg.ID, reply.ReplyTo.ID)
}

func TestMemorySendMessageRejections(t *testing.T) {
	m := NewMemory()
	alice := seedUser(m, "alice")
	bob := seedUser(m, "bob")
	channelID := uuid.New()
	m.AddChannelMember(channelID, alice.ID)

	_, err := m.Send(context.Background(), uuid.New(), alice.ID, "hi", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Send(context.Background(), channelID, bob.ID, "hi", nil)
	assert.ErrorIs(t, err, ErrNotAMember)

	_, err = m.Send(context.Background(), channelID, uuid.New(), "hi", nil)
	assert.ErrorIs(t, err, ErrNotFound, "unknown sender has no profile")
}
