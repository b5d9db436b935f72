// Package directory declares the persistence-layer collaborators the hub
// consumes. The hub never talks to storage itself; it asks these interfaces
// for durable facts and already-built response records.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/protocol"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNotAMember = errors.New("not a channel member")
)

// Users resolves user profiles and persists status updates.
type Users interface {
	Get(ctx context.Context, userID uuid.UUID) (protocol.User, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, status protocol.UserStatus, message *string) error
}

// Channels answers durable channel-membership questions. Durable membership
// is independent of whether a member is connected or subscribed right now.
type Channels interface {
	IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error)
	Members(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)
}

// Messages persists chat messages and returns the durable record to relay.
type Messages interface {
	Send(ctx context.Context, channelID, senderID uuid.UUID, content string, replyToID *uuid.UUID) (protocol.Message, error)
}
