package protocol

import "github.com/google/uuid"

// Server-to-client payloads. These are only ever encoded, so no union type is
// needed; each pairs with its Type* constant through Encode.

type AuthenticatedPayload struct {
	User User `json:"user"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type NewMessagePayload struct {
	Message Message `json:"message"`
}

type MessageUpdatedPayload struct {
	Message Message `json:"message"`
}

type MessageDeletedPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
	MessageID uuid.UUID `json:"message_id"`
}

type UserTypingPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
	User      User      `json:"user"`
}

type UserStoppedTypingPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
	UserID    uuid.UUID `json:"user_id"`
}

type UserStatusChangedPayload struct {
	UserID        uuid.UUID  `json:"user_id"`
	Status        UserStatus `json:"status"`
	StatusMessage *string    `json:"status_message"`
}

type UserJoinedChannelPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
	User      User      `json:"user"`
}

type UserLeftChannelPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
	UserID    uuid.UUID `json:"user_id"`
}

type CallStartedPayload struct {
	Call Call `json:"call"`
}

type CallEndedPayload struct {
	CallID uuid.UUID `json:"call_id"`
}

type ParticipantJoinedPayload struct {
	CallID      uuid.UUID       `json:"call_id"`
	Participant CallParticipant `json:"participant"`
}

type ParticipantLeftPayload struct {
	CallID uuid.UUID `json:"call_id"`
	UserID uuid.UUID `json:"user_id"`
}

type NotificationPayload struct {
	Notification Notification `json:"notification"`
}

// Error frame codes.
const (
	CodeAuthFailed       = "AUTH_FAILED"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
)
