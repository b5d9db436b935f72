// Package protocol defines the wire format spoken over the real-time socket:
// a tagged envelope {"type": <variant>, "payload": {...}} with PascalCase
// variant names and snake_case payload fields.
package protocol

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is a user's advertised availability.
type UserStatus string

const (
	StatusOnline       UserStatus = "online"
	StatusAway         UserStatus = "away"
	StatusBusy         UserStatus = "busy"
	StatusDoNotDisturb UserStatus = "do_not_disturb"
	StatusOffline      UserStatus = "offline"
)

func (s UserStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusDoNotDisturb, StatusOffline:
		return true
	}
	return false
}

// User is the profile record relayed to clients. It is built by the
// persistence layer; the hub never mutates it.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	DisplayName   string     `json:"display_name"`
	AvatarURL     *string    `json:"avatar_url"`
	Status        UserStatus `json:"status"`
	StatusMessage *string    `json:"status_message"`
	LastSeen      *time.Time `json:"last_seen"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Message is a durable message record as returned by the persistence layer.
type Message struct {
	ID          uuid.UUID  `json:"id"`
	ChannelID   uuid.UUID  `json:"channel_id"`
	Sender      User       `json:"sender"`
	Content     string     `json:"content"`
	MessageType string     `json:"message_type"`
	ReplyTo     *Message   `json:"reply_to"`
	Edited      bool       `json:"edited"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CallParticipant is one durable participant of a call.
type CallParticipant struct {
	User           User      `json:"user"`
	JoinedAt       time.Time `json:"joined_at"`
	IsMuted        bool      `json:"is_muted"`
	IsVideoEnabled bool      `json:"is_video_enabled"`
}

// Call is a durable call record.
type Call struct {
	ID           uuid.UUID         `json:"id"`
	ChannelID    uuid.UUID         `json:"channel_id"`
	Initiator    User              `json:"initiator"`
	CallType     string            `json:"call_type"`
	Status       string            `json:"status"`
	Participants []CallParticipant `json:"participants"`
	StartedAt    time.Time         `json:"started_at"`
	EndedAt      *time.Time        `json:"ended_at"`
}

// Notification is a durable notification record.
type Notification struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	NotificationType string     `json:"notification_type"`
	ReferenceID      *uuid.UUID `json:"reference_id"`
	Read             bool       `json:"read"`
	CreatedAt        time.Time  `json:"created_at"`
}
