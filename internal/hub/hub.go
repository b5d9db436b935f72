// Package hub keeps the process-wide registry of connected users and routes
// real-time frames to dynamically-changing subscriber sets. All state here is
// volatile; nothing survives a restart.
package hub

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/directory"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/metrics"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/protocol"
)

// Hub owns the connection registry, presence, and the channel and call
// subscription tables, and fans frames out to them. Delivery is best-effort:
// a missing recipient or a lagging consumer is never an error.
type Hub struct {
	registry *Registry
	presence *Presence
	channels *SubscriptionTable
	calls    *SubscriptionTable

	// directory resolves durable channel membership for call-lifecycle
	// notices, which must reach members who don't have the channel open.
	directory directory.Channels

	logger *slog.Logger
}

func New(sendBuffer int, channelDir directory.Channels, logger *slog.Logger) *Hub {
	return &Hub{
		registry:  NewRegistry(sendBuffer, logger),
		presence:  NewPresence(),
		channels:  NewSubscriptionTable(),
		calls:     NewSubscriptionTable(),
		directory: channelDir,
		logger:    logger.With(slog.String("component", "hub")),
	}
}

// Register creates a delivery handle for the user and marks them online.
func (h *Hub) Register(userID uuid.UUID) *Outbox {
	outbox := h.registry.Register(userID)
	h.presence.Set(userID, protocol.StatusOnline)
	return outbox
}

// Deregister tears down the user's handle if it is still the given one, and
// marks the user offline. Safe to call for users who were never registered.
func (h *Hub) Deregister(userID uuid.UUID, handle *Outbox) bool {
	removed := h.registry.Deregister(userID, handle)
	if removed {
		h.presence.Set(userID, protocol.StatusOffline)
	}
	return removed
}

// IsCurrent reports whether the handle is still the user's registered one.
func (h *Hub) IsCurrent(userID uuid.UUID, handle *Outbox) bool {
	return h.registry.Current(userID, handle)
}

func (h *Hub) SetStatus(userID uuid.UUID, status protocol.UserStatus) {
	h.presence.Set(userID, status)
}

func (h *Hub) Status(userID uuid.UUID) protocol.UserStatus {
	return h.presence.Get(userID)
}

func (h *Hub) SubscribeChannel(channelID, userID uuid.UUID)   { h.channels.Subscribe(channelID, userID) }
func (h *Hub) UnsubscribeChannel(channelID, userID uuid.UUID) { h.channels.Unsubscribe(channelID, userID) }
func (h *Hub) ChannelSubscribers(channelID uuid.UUID) []uuid.UUID {
	return h.channels.Members(channelID)
}

func (h *Hub) SubscribeCall(callID, userID uuid.UUID)   { h.calls.Subscribe(callID, userID) }
func (h *Hub) UnsubscribeCall(callID, userID uuid.UUID) { h.calls.Unsubscribe(callID, userID) }
func (h *Hub) CallSubscribers(callID uuid.UUID) []uuid.UUID {
	return h.calls.Members(callID)
}

// RemoveUserEverywhere clears the user from both subscription tables. Called
// exactly once per disconnect, after inbound frames have stopped.
func (h *Hub) RemoveUserEverywhere(userID uuid.UUID) {
	h.channels.RemoveUserEverywhere(userID)
	h.calls.RemoveUserEverywhere(userID)
}

// RemoveCallScope drops an ended call's subscriber set entirely.
func (h *Hub) RemoveCallScope(callID uuid.UUID) {
	h.calls.RemoveScope(callID)
}

// SendToUser delivers one frame directly. Not connected is a no-op.
func (h *Hub) SendToUser(userID uuid.UUID, frameType string, payload any) {
	frame, err := protocol.Encode(frameType, payload)
	if err != nil {
		h.logger.Warn("failed to encode frame", slog.String("type", frameType), slog.Any("error", err))
		return
	}
	metrics.BroadcastsSent.WithLabelValues("user").Inc()
	h.deliver(userID, frame)
}

// BroadcastToChannel fans a frame out to the channel's live subscribers,
// optionally excluding one user. The payload is serialized once.
func (h *Hub) BroadcastToChannel(channelID uuid.UUID, frameType string, payload any, exclude *uuid.UUID) {
	h.broadcast(h.channels.Members(channelID), "channel", frameType, payload, exclude)
}

// BroadcastToCall fans a frame out to the call's live subscribers.
func (h *Hub) BroadcastToCall(callID uuid.UUID, frameType string, payload any, exclude *uuid.UUID) {
	h.broadcast(h.calls.Members(callID), "call", frameType, payload, exclude)
}

// BroadcastToAll fans a frame out to every connected user.
func (h *Hub) BroadcastToAll(frameType string, payload any, exclude *uuid.UUID) {
	frame, err := protocol.Encode(frameType, payload)
	if err != nil {
		h.logger.Warn("failed to encode frame", slog.String("type", frameType), slog.Any("error", err))
		return
	}
	metrics.BroadcastsSent.WithLabelValues("all").Inc()

	for userID, outbox := range h.registry.Snapshot() {
		if exclude != nil && *exclude == userID {
			continue
		}
		outbox.Push(frame)
	}
}

func (h *Hub) broadcast(members []uuid.UUID, scope, frameType string, payload any, exclude *uuid.UUID) {
	if len(members) == 0 {
		h.logger.Debug("broadcast with no subscribers", slog.String("type", frameType))
		return
	}
	frame, err := protocol.Encode(frameType, payload)
	if err != nil {
		h.logger.Warn("failed to encode frame", slog.String("type", frameType), slog.Any("error", err))
		return
	}
	metrics.BroadcastsSent.WithLabelValues(scope).Inc()

	sent, missed := 0, 0
	for _, userID := range members {
		if exclude != nil && *exclude == userID {
			continue
		}
		if h.deliver(userID, frame) {
			sent++
		} else {
			missed++
		}
	}
	h.logger.Debug("broadcast complete",
		slog.String("type", frameType),
		slog.Int("subscribers", len(members)),
		slog.Int("sent", sent),
		slog.Int("missed", missed),
	)
}

// deliver pushes an encoded frame to one user's outbox. A user without a
// handle, or with a closed one, is a delivery miss, not an error.
func (h *Hub) deliver(userID uuid.UUID, frame []byte) bool {
	outbox, ok := h.registry.Get(userID)
	if !ok {
		h.logger.Debug("delivery miss: user not connected", slog.String("userID", userID.String()))
		return false
	}
	return outbox.Push(frame)
}

// NotifyCallStarted announces a new call to every durable member of its
// channel. The live subscriber set is deliberately not used: an
// about-to-be-called member may not have the channel open.
func (h *Hub) NotifyCallStarted(ctx context.Context, call protocol.Call) error {
	members, err := h.directory.Members(ctx, call.ChannelID)
	if err != nil {
		return err
	}
	payload := protocol.CallStartedPayload{Call: call}
	for _, userID := range members {
		h.SendToUser(userID, protocol.TypeCallStarted, payload)
	}
	return nil
}

// NotifyCallEnded announces the end of a call to the channel's durable
// members and drops the call's subscription scope.
func (h *Hub) NotifyCallEnded(ctx context.Context, channelID, callID uuid.UUID) error {
	members, err := h.directory.Members(ctx, channelID)
	if err != nil {
		return err
	}
	payload := protocol.CallEndedPayload{CallID: callID}
	for _, userID := range members {
		h.SendToUser(userID, protocol.TypeCallEnded, payload)
	}
	h.RemoveCallScope(callID)
	return nil
}

// NotifyParticipantJoined announces a durable call join to the channel's
// durable members.
func (h *Hub) NotifyParticipantJoined(ctx context.Context, channelID, callID uuid.UUID, participant protocol.CallParticipant) error {
	members, err := h.directory.Members(ctx, channelID)
	if err != nil {
		return err
	}
	payload := protocol.ParticipantJoinedPayload{CallID: callID, Participant: participant}
	for _, userID := range members {
		h.SendToUser(userID, protocol.TypeParticipantJoined, payload)
	}
	return nil
}

// NotifyMessageUpdated relays an edited message to the channel's live
// subscribers. Unlike call notices, edits only matter to users who have the
// channel open right now.
func (h *Hub) NotifyMessageUpdated(channelID uuid.UUID, message protocol.Message) {
	h.BroadcastToChannel(channelID, protocol.TypeMessageUpdated,
		protocol.MessageUpdatedPayload{Message: message}, nil)
}

// NotifyMessageDeleted relays a message deletion to the channel's live
// subscribers.
func (h *Hub) NotifyMessageDeleted(channelID, messageID uuid.UUID) {
	h.BroadcastToChannel(channelID, protocol.TypeMessageDeleted,
		protocol.MessageDeletedPayload{ChannelID: channelID, MessageID: messageID}, nil)
}

// NotifyUser delivers a notification record to one user.
func (h *Hub) NotifyUser(userID uuid.UUID, notification protocol.Notification) {
	h.SendToUser(userID, protocol.TypeNotification, protocol.NotificationPayload{Notification: notification})
}

// ConnectedUsers returns the number of users with a live handle.
func (h *Hub) ConnectedUsers() int {
	return h.registry.Len()
}
