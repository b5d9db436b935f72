// Package session drives the per-connection protocol state machine:
// Unauthenticated -> Authenticated -> Closed. Frames arrive strictly one at a
// time from the transport read pump; only the close path can run on another
// goroutine, so the small amount of shared state sits behind a mutex.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/auth"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/directory"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/hub"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/metrics"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/protocol"
	"github.com/jesus-bazan-entel/ApoloTeams/pkg/transport"
)

// Collaborators are the external services the session delegates to.
type Collaborators struct {
	Verifier auth.Verifier
	Users    directory.Users
	Channels directory.Channels
	Messages directory.Messages
}

// Session owns one live connection's protocol handling. It translates
// inbound frames into hub mutations and collaborator calls, and tears
// everything down exactly once when the transport closes.
type Session struct {
	conn   *transport.Connection
	hub    *hub.Hub
	collab Collaborators
	logger *slog.Logger

	mu            sync.Mutex
	authenticated bool
	userID        uuid.UUID
	outbox        *hub.Outbox
}

// New wires a session to its connection. The connection's handlers are set
// here; the caller just runs the connection afterwards.
func New(conn *transport.Connection, h *hub.Hub, collab Collaborators, logger *slog.Logger) *Session {
	s := &Session{
		conn:   conn,
		hub:    h,
		collab: collab,
		logger: logger.With(slog.String("component", "session"), slog.String("connID", conn.ID().String())),
	}
	conn.SetFrameHandler(s.handleFrame)
	conn.SetCloseHandler(s.handleClose)
	return s
}

// reply sends a frame directly on this connection, bypassing the hub. Used
// for handshake responses that must reach this transport even before a user
// identity exists.
func (s *Session) reply(frameType string, payload any) {
	frame, err := protocol.Encode(frameType, payload)
	if err != nil {
		s.logger.Error("failed to encode reply frame", slog.String("type", frameType), slog.Any("error", err))
		return
	}
	s.conn.Send(frame)
}

func (s *Session) identity() (uuid.UUID, *hub.Outbox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.outbox, s.authenticated
}

// handleFrame processes one inbound frame. Nothing here ever terminates the
// connection: malformed frames are logged and ignored, collaborator failures
// suppress only the operation that needed them.
func (s *Session) handleFrame(ctx context.Context, data []byte) {
	// Clients send a bare "ping" text heartbeat; it is not a protocol frame.
	if string(data) == "ping" {
		return
	}

	frame, err := protocol.DecodeClientFrame(data)
	if err != nil {
		s.logger.Warn("ignoring malformed frame", slog.Any("error", err))
		return
	}

	if authFrame, ok := frame.(protocol.Authenticate); ok {
		metrics.FramesReceived.WithLabelValues(protocol.TypeAuthenticate).Inc()
		s.handleAuthenticate(ctx, authFrame)
		return
	}

	userID, _, authenticated := s.identity()
	if !authenticated {
		s.logger.Warn("frame from unauthenticated connection rejected")
		s.reply(protocol.TypeError, protocol.ErrorPayload{
			Code:    protocol.CodeNotAuthenticated,
			Message: "authenticate first",
		})
		return
	}

	switch f := frame.(type) {
	case protocol.Authenticate:
		// Handled above; kept so the switch stays exhaustive.
	case protocol.JoinChannel:
		metrics.FramesReceived.WithLabelValues(protocol.TypeJoinChannel).Inc()
		s.handleJoinChannel(ctx, userID, f)
	case protocol.LeaveChannel:
		metrics.FramesReceived.WithLabelValues(protocol.TypeLeaveChannel).Inc()
		s.handleLeaveChannel(userID, f)
	case protocol.SendMessage:
		metrics.FramesReceived.WithLabelValues(protocol.TypeSendMessage).Inc()
		s.handleSendMessage(ctx, userID, f)
	case protocol.StartTyping:
		metrics.FramesReceived.WithLabelValues(protocol.TypeStartTyping).Inc()
		s.handleStartTyping(ctx, userID, f)
	case protocol.StopTyping:
		metrics.FramesReceived.WithLabelValues(protocol.TypeStopTyping).Inc()
		s.hub.BroadcastToChannel(f.ChannelID, protocol.TypeUserStoppedTyping,
			protocol.UserStoppedTypingPayload{ChannelID: f.ChannelID, UserID: userID}, &userID)
	case protocol.UpdateStatus:
		metrics.FramesReceived.WithLabelValues(protocol.TypeUpdateStatus).Inc()
		s.handleUpdateStatus(ctx, userID, f)
	case protocol.JoinCall:
		metrics.FramesReceived.WithLabelValues(protocol.TypeJoinCall).Inc()
		s.hub.SubscribeCall(f.CallID, userID)
		s.logger.Debug("user joined call signaling", slog.String("callID", f.CallID.String()))
	case protocol.LeaveCall:
		metrics.FramesReceived.WithLabelValues(protocol.TypeLeaveCall).Inc()
		s.hub.UnsubscribeCall(f.CallID, userID)
		s.hub.BroadcastToCall(f.CallID, protocol.TypeParticipantLeft,
			protocol.ParticipantLeftPayload{CallID: f.CallID, UserID: userID}, &userID)
	case protocol.WebRTCOffer:
		metrics.FramesReceived.WithLabelValues(protocol.TypeWebRTCOffer).Inc()
		// The sender field is always overwritten with the authenticated
		// user; a client cannot spoof signaling on someone else's behalf.
		f.FromUserID = userID
		s.hub.BroadcastToCall(f.CallID, protocol.TypeWebRTCOffer, f, &userID)
	case protocol.WebRTCAnswer:
		metrics.FramesReceived.WithLabelValues(protocol.TypeWebRTCAnswer).Inc()
		f.FromUserID = userID
		s.hub.BroadcastToCall(f.CallID, protocol.TypeWebRTCAnswer, f, &userID)
	case protocol.WebRTCIceCandidate:
		metrics.FramesReceived.WithLabelValues(protocol.TypeWebRTCIceCandidate).Inc()
		f.FromUserID = userID
		s.hub.BroadcastToCall(f.CallID, protocol.TypeWebRTCIceCandidate, f, &userID)
	}
}

func (s *Session) handleAuthenticate(ctx context.Context, frame protocol.Authenticate) {
	userID, err := s.collab.Verifier.VerifyToken(frame.Token)
	if err != nil {
		s.logger.Warn("authentication failed", slog.Any("error", err))
		s.reply(protocol.TypeError, protocol.ErrorPayload{
			Code:    protocol.CodeAuthFailed,
			Message: err.Error(),
		})
		return
	}

	outbox := s.hub.Register(userID)

	s.mu.Lock()
	s.authenticated = true
	s.userID = userID
	s.outbox = outbox
	s.mu.Unlock()

	s.logger.Info("connection authenticated", slog.String("userID", userID.String()))

	if user, err := s.collab.Users.Get(ctx, userID); err == nil {
		s.reply(protocol.TypeAuthenticated, protocol.AuthenticatedPayload{User: user})
	} else {
		s.logger.Warn("failed to resolve user profile", slog.Any("error", err))
	}

	go s.forward(outbox)
}

// forward drains the user's outbox into the transport. Lag means frames were
// dropped, not that the connection is broken; only outbox closure ends the
// loop.
func (s *Session) forward(outbox *hub.Outbox) {
	for {
		frame, lagged, ok := outbox.Recv(context.Background())
		if !ok {
			s.logger.Debug("delivery handle closed, forwarding stopped")
			return
		}
		if lagged > 0 {
			metrics.DroppedFrames.Add(float64(lagged))
			s.logger.Warn("consumer lagged, dropped oldest frames", slog.Uint64("dropped", lagged))
		}
		s.conn.Send(frame)
	}
}

func (s *Session) handleJoinChannel(ctx context.Context, userID uuid.UUID, frame protocol.JoinChannel) {
	member, err := s.collab.Channels.IsMember(ctx, frame.ChannelID, userID)
	if err != nil {
		s.logger.Warn("membership check failed", slog.String("channelID", frame.ChannelID.String()), slog.Any("error", err))
		return
	}
	if !member {
		s.logger.Warn("join refused: not a channel member", slog.String("channelID", frame.ChannelID.String()))
		return
	}

	s.hub.SubscribeChannel(frame.ChannelID, userID)
	s.logger.Debug("user subscribed to channel", slog.String("channelID", frame.ChannelID.String()))

	if user, err := s.collab.Users.Get(ctx, userID); err == nil {
		s.hub.BroadcastToChannel(frame.ChannelID, protocol.TypeUserJoinedChannel,
			protocol.UserJoinedChannelPayload{ChannelID: frame.ChannelID, User: user}, &userID)
	}
}

func (s *Session) handleLeaveChannel(userID uuid.UUID, frame protocol.LeaveChannel) {
	s.hub.UnsubscribeChannel(frame.ChannelID, userID)
	s.hub.BroadcastToChannel(frame.ChannelID, protocol.TypeUserLeftChannel,
		protocol.UserLeftChannelPayload{ChannelID: frame.ChannelID, UserID: userID}, &userID)
}

func (s *Session) handleSendMessage(ctx context.Context, userID uuid.UUID, frame protocol.SendMessage) {
	message, err := s.collab.Messages.Send(ctx, frame.ChannelID, userID, frame.Content, frame.ReplyToID)
	if err != nil {
		// Persistence failure suppresses the broadcast; the connection lives on.
		s.logger.Warn("message persistence failed", slog.String("channelID", frame.ChannelID.String()), slog.Any("error", err))
		return
	}
	// The sender is not excluded: the echoed NewMessage doubles as the
	// delivery acknowledgment.
	s.hub.BroadcastToChannel(frame.ChannelID, protocol.TypeNewMessage,
		protocol.NewMessagePayload{Message: message}, nil)
}

func (s *Session) handleStartTyping(ctx context.Context, userID uuid.UUID, frame protocol.StartTyping) {
	user, err := s.collab.Users.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to resolve user profile", slog.Any("error", err))
		return
	}
	s.hub.BroadcastToChannel(frame.ChannelID, protocol.TypeUserTyping,
		protocol.UserTypingPayload{ChannelID: frame.ChannelID, User: user}, &userID)
}

func (s *Session) handleUpdateStatus(ctx context.Context, userID uuid.UUID, frame protocol.UpdateStatus) {
	if !frame.Status.Valid() {
		s.logger.Warn("ignoring status update with unknown status", slog.String("status", string(frame.Status)))
		return
	}
	// Persisting is best-effort; the volatile presence update and the
	// broadcast happen regardless.
	if err := s.collab.Users.UpdateStatus(ctx, userID, frame.Status, frame.StatusMessage); err != nil {
		s.logger.Warn("failed to persist status", slog.Any("error", err))
	}
	s.hub.SetStatus(userID, frame.Status)
	s.hub.BroadcastToAll(protocol.TypeUserStatusChanged,
		protocol.UserStatusChangedPayload{UserID: userID, Status: frame.Status, StatusMessage: frame.StatusMessage}, &userID)
}

// handleClose runs once when the transport goes away. A session whose handle
// was already replaced by a newer login must not touch the replacement's
// state, so everything is gated on still holding the registered handle.
func (s *Session) handleClose(err error) {
	userID, outbox, authenticated := s.identity()
	if !authenticated {
		return
	}
	if !s.hub.IsCurrent(userID, outbox) {
		s.logger.Debug("session superseded by newer login, skipping cleanup",
			slog.String("userID", userID.String()))
		return
	}

	s.hub.RemoveUserEverywhere(userID)
	s.hub.Deregister(userID, outbox)

	if err := s.collab.Users.UpdateStatus(context.Background(), userID, protocol.StatusOffline, nil); err != nil {
		s.logger.Warn("failed to persist offline status", slog.Any("error", err))
	}

	s.hub.BroadcastToAll(protocol.TypeUserStatusChanged,
		protocol.UserStatusChangedPayload{UserID: userID, Status: protocol.StatusOffline}, &userID)

	s.logger.Info("session closed", slog.String("userID", userID.String()), slog.Any("reason", err))
}
