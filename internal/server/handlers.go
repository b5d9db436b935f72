package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/protocol"
)

// The /internal endpoints are the hub's entry points for events that
// originate outside the socket: the persistence layer calls them after a
// call or notification is created over plain HTTP.

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *App) callStartedHandler(w http.ResponseWriter, r *http.Request) {
	var call protocol.Call
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, "invalid call record", http.StatusBadRequest)
		return
	}
	if err := a.hub.NotifyCallStarted(r.Context(), call); err != nil {
		a.logger.Error("failed to notify call started", slog.Any("error", err))
		http.Error(w, "notify failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type callEndedRequest struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

func (a *App) callEndedHandler(w http.ResponseWriter, r *http.Request) {
	callID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid call id", http.StatusBadRequest)
		return
	}
	var req callEndedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.hub.NotifyCallEnded(r.Context(), req.ChannelID, callID); err != nil {
		a.logger.Error("failed to notify call ended", slog.Any("error", err))
		http.Error(w, "notify failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type participantJoinedRequest struct {
	ChannelID   uuid.UUID                `json:"channel_id"`
	Participant protocol.CallParticipant `json:"participant"`
}

func (a *App) participantJoinedHandler(w http.ResponseWriter, r *http.Request) {
	callID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid call id", http.StatusBadRequest)
		return
	}
	var req participantJoinedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.hub.NotifyParticipantJoined(r.Context(), req.ChannelID, callID, req.Participant); err != nil {
		a.logger.Error("failed to notify participant joined", slog.Any("error", err))
		http.Error(w, "notify failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *App) messageUpdatedHandler(w http.ResponseWriter, r *http.Request) {
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}
	var message protocol.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		http.Error(w, "invalid message record", http.StatusBadRequest)
		return
	}
	a.hub.NotifyMessageUpdated(channelID, message)
	w.WriteHeader(http.StatusAccepted)
}

type messageDeletedRequest struct {
	MessageID uuid.UUID `json:"message_id"`
}

func (a *App) messageDeletedHandler(w http.ResponseWriter, r *http.Request) {
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}
	var req messageDeletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	a.hub.NotifyMessageDeleted(channelID, req.MessageID)
	w.WriteHeader(http.StatusAccepted)
}

func (a *App) notifyUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	var notification protocol.Notification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		http.Error(w, "invalid notification record", http.StatusBadRequest)
		return
	}
	a.hub.NotifyUser(userID, notification)
	w.WriteHeader(http.StatusAccepted)
}
