package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Frame type names, as they appear in the envelope's "type" field.
const (
	TypeAuthenticate = "Authenticate"
	TypeJoinChannel  = "JoinChannel"
	TypeLeaveChannel = "LeaveChannel"
	TypeSendMessage  = "SendMessage"
	TypeStartTyping  = "StartTyping"
	TypeStopTyping   = "StopTyping"
	TypeUpdateStatus = "UpdateStatus"
	TypeJoinCall     = "JoinCall"
	TypeLeaveCall    = "LeaveCall"

	TypeAuthenticated     = "Authenticated"
	TypeError             = "Error"
	TypeNewMessage        = "NewMessage"
	TypeMessageUpdated    = "MessageUpdated"
	TypeMessageDeleted    = "MessageDeleted"
	TypeUserTyping        = "UserTyping"
	TypeUserStoppedTyping = "UserStoppedTyping"
	TypeUserStatusChanged = "UserStatusChanged"
	TypeUserJoinedChannel = "UserJoinedChannel"
	TypeUserLeftChannel   = "UserLeftChannel"
	TypeCallStarted       = "CallStarted"
	TypeCallEnded         = "CallEnded"
	TypeParticipantJoined = "ParticipantJoined"
	TypeParticipantLeft   = "ParticipantLeft"
	TypeNotification      = "Notification"

	TypeWebRTCOffer        = "WebRTCOffer"
	TypeWebRTCAnswer       = "WebRTCAnswer"
	TypeWebRTCIceCandidate = "WebRTCIceCandidate"
)

var ErrUnknownFrameType = errors.New("unknown frame type")

// Envelope is the outer wire structure of every frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ClientFrame is the closed union of frames a client may send. Every variant
// is a struct below; call sites switch exhaustively over the concrete types.
type ClientFrame interface {
	clientFrame()
}

type Authenticate struct {
	Token string `json:"token"`
}

type JoinChannel struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

type LeaveChannel struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

type SendMessage struct {
	ChannelID uuid.UUID  `json:"channel_id"`
	Content   string     `json:"content"`
	ReplyToID *uuid.UUID `json:"reply_to_id"`
}

type StartTyping struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

type StopTyping struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

type UpdateStatus struct {
	Status        UserStatus `json:"status"`
	StatusMessage *string    `json:"status_message"`
}

type JoinCall struct {
	CallID uuid.UUID `json:"call_id"`
}

type LeaveCall struct {
	CallID uuid.UUID `json:"call_id"`
}

// WebRTCOffer is both a client and a server frame; the hub re-stamps
// FromUserID with the authenticated sender before relaying.
type WebRTCOffer struct {
	CallID     uuid.UUID `json:"call_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	SDP        string    `json:"sdp"`
}

type WebRTCAnswer struct {
	CallID     uuid.UUID `json:"call_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	SDP        string    `json:"sdp"`
}

type WebRTCIceCandidate struct {
	CallID     uuid.UUID `json:"call_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	Candidate  string    `json:"candidate"`
}

func (Authenticate) clientFrame()       {}
func (JoinChannel) clientFrame()        {}
func (LeaveChannel) clientFrame()       {}
func (SendMessage) clientFrame()        {}
func (StartTyping) clientFrame()        {}
func (StopTyping) clientFrame()         {}
func (UpdateStatus) clientFrame()       {}
func (JoinCall) clientFrame()           {}
func (LeaveCall) clientFrame()          {}
func (WebRTCOffer) clientFrame()        {}
func (WebRTCAnswer) clientFrame()       {}
func (WebRTCIceCandidate) clientFrame() {}

// DecodeClientFrame parses an inbound frame into its concrete variant. The
// "type" field is sniffed first so an unknown variant is rejected without
// touching the payload.
func DecodeClientFrame(data []byte) (ClientFrame, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("frame is not valid JSON")
	}

	frameType := gjson.GetBytes(data, "type")
	if !frameType.Exists() {
		return nil, errors.New("frame is missing a type field")
	}

	payload := []byte(gjson.GetBytes(data, "payload").Raw)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	switch frameType.String() {
	case TypeAuthenticate:
		return decodePayload[Authenticate](payload)
	case TypeJoinChannel:
		return decodePayload[JoinChannel](payload)
	case TypeLeaveChannel:
		return decodePayload[LeaveChannel](payload)
	case TypeSendMessage:
		return decodePayload[SendMessage](payload)
	case TypeStartTyping:
		return decodePayload[StartTyping](payload)
	case TypeStopTyping:
		return decodePayload[StopTyping](payload)
	case TypeUpdateStatus:
		return decodePayload[UpdateStatus](payload)
	case TypeJoinCall:
		return decodePayload[JoinCall](payload)
	case TypeLeaveCall:
		return decodePayload[LeaveCall](payload)
	case TypeWebRTCOffer:
		return decodePayload[WebRTCOffer](payload)
	case TypeWebRTCAnswer:
		return decodePayload[WebRTCAnswer](payload)
	case TypeWebRTCIceCandidate:
		return decodePayload[WebRTCIceCandidate](payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrameType, frameType.String())
	}
}

func decodePayload[T ClientFrame](payload []byte) (ClientFrame, error) {
	var frame T
	if err := json.Unmarshal(payload, &frame); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return frame, nil
}

// Encode wraps a payload in the envelope and serializes the whole frame.
func Encode(frameType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Envelope{Type: frameType, Payload: raw})
}
