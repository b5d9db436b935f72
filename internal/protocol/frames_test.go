package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientFrameVariants(t *testing.T) {
	channelID := uuid.New()
	callID := uuid.New()

	tests := []struct {
		name string
		raw  string
		want ClientFrame
	}{
		{
			name: "authenticate",
			raw:  `{"type":"Authenticate","payload":{"token":"abc.def.ghi"}}`,
			want: Authenticate{Token: "abc.def.ghi"},
		},
		{
			name: "join channel",
			raw:  `{"type":"JoinChannel","payload":{"channel_id":"` + channelID.String() + `"}}`,
			want: JoinChannel{ChannelID: channelID},
		},
		{
			name: "send message without reply",
			raw:  `{"type":"SendMessage","payload":{"channel_id":"` + channelID.String() + `","content":"hi"}}`,
			want: SendMessage{ChannelID: channelID, Content: "hi"},
		},
		{
			name: "update status",
			raw:  `{"type":"UpdateStatus","payload":{"status":"do_not_disturb"}}`,
			want: UpdateStatus{Status: StatusDoNotDisturb},
		},
		{
			name: "webrtc offer carries client-supplied sender",
			raw:  `{"type":"WebRTCOffer","payload":{"call_id":"` + callID.String() + `","from_user_id":"` + uuid.Nil.String() + `","sdp":"v=0..."}}`,
			want: WebRTCOffer{CallID: callID, FromUserID: uuid.Nil, SDP: "v=0..."},
		},
		{
			name: "leave call",
			raw:  `{"type":"LeaveCall","payload":{"call_id":"` + callID.String() + `"}}`,
			want: LeaveCall{CallID: callID},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := DecodeClientFrame([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, frame)
		})
	}
}

func TestDecodeClientFrameRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `ping`},
		{"missing type", `{"payload":{}}`},
		{"unknown type", `{"type":"SelfDestruct","payload":{}}`},
		{"server-only type", `{"type":"NewMessage","payload":{}}`},
		{"payload type mismatch", `{"type":"JoinChannel","payload":{"channel_id":42}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeClientFrame([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestDecodeClientFrameUnknownTypeSentinel(t *testing.T) {
	_, err := DecodeClientFrame([]byte(`{"type":"Bogus"}`))
	assert.ErrorIs(t, err, ErrUnknownFrameType)
}

func TestEncodeProducesTaggedEnvelope(t *testing.T) {
	userID := uuid.New()
	frame, err := Encode(TypeUserLeftChannel, UserLeftChannelPayload{
		ChannelID: uuid.Nil,
		UserID:    userID,
	})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, TypeUserLeftChannel, env.Type)

	var payload UserLeftChannelPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, userID, payload.UserID)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := SendMessage{ChannelID: uuid.New(), Content: "hello"}
	frame, err := Encode(TypeSendMessage, original)
	require.NoError(t, err)

	decoded, err := DecodeClientFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestUserStatusValid(t *testing.T) {
	for _, status := range []UserStatus{StatusOnline, StatusAway, StatusBusy, StatusDoNotDisturb, StatusOffline} {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, UserStatus("invisible").Valid())
	assert.False(t, UserStatus("").Valid())
}
