package chat

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrameWireNames(t *testing.T) {
	req := require.New(t)

	b, err := encodeFrame(EventGetOnlineUsers, []string{"u1", "u2"})
	req.NoError(err)

	var f struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	req.NoError(json.Unmarshal(b, &f))
	req.Equal("getOnlineUsers", f.Event)
	req.JSONEq(`["u1","u2"]`, string(f.Data))
}

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "typing",
			raw:  `{"event":"typing","data":{"receiverId":"u2"}}`,
			want: TypingStart{SenderID: "u1", ReceiverID: "u2"},
		},
		{
			name: "stopTyping",
			raw:  `{"event":"stopTyping","data":{"receiverId":"u2"}}`,
			want: TypingStop{SenderID: "u1", ReceiverID: "u2"},
		},
		{
			name: "groupTyping",
			raw:  `{"event":"groupTyping","data":{"groupId":"g1"}}`,
			want: TypingStart{SenderID: "u1", GroupID: "g1"},
		},
		{
			name: "stopGroupTyping",
			raw:  `{"event":"stopGroupTyping","data":{"groupId":"g1"}}`,
			want: TypingStop{SenderID: "u1", GroupID: "g1"},
		},
		{
			name: "messageRead",
			raw:  `{"event":"messageRead","data":{"messageId":"m1"}}`,
			want: ReadReceipt{MessageID: "m1", ReaderID: "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parseInbound([]byte(tt.raw), "u1")
			require.NoError(t, err)
			require.Equal(t, tt.want, ev)
		})
	}
}

func TestParseInboundMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"unknown event", `{"event":"selfDestruct","data":{}}`},
		{"typing without receiver", `{"event":"typing","data":{}}`},
		{"group typing without group", `{"event":"groupTyping","data":{"receiverId":"u2"}}`},
		{"read without message id", `{"event":"messageRead","data":{"readerId":"u2"}}`},
		{"empty frame", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInbound([]byte(tt.raw), "u1")
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrMalformedEvent))
		})
	}
}

func TestParseInboundIgnoresClaimedSender(t *testing.T) {
	req := require.New(t)

	// The payload cannot spoof the sender; identity comes from the session.
	ev, err := parseInbound([]byte(`{"event":"typing","data":{"receiverId":"u2","senderId":"mallory"}}`), "u1")
	req.NoError(err)
	req.Equal(TypingStart{SenderID: "u1", ReceiverID: "u2"}, ev)
}
