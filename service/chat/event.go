package chat

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"parley/module/chat/model"
)

// Wire event names. Clients match on these strings, so they are fixed.
const (
	EventNewMessage      = "newMessage"
	EventNewGroupMessage = "newGroupMessage"
	EventTyping          = "typing"
	EventGroupTyping     = "groupTyping"
	EventStopTyping      = "stopTyping"
	EventStopGroupTyping = "stopGroupTyping"
	EventMessageRead     = "messageRead"
	EventGetOnlineUsers  = "getOnlineUsers"
)

// Event is the closed set of domain events the router dispatches on. Keeping
// the set typed means a new variant fails to compile until the router
// handles it, instead of silently falling through a string switch.
type Event interface {
	isEvent()
}

// NewMessage notifies the recipient(s) of a freshly persisted message. The
// message is addressed to a single user or, when GroupID is set, fanned out
// to the group's current members.
type NewMessage struct {
	Msg *model.Message
}

// TypingStart reports that SenderID started typing, either to one receiver
// or to a group.
type TypingStart struct {
	SenderID   string
	ReceiverID string
	GroupID    string
}

// TypingStop is the counterpart of TypingStart.
type TypingStop struct {
	SenderID   string
	ReceiverID string
	GroupID    string
}

// ReadReceipt records that ReaderID has read MessageID. Deduplicated per
// (message, reader) pair before any side effect.
type ReadReceipt struct {
	MessageID string
	ReaderID  string
}

// PresenceSnapshot carries the full online set, broadcast to every live
// connection on each connect and disconnect.
type PresenceSnapshot struct {
	Online []string
}

func (NewMessage) isEvent()       {}
func (TypingStart) isEvent()      {}
func (TypingStop) isEvent()       {}
func (ReadReceipt) isEvent()      {}
func (PresenceSnapshot) isEvent() {}

// frame is the wire envelope in both directions.
type frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type typingNotice struct {
	SenderID string `json:"senderId"`
	GroupID  string `json:"groupId,omitempty"`
}

type readNotice struct {
	MessageID string `json:"messageId"`
	ReaderID  string `json:"readerId"`
}

func encodeFrame(event string, data interface{}) ([]byte, error) {
	b, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s frame", event)
	}
	return b, nil
}

// ErrMalformedEvent marks an inbound payload that is missing required fields
// or names an unknown event. Such frames are dropped; the session stays up.
var ErrMalformedEvent = errors.New("malformed event")

type inboundFrame struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

type typingPayload struct {
	ReceiverID string `mapstructure:"receiverId"`
	GroupID    string `mapstructure:"groupId"`
}

type readPayload struct {
	MessageID string `mapstructure:"messageId"`
}

// parseInbound turns a raw client frame into a typed event. The sender is
// taken from the session's authenticated identity, never from the payload.
func parseInbound(raw []byte, senderID string) (Event, error) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(ErrMalformedEvent, err.Error())
	}

	switch f.Event {
	case EventTyping, EventStopTyping:
		var p typingPayload
		if err := mapstructure.Decode(f.Data, &p); err != nil || p.ReceiverID == "" {
			return nil, errors.Wrapf(ErrMalformedEvent, "%s requires receiverId", f.Event)
		}
		if f.Event == EventTyping {
			return TypingStart{SenderID: senderID, ReceiverID: p.ReceiverID}, nil
		}
		return TypingStop{SenderID: senderID, ReceiverID: p.ReceiverID}, nil

	case EventGroupTyping, EventStopGroupTyping:
		var p typingPayload
		if err := mapstructure.Decode(f.Data, &p); err != nil || p.GroupID == "" {
			return nil, errors.Wrapf(ErrMalformedEvent, "%s requires groupId", f.Event)
		}
		if f.Event == EventGroupTyping {
			return TypingStart{SenderID: senderID, GroupID: p.GroupID}, nil
		}
		return TypingStop{SenderID: senderID, GroupID: p.GroupID}, nil

	case EventMessageRead:
		var p readPayload
		if err := mapstructure.Decode(f.Data, &p); err != nil || p.MessageID == "" {
			return nil, errors.Wrap(ErrMalformedEvent, "messageRead requires messageId")
		}
		return ReadReceipt{MessageID: p.MessageID, ReaderID: senderID}, nil

	default:
		return nil, errors.Wrapf(ErrMalformedEvent, "unknown event %q", f.Event)
	}
}
