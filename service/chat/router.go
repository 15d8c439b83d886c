package chat

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"parley/logger"
)

// Directory is what the router needs from the membership/message store.
// Implemented by module/chat/service.Repo.
type Directory interface {
	// GroupMembers resolves a group's current member list; errors abort only
	// the fan-out that asked.
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
	// MarkMessageRead persists a read receipt at most once per
	// (message, reader) pair. It reports the message's sender, so the live
	// notification can be targeted, and whether this call newly marked it.
	MarkMessageRead(ctx context.Context, messageID, readerID string) (senderID string, newly bool, err error)
}

// Router resolves domain events to live connections and dispatches. Targets
// that are not in the registry are skipped silently; the receiver catches up
// from the store on its next fetch.
type Router struct {
	reg *Registry
	dir Directory
}

func NewRouter(reg *Registry, dir Directory) *Router {
	return &Router{reg: reg, dir: dir}
}

// Notify is the single entry point for both the REST layer and inbound
// socket events. The returned error covers membership resolution and receipt
// persistence only; an unreachable target is not an error.
func (r *Router) Notify(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case NewMessage:
		if e.Msg.IsGroup() {
			return r.fanout(ctx, e.Msg.GroupID, e.Msg.SenderID, EventNewGroupMessage, e.Msg)
		}
		r.sendTo(e.Msg.ReceiverID, EventNewMessage, e.Msg)
		return nil

	case TypingStart:
		if e.GroupID != "" {
			return r.fanout(ctx, e.GroupID, e.SenderID, EventGroupTyping, typingNotice{SenderID: e.SenderID, GroupID: e.GroupID})
		}
		r.sendTo(e.ReceiverID, EventTyping, typingNotice{SenderID: e.SenderID})
		return nil

	case TypingStop:
		if e.GroupID != "" {
			return r.fanout(ctx, e.GroupID, e.SenderID, EventStopGroupTyping, typingNotice{SenderID: e.SenderID, GroupID: e.GroupID})
		}
		r.sendTo(e.ReceiverID, EventStopTyping, typingNotice{SenderID: e.SenderID})
		return nil

	case ReadReceipt:
		senderID, newly, err := r.dir.MarkMessageRead(ctx, e.MessageID, e.ReaderID)
		if err != nil {
			return err
		}
		if !newly {
			// Already read: no second persisted entry, no second notification.
			return nil
		}
		r.sendTo(senderID, EventMessageRead, readNotice{MessageID: e.MessageID, ReaderID: e.ReaderID})
		return nil

	case PresenceSnapshot:
		r.broadcast(EventGetOnlineUsers, e.Online)
		return nil
	}
	return nil
}

// BroadcastPresence pushes the current online set to every live connection.
func (r *Router) BroadcastPresence() {
	_ = r.Notify(context.Background(), PresenceSnapshot{Online: r.reg.Snapshot()})
}

// fanout delivers one event to every current group member except the sender.
// Membership is snapshotted once; registry changes mid-loop only affect
// whether an individual member is reachable, never the target set.
func (r *Router) fanout(ctx context.Context, groupID, senderID, event string, data interface{}) error {
	members, err := r.dir.GroupMembers(ctx, groupID)
	if err != nil {
		logger.Warnf("[router] fan-out aborted group=%s err=%v", groupID, err)
		return err
	}
	targets := lo.Without(lo.Uniq(members), senderID)

	payload, err := encodeFrame(event, data)
	if err != nil {
		logger.Error("[router] encode failed", zap.String("event", event), zap.Error(err))
		return err
	}
	for _, uid := range targets {
		r.dispatch(uid, payload)
	}
	return nil
}

func (r *Router) sendTo(userID, event string, data interface{}) {
	payload, err := encodeFrame(event, data)
	if err != nil {
		logger.Error("[router] encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	r.dispatch(userID, payload)
}

func (r *Router) dispatch(userID string, payload []byte) {
	c, ok := r.reg.Lookup(userID)
	if !ok {
		// Offline: the message waits in the store.
		return
	}
	if !c.deliver(payload) {
		logger.Debug("[router] dropped delivery", zap.String("user", userID), zap.String("conn", c.ConnID))
	}
}

func (r *Router) broadcast(event string, data interface{}) {
	payload, err := encodeFrame(event, data)
	if err != nil {
		logger.Error("[router] encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	for _, c := range r.reg.Clients() {
		c.deliver(payload)
	}
}
