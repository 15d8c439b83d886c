package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one chat message, direct or group. Exactly one of ReceiverID and
// GroupID is set. ReadBy is the read-receipt set keyed by reader user id.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID   string             `bson:"senderId" json:"senderId"`
	ReceiverID string             `bson:"receiverId,omitempty" json:"receiverId,omitempty"`
	GroupID    string             `bson:"groupId,omitempty" json:"groupId,omitempty"`
	Text       string             `bson:"text" json:"text"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	ReadBy     []string           `bson:"readBy,omitempty" json:"readBy,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsGroup reports whether the message is addressed to a group.
func (m *Message) IsGroup() bool { return m.GroupID != "" }
