package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"

	data "parley/data/mongo"
	"parley/module/chat/model"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Repo persists messages and groups, and implements the directory contract
// the event router resolves membership and read receipts through.
type Repo struct {
	db *data.Database
}

func NewRepo(db *data.Database) *Repo {
	return &Repo{db: db}
}

// RecordMessage durably stores a message, assigning its id and timestamps.
func (r *Repo) RecordMessage(ctx context.Context, m *model.Message) error {
	now := time.Now()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := r.db.Messages().InsertOne(ctx, m); err != nil {
		return errors.Wrap(err, "insert message")
	}
	return nil
}

// Conversation returns both directions of a two-user thread, oldest first.
func (r *Repo) Conversation(ctx context.Context, userID, otherID string) ([]model.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": userID, "receiverId": otherID},
		bson.M{"senderId": otherID, "receiverId": userID},
	}}
	return r.findMessages(ctx, filter)
}

// GroupMessages returns a group's history, oldest first.
func (r *Repo) GroupMessages(ctx context.Context, groupID string) ([]model.Message, error) {
	return r.findMessages(ctx, bson.M{"groupId": groupID})
}

func (r *Repo) findMessages(ctx context.Context, filter bson.M) ([]model.Message, error) {
	cur, err := r.db.Messages().Find(ctx, filter, mopt.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	defer cur.Close(ctx)

	msgs := make([]model.Message, 0)
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return msgs, nil
}

// CreateGroup stores a group; the creator is always a member.
func (r *Repo) CreateGroup(ctx context.Context, g *model.Group) error {
	if !lo.Contains(g.Members, g.CreatedBy) {
		g.Members = append(g.Members, g.CreatedBy)
	}
	now := time.Now()
	g.ID = primitive.NewObjectID()
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := r.db.Groups().InsertOne(ctx, g); err != nil {
		return errors.Wrap(err, "insert group")
	}
	return nil
}

// GroupsFor lists the groups a user belongs to.
func (r *Repo) GroupsFor(ctx context.Context, userID string) ([]model.Group, error) {
	cur, err := r.db.Groups().Find(ctx, bson.M{"members": userID})
	if err != nil {
		return nil, errors.Wrap(err, "find groups")
	}
	defer cur.Close(ctx)

	groups := make([]model.Group, 0)
	if err := cur.All(ctx, &groups); err != nil {
		return nil, errors.Wrap(err, "decode groups")
	}
	return groups, nil
}

// GroupMembers resolves the current member list. Callers must treat the
// result as a snapshot; edits take effect on the next call.
func (r *Repo) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	oid, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	var g model.Group
	err = r.db.Groups().FindOne(ctx, bson.M{"_id": oid}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find group")
	}
	return g.Members, nil
}

// MarkMessageRead adds the reader to the message's readBy set. It returns the
// message's sender and whether this call newly marked it; marking an already
// read message is a no-op with newly=false.
func (r *Repo) MarkMessageRead(ctx context.Context, messageID, readerID string) (senderID string, newly bool, err error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return "", false, ErrMessageNotFound
	}

	// Return the pre-image so one round trip decides both sender and newness.
	var before model.Message
	err = r.db.Messages().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$addToSet": bson.M{"readBy": readerID},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
		mopt.FindOneAndUpdate().SetReturnDocument(mopt.Before),
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, ErrMessageNotFound
	}
	if err != nil {
		return "", false, errors.Wrap(err, "mark message read")
	}

	return before.SenderID, !lo.Contains(before.ReadBy, readerID), nil
}
