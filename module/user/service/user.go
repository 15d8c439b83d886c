package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"

	data "parley/data/mongo"
	"parley/module/user/model"
)

var (
	ErrEmailTaken = errors.New("email already in use")
	ErrNotFound   = errors.New("user not found")
)

// Repo is the mongo-backed user repository.
type Repo struct {
	db *data.Database
}

func NewRepo(db *data.Database) *Repo {
	return &Repo{db: db}
}

// Create inserts a new user. Email is stored lowercased and must be unique.
func (r *Repo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(u.Email)

	count, err := r.db.Users().CountDocuments(ctx, bson.M{"email": u.Email})
	if err != nil {
		return errors.Wrap(err, "check existing email")
	}
	if count > 0 {
		return ErrEmailTaken
	}

	now := time.Now()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := r.db.Users().InsertOne(ctx, u); err != nil {
		return errors.Wrap(err, "insert user")
	}
	return nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.Users().FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &u, nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var u model.User
	err = r.db.Users().FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return &u, nil
}

// UpdateAvatar sets the avatar URL and returns the updated user.
func (r *Repo) UpdateAvatar(ctx context.Context, id, avatarURL string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var u model.User
	err = r.db.Users().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"avatar": avatarURL, "updatedAt": time.Now()}},
		mopt.FindOneAndUpdate().SetReturnDocument(mopt.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update avatar")
	}
	return &u, nil
}

// ListExcept returns every user but the caller, for the contacts screen.
func (r *Repo) ListExcept(ctx context.Context, id string) ([]model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	cur, err := r.db.Users().Find(ctx, bson.M{"_id": bson.M{"$ne": oid}})
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer cur.Close(ctx)

	users := make([]model.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}
