package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account master record. Field names mirror the stored documents
// so existing data and clients keep working.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FullName string             `bson:"fullName" json:"fullName"`
	Email    string             `bson:"email" json:"email"`
	// Password holds the bcrypt hash; it never serializes to JSON.
	Password string `bson:"password" json:"-"`
	Avatar   string `bson:"avatar,omitempty" json:"avatar,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
