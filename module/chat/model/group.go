package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group holds a group's metadata and its member list. Members is ordered;
// membership is always re-read at fan-out time, never cached.
type Group struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Members   []string           `bson:"members" json:"members"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedBy string             `bson:"createdBy" json:"createdBy"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
