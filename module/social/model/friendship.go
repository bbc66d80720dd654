package model

import (
	"context"
	"net/url"
	"sort"
	"time"

	"CareGene/data/database"
	"CareGene/service/mgo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ database.Table = (*Friendship)(nil)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	// Blocked is terminal: no transition out of it is exposed here.
	FriendshipBlocked FriendshipStatus = "blocked"
)

// Party is an identity snapshot taken when the request was created.
type Party struct {
	ID     string `bson:"id" json:"id"`
	Name   string `bson:"name,omitempty" json:"name,omitempty"`
	Email  string `bson:"email,omitempty" json:"email,omitempty"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// Friendship is a directional request record. PairKey is the sorted id
// pair, so its unique index rejects the reverse-direction duplicate of
// the same relationship as well.
type Friendship struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairKey   string             `bson:"pair_key" json:"-"`
	Requester Party              `bson:"requester" json:"requester"`
	Recipient Party              `bson:"recipient" json:"recipient"`

	Status     FriendshipStatus `bson:"status" json:"status"`
	AcceptedAt *time.Time       `bson:"accepted_at,omitempty" json:"acceptedAt,omitempty"`
	Notes      string           `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (*Friendship) GetTableName() string {
	return "friendship"
}

func (f *Friendship) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(f.GetTableName())
}

const (
	FriendFieldID          = "_id"
	FriendFieldPairKey     = "pair_key"
	FriendFieldRequesterID = "requester.id"
	FriendFieldRecipientID = "recipient.id"
	FriendFieldStatus      = "status"
	FriendFieldAcceptedAt  = "accepted_at"
	FriendFieldUpdatedAt   = "updated_at"
)

// PairKeyFor canonicalizes the unordered relationship. Each id is
// escaped so one containing the delimiter cannot collide with a
// different pair.
func PairKeyFor(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return url.QueryEscape(ids[0]) + ":" + url.QueryEscape(ids[1])
}

func EnsureFriendshipIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: FriendFieldPairKey, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: FriendFieldRequesterID, Value: 1}, {Key: FriendFieldStatus, Value: 1}},
		},
		{
			Keys: bson.D{{Key: FriendFieldRecipientID, Value: 1}, {Key: FriendFieldStatus, Value: 1}},
		},
	})
	return err
}
