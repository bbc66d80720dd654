package model

import (
	"context"
	"time"

	"CareGene/service/mgo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationState is one user's view of one conversation: mute,
// archive and unread bookkeeping. Exactly one document per
// (conversation, owner); mutating it never touches the shared
// conversation document, which is what makes direct-conversation
// mute/archive per-participant.
type ConversationState struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversationId"`
	OwnerID        string             `bson:"owner_id" json:"-"`

	IsMuted    bool      `bson:"is_muted" json:"isMuted"`
	IsArchived bool      `bson:"is_archived" json:"isArchived"`
	Unread     int64     `bson:"unread" json:"unread"`
	LastReadAt time.Time `bson:"last_read_at,omitempty" json:"lastReadAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

func (*ConversationState) GetTableName() string {
	return "conversation_state"
}

func (s *ConversationState) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(s.GetTableName())
}

const (
	StateFieldConversationID = "conversation_id"
	StateFieldOwnerID        = "owner_id"
	StateFieldIsMuted        = "is_muted"
	StateFieldIsArchived     = "is_archived"
	StateFieldUnread         = "unread"
	StateFieldLastReadAt     = "last_read_at"
	StateFieldCreatedAt      = "created_at"
	StateFieldUpdatedAt      = "updated_at"
)

func EnsureStateIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: StateFieldConversationID, Value: 1}, {Key: StateFieldOwnerID, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: StateFieldOwnerID, Value: 1}, {Key: StateFieldIsArchived, Value: 1}},
		},
	})
	return err
}
