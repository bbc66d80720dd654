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

var (
	_ database.Table = (*Conversation)(nil)
	_ database.Table = (*ConversationState)(nil)
)

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

type ParticipantRole string

const (
	RoleMember ParticipantRole = "member"
	RoleAdmin  ParticipantRole = "admin"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// UserRef is an identity snapshot embedded at write time. It is never
// rewritten when the profile later changes.
type UserRef struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

type Participant struct {
	ID       string          `bson:"id" json:"id"`
	Name     string          `bson:"name" json:"name"`
	Email    string          `bson:"email,omitempty" json:"email,omitempty"`
	Avatar   string          `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role     ParticipantRole `bson:"role" json:"role"`
	JoinedAt time.Time       `bson:"joined_at" json:"joinedAt"`
}

// LastMessage is a denormalized cache of the most recent accepted
// message, kept for inbox rendering. The message stream itself is the
// source of truth.
type LastMessage struct {
	Content   string      `bson:"content" json:"content"`
	Sender    UserRef     `bson:"sender" json:"sender"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	Type      MessageType `bson:"type" json:"type"`
}

// ConversationSettings is conversation-global state. Per-participant
// mute/archive lives on ConversationState, not here.
type ConversationSettings struct {
	IsArchived   bool `bson:"is_archived" json:"isArchived"`
	IsMuted      bool `bson:"is_muted" json:"isMuted"`
	AllowInvites bool `bson:"allow_invites" json:"allowInvites"`
}

type Conversation struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type ConversationType   `bson:"type" json:"type"`

	Name   string `bson:"name,omitempty" json:"name,omitempty"`     // group only
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"` // group only

	// DirectKey is "direct:" + the sorted participant pair, present only
	// on direct conversations. Its unique index is what makes
	// FindOrCreateDirect race-safe.
	DirectKey string `bson:"direct_key,omitempty" json:"-"`

	Settings ConversationSettings `bson:"settings" json:"settings"`
	Creator  UserRef              `bson:"creator" json:"creator"`

	Participants   []Participant `bson:"participants" json:"participants"`
	ParticipantIDs []string      `bson:"participant_ids" json:"-"`

	LastMessage *LastMessage `bson:"last_message,omitempty" json:"lastMessage,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (*Conversation) GetTableName() string {
	return "conversation"
}

func (c *Conversation) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

// Field names used in filters/updates.
const (
	ConvFieldID             = "_id"
	ConvFieldType           = "type"
	ConvFieldDirectKey      = "direct_key"
	ConvFieldSettings       = "settings"
	ConvFieldParticipants   = "participants"
	ConvFieldParticipantIDs = "participant_ids"
	ConvFieldLastMessage    = "last_message"
	ConvFieldLastMessageTS  = "last_message.timestamp"
	ConvFieldCreatedAt      = "created_at"
	ConvFieldUpdatedAt      = "updated_at"
)

// DirectKeyFor builds the canonical key for a direct pair; order of the
// arguments does not matter. Ids are opaque strings from the gateway,
// so each one is escaped before joining: an id containing the delimiter
// must not collide with a different pair.
func DirectKeyFor(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return "direct:" + url.QueryEscape(ids[0]) + ":" + url.QueryEscape(ids[1])
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) IsAdmin(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID && p.Role == RoleAdmin {
			return true
		}
	}
	return false
}

// EnsureConversationIndexes declares the secondary indexes the query
// paths depend on. Safe to call on every boot.
func EnsureConversationIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: ConvFieldDirectKey, Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{ConvFieldDirectKey: bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: ConvFieldParticipantIDs, Value: 1}, {Key: ConvFieldUpdatedAt, Value: -1}},
		},
		{
			Keys: bson.D{{Key: ConvFieldType, Value: 1}, {Key: ConvFieldUpdatedAt, Value: -1}},
		},
	})
	return err
}
