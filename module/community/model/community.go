package model

import (
	"context"
	"time"

	"CareGene/data/database"
	"CareGene/service/mgo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ database.Table = (*Community)(nil)

type Location struct {
	Region string `bson:"region" json:"region"`
	State  string `bson:"state,omitempty" json:"state,omitempty"`
}

type CommunitySettings struct {
	AllowMemberPosts   bool `bson:"allow_member_posts" json:"allowMemberPosts"`
	AllowMemberInvites bool `bson:"allow_member_invites" json:"allowMemberInvites"`
	RequireApproval    bool `bson:"require_approval" json:"requireApproval"`
}

// Stats are denormalized counters maintained exclusively with $inc in
// the same update that changes membership, never read-modify-write.
type Stats struct {
	TotalMembers int64 `bson:"total_members" json:"totalMembers"`
	TotalPosts   int64 `bson:"total_posts" json:"totalPosts"`
}

type Member struct {
	ID       string    `bson:"id" json:"id"`
	Name     string    `bson:"name,omitempty" json:"name,omitempty"`
	Avatar   string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	JoinedAt time.Time `bson:"joined_at" json:"joinedAt"`
}

type UserRef struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
}

type Community struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug" json:"slug"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`

	Location Location `bson:"location" json:"location"`
	Tags     []string `bson:"tags" json:"tags"`

	IsPrivate bool `bson:"is_private" json:"isPrivate"`
	// System communities are platform-seeded and exempt from normal
	// member deletion rules.
	IsSystemCommunity bool `bson:"is_system_community" json:"isSystemCommunity"`

	Settings CommunitySettings `bson:"settings" json:"settings"`

	Stats       Stats    `bson:"stats" json:"stats"`
	MemberCount int64    `bson:"member_count" json:"memberCount"`
	Admins      []string `bson:"admins" json:"admins"`
	Members     []Member `bson:"members" json:"members"`
	MemberIDs   []string `bson:"member_ids" json:"-"`

	Creator UserRef `bson:"creator" json:"creator"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (*Community) GetTableName() string {
	return "community"
}

func (c *Community) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

const (
	CommunityFieldID        = "_id"
	CommunityFieldSlug      = "slug"
	CommunityFieldRegion    = "location.region"
	CommunityFieldTags      = "tags"
	CommunityFieldIsSystem  = "is_system_community"
	CommunityFieldMembers   = "members"
	CommunityFieldMemberIDs = "member_ids"
	CommunityFieldUpdatedAt = "updated_at"
)

func (c *Community) IsMember(userID string) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Community) IsAdmin(userID string) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

func EnsureCommunityIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: CommunityFieldSlug, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: CommunityFieldRegion, Value: 1}, {Key: CommunityFieldUpdatedAt, Value: -1}},
		},
		{
			Keys: bson.D{{Key: CommunityFieldTags, Value: 1}},
		},
		{
			Keys: bson.D{{Key: CommunityFieldMemberIDs, Value: 1}},
		},
	})
	return err
}
