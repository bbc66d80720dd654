package model

import (
	"context"
	"time"

	"CareGene/data/database"
	"CareGene/service/mgo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	_ database.Table = (*Post)(nil)
	_ database.Table = (*Comment)(nil)
)

// Author is an identity snapshot embedded at write time.
type Author struct {
	ID     string `bson:"id" json:"id"`
	Name   string `bson:"name,omitempty" json:"name,omitempty"`
	Email  string `bson:"email,omitempty" json:"email,omitempty"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Content     string             `bson:"content" json:"content"`
	Author      Author             `bson:"author" json:"author"`
	CommunityID primitive.ObjectID `bson:"community_id" json:"communityId"`

	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Images      []string `bson:"images,omitempty" json:"images,omitempty"`
	Attachments []string `bson:"attachments,omitempty" json:"attachments,omitempty"`

	CommentCount int64 `bson:"comment_count" json:"commentCount"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (*Post) GetTableName() string {
	return "post"
}

func (p *Post) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(p.GetTableName())
}

const (
	PostFieldID           = "_id"
	PostFieldCommunityID  = "community_id"
	PostFieldAuthorID     = "author.id"
	PostFieldCommentCount = "comment_count"
	PostFieldCreatedAt    = "created_at"
)

func EnsurePostIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: PostFieldCommunityID, Value: 1}, {Key: PostFieldCreatedAt, Value: -1}}},
		{Keys: bson.D{{Key: PostFieldAuthorID, Value: 1}}},
	})
	return err
}
