package model

import (
	"context"
	"time"

	"CareGene/service/mgo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionLaugh ReactionType = "laugh"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

func ValidReaction(t ReactionType) bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

type Reaction struct {
	Type      ReactionType `bson:"type" json:"type"`
	UserID    string       `bson:"user_id" json:"userId"`
	CreatedAt time.Time    `bson:"created_at" json:"createdAt"`
}

// Comment belongs to exactly one post and optionally a parent comment,
// forming an unbounded reply tree.
type Comment struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PostID          primitive.ObjectID  `bson:"post_id" json:"postId"`
	ParentCommentID *primitive.ObjectID `bson:"parent_comment_id,omitempty" json:"parentCommentId,omitempty"`

	Content string `bson:"content" json:"content"`
	Author  Author `bson:"author" json:"author"`

	Replies   []primitive.ObjectID `bson:"replies,omitempty" json:"replies,omitempty"`
	Reactions []Reaction           `bson:"reactions,omitempty" json:"reactions,omitempty"`

	// IsEdited and EditedAt are set together, only on edit.
	IsEdited bool       `bson:"is_edited" json:"isEdited"`
	EditedAt *time.Time `bson:"edited_at,omitempty" json:"editedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (*Comment) GetTableName() string {
	return "comment"
}

func (c *Comment) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

const (
	CommentFieldID        = "_id"
	CommentFieldPostID    = "post_id"
	CommentFieldParentID  = "parent_comment_id"
	CommentFieldAuthorID  = "author.id"
	CommentFieldContent   = "content"
	CommentFieldReplies   = "replies"
	CommentFieldReactions = "reactions"
	CommentFieldIsEdited  = "is_edited"
	CommentFieldEditedAt  = "edited_at"
	CommentFieldCreatedAt = "created_at"
	CommentFieldUpdatedAt = "updated_at"
)

func EnsureCommentIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: CommentFieldPostID, Value: 1}, {Key: CommentFieldCreatedAt, Value: 1}}},
		{Keys: bson.D{{Key: CommentFieldAuthorID, Value: 1}}},
		{Keys: bson.D{{Key: CommentFieldParentID, Value: 1}}},
	})
	return err
}
