package feed

import (
	"testing"

	"CareGene/module/feed/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParentCommentFilterPinsPost(t *testing.T) {
	postID := primitive.NewObjectID()
	parentID := primitive.NewObjectID()
	f := ParentCommentFilter(postID, parentID)

	if f[model.CommentFieldID] != parentID {
		t.Fatalf("missing parent id constraint: %v", f)
	}
	// a parent from another post must not match, or replies could be
	// linked across threads
	if f[model.CommentFieldPostID] != postID {
		t.Fatalf("parent lookup must be scoped to the post: %v", f)
	}
}

func TestReactionFilters(t *testing.T) {
	id := primitive.NewObjectID()

	replace := ReactionReplaceFilter(id, "u1")
	if replace[model.CommentFieldID] != id {
		t.Fatalf("missing comment id constraint: %v", replace)
	}
	if replace[model.CommentFieldReactions+".user_id"] != "u1" {
		t.Fatalf("replace must require an existing reaction from the user: %v", replace)
	}

	// the insert guard is what keeps two concurrent first reactions
	// from both landing: only a document without the user's entry
	// matches
	insert := ReactionInsertFilter(id, "u1")
	guard, ok := insert[model.CommentFieldReactions+".user_id"].(bson.M)
	if !ok || guard["$ne"] != "u1" {
		t.Fatalf("insert must be guarded against an existing reaction: %v", insert)
	}
}
