package feed

import (
	"context"
	"time"

	"CareGene/global"
	communitystore "CareGene/module/community"
	"CareGene/module/feed/model"
	"CareGene/tools/errs"
	"CareGene/tools/safe"
	"CareGene/validation"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	PostColl    *mongo.Collection
	CommentColl *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	p := model.Post{}
	c := model.Comment{}
	return &Store{
		PostColl:    db.Collection(p.GetTableName()),
		CommentColl: db.Collection(c.GetTableName()),
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := model.EnsurePostIndexes(ctx, s.PostColl); err != nil {
		return err
	}
	return model.EnsureCommentIndexes(ctx, s.CommentColl)
}

type Service struct {
	store       *Store
	communities *communitystore.Store
}

func NewService(store *Store, communities *communitystore.Store) *Service {
	return &Service{store: store, communities: communities}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, global.Conf().MongoTimeout())
}

// CreatePost validates, inserts, and bumps the community's denormalized
// post counter.
func (s *Service) CreatePost(ctx context.Context, author model.Author, payload *validation.PostPayload) (*model.Post, error) {
	if err := validation.Validate("post", payload); err != nil {
		return nil, err
	}
	communityID, err := primitive.ObjectIDFromHex(payload.CommunityID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	p := &model.Post{
		Title:       payload.Title,
		Content:     payload.Content,
		Author:      author,
		CommunityID: communityID,
		Tags:        payload.Tags,
		Images:      payload.Images,
		Attachments: payload.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := s.store.PostColl.InsertOne(ctx, p)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	if s.communities != nil {
		if err := s.communities.IncPostCounters(ctx, communityID, 1); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ParentCommentFilter matches the parent only when it belongs to the
// same post the reply targets.
func ParentCommentFilter(postID, parentID primitive.ObjectID) bson.M {
	return bson.M{model.CommentFieldID: parentID, model.CommentFieldPostID: postID}
}

// CreateComment validates, inserts, links the reply into its parent,
// and bumps the post's comment counter.
func (s *Service) CreateComment(ctx context.Context, author model.Author, payload *validation.CommentPayload) (*model.Comment, error) {
	if err := validation.Validate("comment", payload); err != nil {
		return nil, err
	}
	postID, err := primitive.ObjectIDFromHex(payload.PostID)
	if err != nil {
		return nil, err
	}
	var parentID *primitive.ObjectID
	if parentHex := safe.DefaultString(payload.ParentCommentID, ""); parentHex != "" {
		pid, err := primitive.ObjectIDFromHex(parentHex)
		if err != nil {
			return nil, err
		}
		parentID = &pid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// the post must exist before anything is written
	if err := s.store.PostColl.FindOne(ctx, bson.M{model.PostFieldID: postID},
		options.FindOne().SetProjection(bson.M{model.PostFieldID: 1})).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrNotFound.WrapMsg("post", "id", payload.PostID)
		}
		return nil, err
	}
	// so must the parent, and on the same post
	if parentID != nil {
		err := s.store.CommentColl.FindOne(ctx, ParentCommentFilter(postID, *parentID),
			options.FindOne().SetProjection(bson.M{model.CommentFieldID: 1})).Err()
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrNotFound.WrapMsg("parent comment", "id", parentID.Hex())
		}
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	c := &model.Comment{
		PostID:          postID,
		ParentCommentID: parentID,
		Content:         payload.Content,
		Author:          author,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	res, err := s.store.CommentColl.InsertOne(ctx, c)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}

	if parentID != nil {
		if _, err := s.store.CommentColl.UpdateOne(ctx,
			bson.M{model.CommentFieldID: *parentID},
			bson.M{"$push": bson.M{model.CommentFieldReplies: c.ID}},
		); err != nil {
			return nil, err
		}
	}
	if _, err := s.store.PostColl.UpdateOne(ctx,
		bson.M{model.PostFieldID: postID},
		bson.M{"$inc": bson.M{model.PostFieldCommentCount: 1}},
	); err != nil {
		return nil, err
	}
	return c, nil
}

// EditComment replaces the content and stamps isEdited/editedAt
// together. Only the author may edit.
func (s *Service) EditComment(ctx context.Context, idHex, actorID, content string) (*model.Comment, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, err
	}
	n := len([]rune(content))
	if n < 1 || n > 1000 {
		return nil, errs.ErrValidation.WrapMsg("content must be between 1 and 1000 characters")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	res, err := s.store.CommentColl.UpdateOne(ctx,
		bson.M{model.CommentFieldID: id, model.CommentFieldAuthorID: actorID},
		bson.M{"$set": bson.M{
			model.CommentFieldContent:   content,
			model.CommentFieldIsEdited:  true,
			model.CommentFieldEditedAt:  now,
			model.CommentFieldUpdatedAt: now,
		}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		// unknown id or wrong author; disambiguate for the caller
		var existing model.Comment
		ferr := s.store.CommentColl.FindOne(ctx, bson.M{model.CommentFieldID: id}).Decode(&existing)
		if ferr == mongo.ErrNoDocuments {
			return nil, errs.ErrNotFound.WrapMsg("comment", "id", idHex)
		}
		if ferr != nil {
			return nil, ferr
		}
		return nil, errs.ErrForbidden.WrapMsg("only the author may edit", "user", actorID)
	}
	return s.getComment(ctx, id)
}

// ReactionReplaceFilter matches only while the user already holds a
// reaction on the comment, for an in-place positional update.
func ReactionReplaceFilter(id primitive.ObjectID, userID string) bson.M {
	return bson.M{model.CommentFieldID: id, model.CommentFieldReactions + ".user_id": userID}
}

// ReactionInsertFilter matches only while the user holds no reaction;
// of two concurrent inserts for the same user, exactly one can match.
func ReactionInsertFilter(id primitive.ObjectID, userID string) bson.M {
	return bson.M{model.CommentFieldID: id, model.CommentFieldReactions + ".user_id": bson.M{"$ne": userID}}
}

// React records at most one reaction per user per comment: an existing
// reaction from the same user is replaced, not appended alongside. Each
// attempt is a single guarded document update, so concurrent reacts by
// one user cannot land two array entries.
func (s *Service) React(ctx context.Context, idHex, userID string, rtype model.ReactionType) (*model.Comment, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, err
	}
	if !model.ValidReaction(rtype) {
		return nil, errs.ErrValidation.WrapMsg("unknown reaction type", "type", string(rtype))
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	for attempt := 0; attempt < 2; attempt++ {
		res, err := s.store.CommentColl.UpdateOne(ctx,
			ReactionReplaceFilter(id, userID),
			bson.M{"$set": bson.M{
				model.CommentFieldReactions + ".$.type":       rtype,
				model.CommentFieldReactions + ".$.created_at": now,
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount > 0 {
			return s.getComment(ctx, id)
		}

		res, err = s.store.CommentColl.UpdateOne(ctx,
			ReactionInsertFilter(id, userID),
			bson.M{"$push": bson.M{model.CommentFieldReactions: model.Reaction{
				Type:      rtype,
				UserID:    userID,
				CreatedAt: now,
			}}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount > 0 {
			return s.getComment(ctx, id)
		}

		// neither guard matched: the comment is gone, or a concurrent
		// insert for the same user landed between the two updates; the
		// retry then takes the in-place branch
		if ferr := s.store.CommentColl.FindOne(ctx, bson.M{model.CommentFieldID: id},
			options.FindOne().SetProjection(bson.M{model.CommentFieldID: 1})).Err(); ferr != nil {
			if ferr == mongo.ErrNoDocuments {
				return nil, errs.ErrNotFound.WrapMsg("comment", "id", idHex)
			}
			return nil, ferr
		}
	}
	return nil, errs.ErrAlreadyExists.WrapMsg("reaction update kept losing the race; retry", "comment", idHex)
}

func (s *Service) getComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	var out model.Comment
	err := s.store.CommentColl.FindOne(ctx, bson.M{model.CommentFieldID: id}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("comment", "id", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByPost returns a post's comments in creation order; the client
// assembles the reply tree from parent references.
func (s *Service) ListByPost(ctx context.Context, postIDHex string, limit int64) ([]model.Comment, error) {
	postID, err := primitive.ObjectIDFromHex(postIDHex)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.store.CommentColl.Find(ctx,
		bson.M{model.CommentFieldPostID: postID},
		options.Find().
			SetSort(bson.D{{Key: model.CommentFieldCreatedAt, Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	var out []model.Comment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
