package messaging

import (
	"context"
	"time"

	"CareGene/module/messaging/model"
	"CareGene/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	ConvColl  *mongo.Collection // conversation
	StateColl *mongo.Collection // conversation_state
}

func NewStore(db *mongo.Database) *Store {
	conv := model.Conversation{}
	st := model.ConversationState{}
	return &Store{
		ConvColl:  db.Collection(conv.GetTableName()),
		StateColl: db.Collection(st.GetTableName()),
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := model.EnsureConversationIndexes(ctx, s.ConvColl); err != nil {
		return err
	}
	return model.EnsureStateIndexes(ctx, s.StateColl)
}

// UpsertDirect inserts the direct conversation for the pair unless one
// already exists; either way the surviving document comes back. The
// unique index on direct_key turns the two-concurrent-creators race
// into one insert and one upsert no-op.
func (s *Store) UpsertDirect(ctx context.Context, conv *model.Conversation) (*model.Conversation, bool, error) {
	now := time.Now()
	res, err := s.ConvColl.UpdateOne(ctx,
		bson.M{model.ConvFieldDirectKey: conv.DirectKey},
		bson.M{
			"$setOnInsert": bson.M{
				model.ConvFieldType:           conv.Type,
				model.ConvFieldDirectKey:      conv.DirectKey,
				model.ConvFieldSettings:       conv.Settings,
				"creator":                     conv.Creator,
				model.ConvFieldParticipants:   conv.Participants,
				model.ConvFieldParticipantIDs: conv.ParticipantIDs,
				model.ConvFieldCreatedAt:      now,
				model.ConvFieldUpdatedAt:      now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// the losing insert of a concurrent pair surfaces here; fall
		// through to the lookup and return the winner
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, err
		}
	}

	var out model.Conversation
	if ferr := s.ConvColl.FindOne(ctx, bson.M{model.ConvFieldDirectKey: conv.DirectKey}).Decode(&out); ferr != nil {
		return nil, false, ferr
	}
	created := err == nil && res != nil && res.UpsertedCount > 0
	return &out, created, nil
}

func (s *Store) InsertGroup(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	res, err := s.ConvColl.InsertOne(ctx, conv)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		conv.ID = oid
	}
	return conv, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Conversation, error) {
	var out model.Conversation
	err := s.ConvColl.FindOne(ctx, bson.M{model.ConvFieldID: id}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("conversation", "id", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ProjectionFilter matches the conversation only while the candidate
// message is newer than the cached one (or nothing is cached yet), so
// concurrent writers converge on the latest server timestamp rather
// than the last one to finish.
func ProjectionFilter(id primitive.ObjectID, ts time.Time) bson.M {
	return bson.M{
		model.ConvFieldID: id,
		"$or": bson.A{
			bson.M{model.ConvFieldLastMessage: bson.M{"$exists": false}},
			bson.M{model.ConvFieldLastMessageTS: bson.M{"$lt": ts}},
		},
	}
}

// ProjectionUpdate installs the snapshot and bumps updated_at.
func ProjectionUpdate(lm *model.LastMessage) bson.M {
	return bson.M{
		"$set": bson.M{
			model.ConvFieldLastMessage: lm,
			model.ConvFieldUpdatedAt:   lm.Timestamp,
		},
	}
}

// ApplyProjection performs the guarded last-message update. A second
// unconditional $max keeps updated_at monotonic even when the guard
// rejects an out-of-order message.
func (s *Store) ApplyProjection(ctx context.Context, id primitive.ObjectID, lm *model.LastMessage) error {
	if _, err := s.ConvColl.UpdateOne(ctx, ProjectionFilter(id, lm.Timestamp), ProjectionUpdate(lm)); err != nil {
		return err
	}
	_, err := s.ConvColl.UpdateOne(ctx,
		bson.M{model.ConvFieldID: id},
		bson.M{"$max": bson.M{model.ConvFieldUpdatedAt: lm.Timestamp}},
	)
	return err
}

// UpdateGroupSettings patches the shared settings document.
func (s *Store) UpdateGroupSettings(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	if len(set) == 0 {
		return nil
	}
	set[model.ConvFieldUpdatedAt] = time.Now()
	res, err := s.ConvColl.UpdateOne(ctx, bson.M{model.ConvFieldID: id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("conversation", "id", id.Hex())
	}
	return nil
}

// AddParticipant appends the snapshot unless the user is already in the
// list; the participant_ids guard keeps the pair of arrays consistent
// under concurrent invites.
func (s *Store) AddParticipant(ctx context.Context, id primitive.ObjectID, p model.Participant) (bool, error) {
	res, err := s.ConvColl.UpdateOne(ctx,
		bson.M{
			model.ConvFieldID:             id,
			model.ConvFieldParticipantIDs: bson.M{"$ne": p.ID},
		},
		bson.M{
			"$push":     bson.M{model.ConvFieldParticipants: p},
			"$addToSet": bson.M{model.ConvFieldParticipantIDs: p.ID},
			"$set":      bson.M{model.ConvFieldUpdatedAt: time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) RemoveParticipant(ctx context.Context, id primitive.ObjectID, userID string) error {
	_, err := s.ConvColl.UpdateOne(ctx,
		bson.M{model.ConvFieldID: id},
		bson.M{
			"$pull": bson.M{
				model.ConvFieldParticipants:   bson.M{"id": userID},
				model.ConvFieldParticipantIDs: userID,
			},
			"$set": bson.M{model.ConvFieldUpdatedAt: time.Now()},
		},
	)
	return err
}

func (s *Store) PromoteToAdmin(ctx context.Context, id primitive.ObjectID, userID string) error {
	_, err := s.ConvColl.UpdateOne(ctx,
		bson.M{model.ConvFieldID: id, "participants.id": userID},
		bson.M{"$set": bson.M{"participants.$.role": model.RoleAdmin}},
	)
	return err
}

// EnsureState creates the per-owner view row if absent.
func (s *Store) EnsureState(ctx context.Context, convID primitive.ObjectID, ownerID string) error {
	now := time.Now()
	_, err := s.StateColl.UpdateOne(ctx,
		bson.M{model.StateFieldConversationID: convID, model.StateFieldOwnerID: ownerID},
		bson.M{
			"$setOnInsert": bson.M{
				model.StateFieldConversationID: convID,
				model.StateFieldOwnerID:        ownerID,
				model.StateFieldIsMuted:        false,
				model.StateFieldIsArchived:     false,
				model.StateFieldUnread:         int64(0),
				model.StateFieldCreatedAt:      now,
				model.StateFieldUpdatedAt:      now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// BumpUnread atomically increments unread for every participant view
// except the sender's.
func (s *Store) BumpUnread(ctx context.Context, convID primitive.ObjectID, senderID string) error {
	_, err := s.StateColl.UpdateMany(ctx,
		bson.M{
			model.StateFieldConversationID: convID,
			model.StateFieldOwnerID:        bson.M{"$ne": senderID},
		},
		bson.M{
			"$inc": bson.M{model.StateFieldUnread: 1},
			"$set": bson.M{model.StateFieldUpdatedAt: time.Now()},
		},
	)
	return err
}

func (s *Store) MarkRead(ctx context.Context, convID primitive.ObjectID, ownerID string) error {
	now := time.Now()
	_, err := s.StateColl.UpdateOne(ctx,
		bson.M{model.StateFieldConversationID: convID, model.StateFieldOwnerID: ownerID},
		bson.M{"$set": bson.M{
			model.StateFieldUnread:     int64(0),
			model.StateFieldLastReadAt: now,
			model.StateFieldUpdatedAt:  now,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// PatchState applies per-participant mute/archive bits.
func (s *Store) PatchState(ctx context.Context, convID primitive.ObjectID, ownerID string, set bson.M) error {
	if len(set) == 0 {
		return nil
	}
	set[model.StateFieldUpdatedAt] = time.Now()
	_, err := s.StateColl.UpdateOne(ctx,
		bson.M{model.StateFieldConversationID: convID, model.StateFieldOwnerID: ownerID},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				model.StateFieldConversationID: convID,
				model.StateFieldOwnerID:        ownerID,
				model.StateFieldCreatedAt:      time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// ArchivedSet returns the conversation ids this owner archived.
func (s *Store) ArchivedSet(ctx context.Context, ownerID string) ([]primitive.ObjectID, error) {
	cur, err := s.StateColl.Find(ctx,
		bson.M{model.StateFieldOwnerID: ownerID, model.StateFieldIsArchived: true},
		options.Find().SetProjection(bson.M{model.StateFieldConversationID: 1}),
	)
	if err != nil {
		return nil, err
	}
	var rows []model.ConversationState
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ConversationID)
	}
	return out, nil
}

// ListFilter builds the inbox query: member of the conversation, older
// than the cursor, optionally excluding archived ids. The cursor
// boundary is (updated_at, _id) so conversations sharing a timestamp at
// the page edge are not skipped.
func ListFilter(userID string, cur Cursor, excluded []primitive.ObjectID) bson.M {
	filter := bson.M{
		model.ConvFieldParticipantIDs: userID,
	}
	if !cur.IsZero() {
		boundary := bson.A{
			bson.M{model.ConvFieldUpdatedAt: bson.M{"$lt": cur.Before}},
		}
		if !cur.BeforeID.IsZero() {
			boundary = append(boundary, bson.M{
				model.ConvFieldUpdatedAt: cur.Before,
				model.ConvFieldID:        bson.M{"$lt": cur.BeforeID},
			})
		}
		filter["$or"] = boundary
	}
	if len(excluded) > 0 {
		filter[model.ConvFieldID] = bson.M{"$nin": excluded}
	}
	return filter
}

func (s *Store) List(ctx context.Context, filter bson.M, limit int64) ([]model.Conversation, error) {
	cur, err := s.ConvColl.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: model.ConvFieldUpdatedAt, Value: -1}, {Key: model.ConvFieldID, Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	var out []model.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
