package social

import (
	"context"
	"time"

	"CareGene/global"
	"CareGene/logger"
	"CareGene/module/social/model"
	"CareGene/service/natsx"
	"CareGene/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionBlock  Decision = "block"
)

// GuardRespond checks the state machine for respond(): only a pending
// request can be answered.
func GuardRespond(current model.FriendshipStatus) error {
	if current != model.FriendshipPending {
		return errs.ErrInvalidTransition.WrapMsg("respond requires pending status", "status", string(current))
	}
	return nil
}

type Store struct {
	Coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	f := model.Friendship{}
	return &Store{Coll: db.Collection(f.GetTableName())}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	return model.EnsureFriendshipIndexes(ctx, s.Coll)
}

type Service struct {
	store *Store
	bus   *natsx.NatsManager
}

func NewService(store *Store, bus *natsx.NatsManager) *Service {
	return &Service{store: store, bus: bus}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, global.Conf().MongoTimeout())
}

// Request creates a pending friendship from requester to recipient.
// The pair_key unique index rejects a duplicate in either direction
// with AlreadyExists.
func (s *Service) Request(ctx context.Context, requester, recipient model.Party, notes string) (*model.Friendship, error) {
	if requester.ID == "" || recipient.ID == "" {
		return nil, errs.ErrValidation.WrapMsg("requester and recipient ids must not be empty")
	}
	if requester.ID == recipient.ID {
		return nil, errs.ErrSelfRequest.WrapMsg("requester and recipient are the same user")
	}
	if len([]rune(notes)) > 200 {
		return nil, errs.ErrValidation.WrapMsg("notes must be at most 200 characters")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	f := &model.Friendship{
		PairKey:   model.PairKeyFor(requester.ID, recipient.ID),
		Requester: requester,
		Recipient: recipient,
		Status:    model.FriendshipPending,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.store.Coll.InsertOne(ctx, f)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrAlreadyExists.WrapMsg("friendship", "pair", f.PairKey)
		}
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		f.ID = oid
	}

	if s.bus != nil {
		if err := s.bus.PublishEvent(natsx.EventFriendRequested, []string{recipient.ID}, f); err != nil {
			logger.Warn("publish friend event failed", zap.Error(err))
		}
	}
	return f, nil
}

func (s *Service) get(ctx context.Context, id primitive.ObjectID) (*model.Friendship, error) {
	var out model.Friendship
	err := s.store.Coll.FindOne(ctx, bson.M{model.FriendFieldID: id}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("friendship", "id", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Respond lets the recipient accept or block a pending request. Accept
// stamps acceptedAt exactly once: the guarded update only matches while
// status is still pending, so a concurrent double-accept loses the race
// and surfaces InvalidTransition.
func (s *Service) Respond(ctx context.Context, idHex, actorID string, decision Decision) (*model.Friendship, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Recipient.ID != actorID {
		return nil, errs.ErrForbidden.WrapMsg("only the recipient may respond", "user", actorID)
	}
	if err := GuardRespond(f.Status); err != nil {
		return nil, err
	}

	now := time.Now()
	set := bson.M{model.FriendFieldUpdatedAt: now}
	switch decision {
	case DecisionAccept:
		set[model.FriendFieldStatus] = model.FriendshipAccepted
		set[model.FriendFieldAcceptedAt] = now
	case DecisionBlock:
		set[model.FriendFieldStatus] = model.FriendshipBlocked
	default:
		return nil, errs.ErrValidation.WrapMsg("decision must be accept or block", "decision", string(decision))
	}

	res, err := s.store.Coll.UpdateOne(ctx,
		bson.M{model.FriendFieldID: id, model.FriendFieldStatus: model.FriendshipPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		return nil, errs.ErrInvalidTransition.WrapMsg("request already answered")
	}
	out, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		if err := s.bus.PublishEvent(natsx.EventFriendResponded, []string{out.Requester.ID}, out); err != nil {
			logger.Warn("publish friend event failed", zap.Error(err))
		}
	}
	return out, nil
}

// Block is permitted from any state by either participant; the status
// is terminal.
func (s *Service) Block(ctx context.Context, idHex, actorID string) (*model.Friendship, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Requester.ID != actorID && f.Recipient.ID != actorID {
		return nil, errs.ErrForbidden.WrapMsg("only a participant may block", "user", actorID)
	}

	_, err = s.store.Coll.UpdateOne(ctx,
		bson.M{model.FriendFieldID: id},
		bson.M{"$set": bson.M{
			model.FriendFieldStatus:    model.FriendshipBlocked,
			model.FriendFieldUpdatedAt: time.Now(),
		}},
	)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// ListForUser returns friendships touching the user, optionally
// filtered by status.
func (s *Service) ListForUser(ctx context.Context, userID string, status model.FriendshipStatus) ([]model.Friendship, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{model.FriendFieldRequesterID: userID},
		bson.M{model.FriendFieldRecipientID: userID},
	}}
	if status != "" {
		filter[model.FriendFieldStatus] = status
	}
	cur, err := s.store.Coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []model.Friendship
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
