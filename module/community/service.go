package community

import (
	"context"
	"time"

	"CareGene/global"
	"CareGene/logger"
	"CareGene/module/community/model"
	"CareGene/service/natsx"
	"CareGene/tools/errs"
	"CareGene/tools/slug"
	"CareGene/validation"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const slugRetries = 5

type Store struct {
	Coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	c := model.Community{}
	return &Store{Coll: db.Collection(c.GetTableName())}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	return model.EnsureCommunityIndexes(ctx, s.Coll)
}

// IncPostCounters bumps the denormalized post counters; called by the
// feed module when a post lands in the community.
func (s *Store) IncPostCounters(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := s.Coll.UpdateOne(ctx,
		bson.M{model.CommunityFieldID: id},
		bson.M{
			"$inc": bson.M{"stats.total_posts": delta},
			"$set": bson.M{model.CommunityFieldUpdatedAt: time.Now()},
		},
	)
	return err
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

func defaultSettings(p *validation.CommunitySettingsPayload) model.CommunitySettings {
	out := model.CommunitySettings{
		AllowMemberPosts:   true,
		AllowMemberInvites: true,
		RequireApproval:    false,
	}
	if p == nil {
		return out
	}
	if p.AllowMemberPosts != nil {
		out.AllowMemberPosts = *p.AllowMemberPosts
	}
	if p.AllowMemberInvites != nil {
		out.AllowMemberInvites = *p.AllowMemberInvites
	}
	if p.RequireApproval != nil {
		out.RequireApproval = *p.RequireApproval
	}
	return out
}

// Create validates the payload and inserts the community with the
// creator as first member and admin. Slug collisions retry with a
// numeric suffix before giving up with AlreadyExists.
func (s *Service) Create(ctx context.Context, creator model.Member, payload *validation.CommunityPayload) (*model.Community, error) {
	if err := validation.Validate("community", payload); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	creator.JoinedAt = now
	base := slug.Make(payload.Title)

	c := &model.Community{
		Title:       payload.Title,
		Description: payload.Description,
		Location:    model.Location{Region: payload.Location.Region, State: payload.Location.State},
		Tags:        payload.Tags,
		IsPrivate:   payload.IsPrivate,
		Settings:    defaultSettings(payload.Settings),
		Stats:       model.Stats{TotalMembers: 1},
		MemberCount: 1,
		Admins:      []string{creator.ID},
		Members:     []model.Member{creator},
		MemberIDs:   []string{creator.ID},
		Creator:     model.UserRef{ID: creator.ID, Name: creator.Name},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 0; attempt <= slugRetries; attempt++ {
		if attempt == 0 {
			c.Slug = base
		} else {
			c.Slug = slug.WithSuffix(base, attempt+1)
		}
		res, err := s.store.Coll.InsertOne(ctx, c)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return nil, err
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			c.ID = oid
		}
		return c, nil
	}
	return nil, errs.ErrAlreadyExists.WrapMsg("community slug", "slug", base)
}

func (s *Service) GetBySlug(ctx context.Context, slugStr string) (*model.Community, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out model.Community
	err := s.store.Coll.FindOne(ctx, bson.M{model.CommunityFieldSlug: slugStr}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("community", "slug", slugStr)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Join adds the member and bumps the counters in one guarded update, so
// membership and stats cannot drift under concurrent joins.
func (s *Service) Join(ctx context.Context, slugStr string, member model.Member) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	member.JoinedAt = time.Now()
	res, err := s.store.Coll.UpdateOne(ctx,
		bson.M{
			model.CommunityFieldSlug:      slugStr,
			model.CommunityFieldMemberIDs: bson.M{"$ne": member.ID},
		},
		bson.M{
			"$push":     bson.M{model.CommunityFieldMembers: member},
			"$addToSet": bson.M{model.CommunityFieldMemberIDs: member.ID},
			"$inc":      bson.M{"member_count": 1, "stats.total_members": 1},
			"$set":      bson.M{model.CommunityFieldUpdatedAt: time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// either unknown slug or already a member; disambiguate
		if _, gerr := s.GetBySlug(ctx, slugStr); gerr != nil {
			return gerr
		}
		return errs.ErrAlreadyExists.WrapMsg("membership", "user", member.ID)
	}

	if s.bus != nil {
		if err := s.bus.PublishEvent(natsx.EventCommunityJoined, []string{member.ID}, nil); err != nil {
			logger.Warn("publish community event failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) Leave(ctx context.Context, slugStr, userID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.store.Coll.UpdateOne(ctx,
		bson.M{
			model.CommunityFieldSlug:      slugStr,
			model.CommunityFieldMemberIDs: userID,
		},
		bson.M{
			"$pull": bson.M{
				model.CommunityFieldMembers:   bson.M{"id": userID},
				model.CommunityFieldMemberIDs: userID,
				"admins":                      userID,
			},
			"$inc": bson.M{"member_count": -1, "stats.total_members": -1},
			"$set": bson.M{model.CommunityFieldUpdatedAt: time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, gerr := s.GetBySlug(ctx, slugStr); gerr != nil {
			return gerr
		}
		return errs.ErrNotFound.WrapMsg("membership", "user", userID)
	}
	return nil
}

// Delete removes a user-created community; system communities are
// managed by the seeding routine and refuse normal deletion.
func (s *Service) Delete(ctx context.Context, slugStr, actorID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.GetBySlug(ctx, slugStr)
	if err != nil {
		return err
	}
	if c.IsSystemCommunity {
		return errs.ErrForbidden.WrapMsg("system communities cannot be deleted")
	}
	if !c.IsAdmin(actorID) {
		return errs.ErrForbidden.WrapMsg("community deletion requires admin", "user", actorID)
	}
	_, err = s.store.Coll.DeleteOne(ctx, bson.M{model.CommunityFieldID: c.ID})
	return err
}

// SeedSystem upserts a platform-seeded community by slug. Used by the
// administrative seeding routine at boot.
func (s *Service) SeedSystem(ctx context.Context, title, description, region string, tags []string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	slugStr := slug.Make(title)
	_, err := s.store.Coll.UpdateOne(ctx,
		bson.M{model.CommunityFieldSlug: slugStr},
		bson.M{
			"$setOnInsert": bson.M{
				model.CommunityFieldSlug: slugStr,
				"title":                  title,
				"description":            description,
				"location":               model.Location{Region: region},
				model.CommunityFieldTags: tags,
				"is_private":             false,
				model.CommunityFieldIsSystem: true,
				"settings": model.CommunitySettings{
					AllowMemberPosts:   true,
					AllowMemberInvites: true,
				},
				"stats":                       model.Stats{},
				"member_count":                int64(0),
				"admins":                      []string{},
				model.CommunityFieldMembers:   []model.Member{},
				model.CommunityFieldMemberIDs: []string{},
				"creator":                     model.UserRef{ID: "system", Name: "Caregene"},
				"created_at":                  now,
				model.CommunityFieldUpdatedAt: now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// List pages communities by region and/or tag.
func (s *Service) List(ctx context.Context, region, tag string, limit int64) ([]model.Community, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if region != "" {
		filter[model.CommunityFieldRegion] = region
	}
	if tag != "" {
		filter[model.CommunityFieldTags] = tag
	}
	cur, err := s.store.Coll.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: model.CommunityFieldUpdatedAt, Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	var out []model.Community
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
