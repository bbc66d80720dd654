package messaging

import (
	"context"
	"encoding/json"
	"time"

	"CareGene/global"
	"CareGene/logger"
	"CareGene/module/messaging/model"
	"CareGene/service/kafka"
	"CareGene/service/natsx"
	"CareGene/tools/errs"
	"CareGene/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserSnapshot is the caller-provided identity captured into embedded
// participant/sender fields at write time.
type UserSnapshot struct {
	ID     string
	Name   string
	Email  string
	Avatar string
}

func (u UserSnapshot) participant(role model.ParticipantRole) model.Participant {
	return model.Participant{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Role:     role,
		JoinedAt: time.Now(),
	}
}

type IncomingMessage struct {
	ClientMsgID string            `json:"clientMsgId,omitempty"`
	Content     string            `json:"content"`
	Type        model.MessageType `json:"type"`
}

// SettingsPatch carries only the fields the caller wants changed.
type SettingsPatch struct {
	IsArchived   *bool `json:"isArchived,omitempty"`
	IsMuted      *bool `json:"isMuted,omitempty"`
	AllowInvites *bool `json:"allowInvites,omitempty"`
}

// StreamMessage is the record appended to the external message stream.
type StreamMessage struct {
	ServerMsgID    string            `json:"serverMsgId"`
	ConversationID string            `json:"conversationId"`
	Sender         model.UserRef     `json:"sender"`
	Content        string            `json:"content"`
	Type           model.MessageType `json:"type"`
	Timestamp      time.Time         `json:"timestamp"`
}

type Service struct {
	store *Store
	index *ClientMsgIndex
	bus   *natsx.NatsManager
	topic string
}

func NewService(store *Store, index *ClientMsgIndex, bus *natsx.NatsManager, topic string) *Service {
	return &Service{store: store, index: index, bus: bus, topic: topic}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, global.Conf().MongoTimeout())
}

// FindOrCreateDirect returns the direct conversation between the two
// users, creating it on first contact. Idempotent under concurrent
// calls for the same pair.
func (s *Service) FindOrCreateDirect(ctx context.Context, a, b UserSnapshot) (*model.Conversation, bool, error) {
	if a.ID == "" || b.ID == "" {
		return nil, false, errs.ErrInvalidParticipants.WrapMsg("participant id must not be empty")
	}
	if a.ID == b.ID {
		return nil, false, errs.ErrInvalidParticipants.WrapMsg("direct conversation needs two distinct users")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv := &model.Conversation{
		Type:           model.ConversationDirect,
		DirectKey:      model.DirectKeyFor(a.ID, b.ID),
		Creator:        model.UserRef{ID: a.ID, Name: a.Name},
		Participants:   []model.Participant{a.participant(model.RoleMember), b.participant(model.RoleMember)},
		ParticipantIDs: []string{a.ID, b.ID},
	}
	out, created, err := s.store.UpsertDirect(ctx, conv)
	if err != nil {
		return nil, false, err
	}
	for _, pid := range out.ParticipantIDs {
		if err := s.store.EnsureState(ctx, out.ID, pid); err != nil {
			return nil, false, err
		}
	}
	return out, created, nil
}

// ValidateGroupMembers rejects empty ids, duplicates, the creator
// re-listed as an other member, and groups with nobody besides the
// creator.
func ValidateGroupMembers(creatorID string, otherIDs []string) error {
	if len(otherIDs) < 1 {
		return errs.ErrInvalidParticipants.WrapMsg("a group needs at least one member besides the creator")
	}
	seen := map[string]struct{}{creatorID: {}}
	for _, id := range otherIDs {
		if id == "" {
			return errs.ErrInvalidParticipants.WrapMsg("participant id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return errs.ErrInvalidParticipants.WrapMsg("duplicate participant", "id", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *Service) CreateGroup(ctx context.Context, creator UserSnapshot, others []UserSnapshot, name string) (*model.Conversation, error) {
	otherIDs := make([]string, 0, len(others))
	for _, o := range others {
		otherIDs = append(otherIDs, o.ID)
	}
	if err := ValidateGroupMembers(creator.ID, otherIDs); err != nil {
		return nil, err
	}
	if len([]rune(name)) > 100 {
		return nil, errs.ErrValidation.WrapMsg("group name must be at most 100 characters")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	participants := make([]model.Participant, 0, len(others)+1)
	participants = append(participants, creator.participant(model.RoleAdmin))
	ids := []string{creator.ID}
	for _, o := range others {
		participants = append(participants, o.participant(model.RoleMember))
		ids = append(ids, o.ID)
	}

	conv := &model.Conversation{
		Type:           model.ConversationGroup,
		Name:           name,
		Settings:       model.ConversationSettings{AllowInvites: true},
		Creator:        model.UserRef{ID: creator.ID, Name: creator.Name},
		Participants:   participants,
		ParticipantIDs: ids,
	}
	out, err := s.store.InsertGroup(ctx, conv)
	if err != nil {
		return nil, err
	}
	for _, pid := range out.ParticipantIDs {
		if err := s.store.EnsureState(ctx, out.ID, pid); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RecordMessage appends to the message stream and then, only after the
// broker acked the append, updates the last-message projection, unread
// counters, and the event bus. A retried client message id short-
// circuits before any side effect repeats.
func (s *Service) RecordMessage(ctx context.Context, convIDHex string, sender UserSnapshot, in IncomingMessage) (*model.LastMessage, error) {
	convID, err := primitive.ObjectIDFromHex(convIDHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv, err := s.store.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(sender.ID) {
		return nil, errs.ErrNotAParticipant.WrapMsg("sender", "user", sender.ID)
	}

	serverMsgID := ""
	if in.ClientMsgID != "" && s.index != nil {
		sid, existed, err := s.index.Ensure(ctx, sender.ID, in.ClientMsgID)
		if err != nil {
			return nil, err
		}
		if existed {
			// duplicate delivery: the first call already did the work
			return conv.LastMessage, nil
		}
		serverMsgID = sid
	}
	if serverMsgID == "" {
		serverMsgID = ids.MessageID()
	}

	// sender identity comes from the stored participant snapshot, not
	// from whatever the request claims today
	senderRef := model.UserRef{ID: sender.ID, Name: sender.Name}
	for _, p := range conv.Participants {
		if p.ID == sender.ID {
			senderRef.Name = p.Name
			break
		}
	}

	msgType := in.Type
	if msgType == "" {
		msgType = model.MessageText
	}
	ts := time.Now()

	stream := StreamMessage{
		ServerMsgID:    serverMsgID,
		ConversationID: convIDHex,
		Sender:         senderRef,
		Content:        in.Content,
		Type:           msgType,
		Timestamp:      ts,
	}
	payload, err := json.Marshal(stream)
	if err != nil {
		return nil, err
	}
	// source of truth first; the projection must never point at a
	// message the stream did not durably accept
	if err := kafka.SendSync(s.topic, convIDHex, payload); err != nil {
		return nil, errs.WrapMsg(err, "append to message stream", "conversation", convIDHex)
	}

	lm := &model.LastMessage{
		Content:   in.Content,
		Sender:    senderRef,
		Timestamp: ts,
		Type:      msgType,
	}
	if err := s.store.ApplyProjection(ctx, convID, lm); err != nil {
		return nil, err
	}
	if err := s.store.BumpUnread(ctx, convID, sender.ID); err != nil {
		return nil, err
	}

	if s.bus != nil {
		if err := s.bus.PublishEvent(natsx.EventMessageRecorded, conv.ParticipantIDs, stream); err != nil {
			logger.Warn("publish message event failed", zap.Error(err))
		}
	}
	return lm, nil
}

// DirectStatePatch translates a settings patch into per-participant
// state fields. AllowInvites has no meaning on a direct conversation.
func DirectStatePatch(patch SettingsPatch) (bson.M, error) {
	if patch.AllowInvites != nil {
		return nil, errs.ErrValidation.WrapMsg("allowInvites applies to group conversations only")
	}
	set := bson.M{}
	if patch.IsMuted != nil {
		set[model.StateFieldIsMuted] = *patch.IsMuted
	}
	if patch.IsArchived != nil {
		set[model.StateFieldIsArchived] = *patch.IsArchived
	}
	return set, nil
}

// GroupSettingsPatch translates a settings patch into shared settings
// fields.
func GroupSettingsPatch(patch SettingsPatch) bson.M {
	set := bson.M{}
	if patch.IsMuted != nil {
		set["settings.is_muted"] = *patch.IsMuted
	}
	if patch.IsArchived != nil {
		set["settings.is_archived"] = *patch.IsArchived
	}
	if patch.AllowInvites != nil {
		set["settings.allow_invites"] = *patch.AllowInvites
	}
	return set
}

// UpdateSettings applies a settings patch. On a group conversation the
// shared settings change and the actor must be an admin; on a direct
// conversation the change lands on the actor's own view only.
func (s *Service) UpdateSettings(ctx context.Context, convIDHex, actorID string, patch SettingsPatch) error {
	convID, err := primitive.ObjectIDFromHex(convIDHex)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv, err := s.store.GetByID(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(actorID) {
		return errs.ErrNotAParticipant.WrapMsg("settings", "user", actorID)
	}

	if conv.Type == model.ConversationDirect {
		set, err := DirectStatePatch(patch)
		if err != nil {
			return err
		}
		return s.store.PatchState(ctx, convID, actorID, set)
	}

	if !conv.IsAdmin(actorID) {
		return errs.ErrForbidden.WrapMsg("group settings require admin role", "user", actorID)
	}
	return s.store.UpdateGroupSettings(ctx, convID, GroupSettingsPatch(patch))
}

// Cursor restarts a listing just after the last conversation of the
// previous page. BeforeID breaks ties between conversations sharing an
// updated_at instant, so none are skipped across page boundaries.
type Cursor struct {
	Before   time.Time
	BeforeID primitive.ObjectID
}

func (c Cursor) IsZero() bool {
	return c.Before.IsZero()
}

// ListForUser pages the inbox: most recently active first, restartable
// from the returned cursor.
func (s *Service) ListForUser(ctx context.Context, userID string, includeArchived bool, cur Cursor, limit int64) ([]model.Conversation, Cursor, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var excluded []primitive.ObjectID
	if !includeArchived {
		var err error
		excluded, err = s.store.ArchivedSet(ctx, userID)
		if err != nil {
			return nil, Cursor{}, err
		}
	}
	items, err := s.store.List(ctx, ListFilter(userID, cur, excluded), limit)
	if err != nil {
		return nil, Cursor{}, err
	}
	var next Cursor
	if int64(len(items)) == limit {
		last := items[len(items)-1]
		next = Cursor{Before: last.UpdatedAt, BeforeID: last.ID}
	}
	return items, next, nil
}

func (s *Service) MarkRead(ctx context.Context, convIDHex, userID string) error {
	convID, err := primitive.ObjectIDFromHex(convIDHex)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv, err := s.store.GetByID(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return errs.ErrNotAParticipant.WrapMsg("mark read", "user", userID)
	}
	return s.store.MarkRead(ctx, convID, userID)
}

// AddParticipants invites users into a group conversation. Members may
// invite while allowInvites is on; otherwise only admins.
func (s *Service) AddParticipants(ctx context.Context, convIDHex, actorID string, users []UserSnapshot) error {
	convID, err := primitive.ObjectIDFromHex(convIDHex)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv, err := s.store.GetByID(ctx, convID)
	if err != nil {
		return err
	}
	if conv.Type != model.ConversationGroup {
		return errs.ErrInvalidParticipants.WrapMsg("cannot add participants to a direct conversation")
	}
	if !conv.HasParticipant(actorID) {
		return errs.ErrNotAParticipant.WrapMsg("invite", "user", actorID)
	}
	if !conv.Settings.AllowInvites && !conv.IsAdmin(actorID) {
		return errs.ErrForbidden.WrapMsg("invites are restricted to admins")
	}

	for _, u := range users {
		if u.ID == "" {
			return errs.ErrInvalidParticipants.WrapMsg("participant id must not be empty")
		}
	}
	for _, u := range users {
		added, err := s.store.AddParticipant(ctx, convID, u.participant(model.RoleMember))
		if err != nil {
			return err
		}
		if added {
			if err := s.store.EnsureState(ctx, convID, u.ID); err != nil {
				return err
			}
		}
	}
	if s.bus != nil {
		if err := s.bus.PublishEvent(natsx.EventConversationUpdated, conv.ParticipantIDs, nil); err != nil {
			logger.Warn("publish conversation event failed", zap.Error(err))
		}
	}
	return nil
}

// NextAdmin picks the longest-standing remaining member when the last
// admin leaves; empty when no promotion is needed.
func NextAdmin(participants []model.Participant, leavingID string) string {
	admins := 0
	leavingIsAdmin := false
	for _, p := range participants {
		if p.Role == model.RoleAdmin {
			admins++
			if p.ID == leavingID {
				leavingIsAdmin = true
			}
		}
	}
	if !leavingIsAdmin || admins > 1 {
		return ""
	}
	var oldest *model.Participant
	for i := range participants {
		p := &participants[i]
		if p.ID == leavingID {
			continue
		}
		if oldest == nil || p.JoinedAt.Before(oldest.JoinedAt) {
			oldest = p
		}
	}
	if oldest == nil {
		return ""
	}
	return oldest.ID
}

// GuardLeave refuses a departure that would drop the group below two
// members.
func GuardLeave(memberCount int) error {
	if memberCount-1 < 2 {
		return errs.ErrInvalidTransition.WrapMsg("leaving would drop the group below two members")
	}
	return nil
}

// Leave removes the user from a group conversation, promoting a
// replacement admin when the last one walks out.
func (s *Service) Leave(ctx context.Context, convIDHex, userID string) error {
	convID, err := primitive.ObjectIDFromHex(convIDHex)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv, err := s.store.GetByID(ctx, convID)
	if err != nil {
		return err
	}
	if conv.Type != model.ConversationGroup {
		return errs.ErrForbidden.WrapMsg("direct conversations cannot be left; archive instead")
	}
	if !conv.HasParticipant(userID) {
		return errs.ErrNotAParticipant.WrapMsg("leave", "user", userID)
	}
	if err := GuardLeave(len(conv.Participants)); err != nil {
		return err
	}

	if promote := NextAdmin(conv.Participants, userID); promote != "" {
		if err := s.store.PromoteToAdmin(ctx, convID, promote); err != nil {
			return err
		}
	}
	return s.store.RemoveParticipant(ctx, convID, userID)
}
