package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"CareGene/module/messaging/model"
	"CareGene/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDirectKeyForOrderIndependent(t *testing.T) {
	if model.DirectKeyFor("u1", "u2") != model.DirectKeyFor("u2", "u1") {
		t.Fatal("direct key must not depend on argument order")
	}
	if got, want := model.DirectKeyFor("b", "a"), "direct:a:b"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDirectKeyForDelimiterInID(t *testing.T) {
	// ids are opaque; one containing the delimiter must not collide
	// with a different pair
	if model.DirectKeyFor("a:b", "c") == model.DirectKeyFor("a", "b:c") {
		t.Fatal("distinct pairs collided on one direct key")
	}
	if model.DirectKeyFor("a:b", "c") != model.DirectKeyFor("c", "a:b") {
		t.Fatal("escaped key must still be order independent")
	}
}

func TestValidateGroupMembers(t *testing.T) {
	if err := ValidateGroupMembers("creator", []string{"u1", "u2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateGroupMembers("creator", nil); !errors.Is(err, errs.ErrInvalidParticipants) {
		t.Fatalf("empty member list: got %v", err)
	}
	if err := ValidateGroupMembers("creator", []string{"u1", "u1"}); !errors.Is(err, errs.ErrInvalidParticipants) {
		t.Fatalf("duplicate member: got %v", err)
	}
	// the creator is already in the group
	if err := ValidateGroupMembers("creator", []string{"creator"}); !errors.Is(err, errs.ErrInvalidParticipants) {
		t.Fatalf("creator as member: got %v", err)
	}
	// a member with no identity would be unreachable forever
	if err := ValidateGroupMembers("creator", []string{""}); !errors.Is(err, errs.ErrInvalidParticipants) {
		t.Fatalf("empty participant id: got %v", err)
	}
}

func TestFindOrCreateDirectRejectsEmptyID(t *testing.T) {
	svc := NewService(nil, nil, nil, "")
	if _, _, err := svc.FindOrCreateDirect(context.Background(), UserSnapshot{ID: "u1"}, UserSnapshot{}); !errors.Is(err, errs.ErrInvalidParticipants) {
		t.Fatalf("empty counterpart id: got %v", err)
	}
	if _, _, err := svc.FindOrCreateDirect(context.Background(), UserSnapshot{}, UserSnapshot{ID: "u2"}); !errors.Is(err, errs.ErrInvalidParticipants) {
		t.Fatalf("empty actor id: got %v", err)
	}
}

func TestGuardLeave(t *testing.T) {
	if err := GuardLeave(3); err != nil {
		t.Fatalf("three members, one may leave: %v", err)
	}
	// a group of two would degrade into a one-member conversation
	if err := GuardLeave(2); !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("two members: got %v", err)
	}
}

func TestProjectionFilterGuardsOnTimestamp(t *testing.T) {
	conv := &model.Conversation{}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	filter := ProjectionFilter(conv.ID, ts)

	or, ok := filter["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected two-branch $or, got %v", filter["$or"])
	}
	missing := or[0].(bson.M)[model.ConvFieldLastMessage].(bson.M)
	if missing["$exists"] != false {
		t.Fatalf("first branch must match conversations without a last message: %v", missing)
	}
	older := or[1].(bson.M)[model.ConvFieldLastMessageTS].(bson.M)
	if older["$lt"] != ts {
		t.Fatalf("second branch must require a strictly older snapshot: %v", older)
	}
}

func TestProjectionUpdateBumpsUpdatedAt(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lm := &model.LastMessage{Content: "hi", Timestamp: ts}
	set := ProjectionUpdate(lm)["$set"].(bson.M)
	if set[model.ConvFieldLastMessage] != lm {
		t.Fatal("last message snapshot not installed")
	}
	if set[model.ConvFieldUpdatedAt] != ts {
		t.Fatal("updated_at must follow the message timestamp")
	}
}

func TestListFilter(t *testing.T) {
	f := ListFilter("u1", Cursor{}, nil)
	if f[model.ConvFieldParticipantIDs] != "u1" {
		t.Fatalf("missing participant constraint: %v", f)
	}
	if _, ok := f["$or"]; ok {
		t.Fatal("zero cursor must not constrain the listing")
	}

	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	beforeID := primitive.NewObjectID()
	f = ListFilter("u1", Cursor{Before: before, BeforeID: beforeID}, nil)
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected a two-branch boundary, got %v", f["$or"])
	}
	lt := or[0].(bson.M)[model.ConvFieldUpdatedAt].(bson.M)
	if lt["$lt"] != before {
		t.Fatalf("primary boundary must be exclusive on updated_at: %v", lt)
	}
	// the tie branch keeps conversations sharing the boundary
	// timestamp from being skipped between pages
	tie := or[1].(bson.M)
	if tie[model.ConvFieldUpdatedAt] != before {
		t.Fatalf("tie branch must pin the boundary timestamp: %v", tie)
	}
	if tie[model.ConvFieldID].(bson.M)["$lt"] != beforeID {
		t.Fatalf("tie branch must page by _id: %v", tie)
	}

	// a time-only cursor still works, without the tie branch
	f = ListFilter("u1", Cursor{Before: before}, nil)
	if or := f["$or"].(bson.A); len(or) != 1 {
		t.Fatalf("time-only cursor must have a single branch: %v", or)
	}
}

func TestDirectStatePatch(t *testing.T) {
	yes := true
	set, err := DirectStatePatch(SettingsPatch{IsMuted: &yes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set[model.StateFieldIsMuted] != true {
		t.Fatalf("mute not applied: %v", set)
	}
	if _, ok := set[model.StateFieldIsArchived]; ok {
		t.Fatal("unset fields must not be touched")
	}

	if _, err := DirectStatePatch(SettingsPatch{AllowInvites: &yes}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("allowInvites on a direct conversation: got %v", err)
	}
}

func TestGroupSettingsPatch(t *testing.T) {
	yes, no := true, false
	set := GroupSettingsPatch(SettingsPatch{IsArchived: &yes, AllowInvites: &no})
	if set["settings.is_archived"] != true || set["settings.allow_invites"] != false {
		t.Fatalf("unexpected patch: %v", set)
	}
	if len(set) != 2 {
		t.Fatalf("unset fields leaked into the patch: %v", set)
	}
}

func TestNextAdmin(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	participants := []model.Participant{
		{ID: "admin", Role: model.RoleAdmin, JoinedAt: base},
		{ID: "old", Role: model.RoleMember, JoinedAt: base.Add(time.Hour)},
		{ID: "new", Role: model.RoleMember, JoinedAt: base.Add(2 * time.Hour)},
	}

	if got := NextAdmin(participants, "admin"); got != "old" {
		t.Fatalf("last admin leaving must promote the oldest member, got %q", got)
	}
	if got := NextAdmin(participants, "old"); got != "" {
		t.Fatalf("member leaving must not promote anyone, got %q", got)
	}

	twoAdmins := append([]model.Participant{
		{ID: "admin2", Role: model.RoleAdmin, JoinedAt: base},
	}, participants...)
	if got := NextAdmin(twoAdmins, "admin"); got != "" {
		t.Fatalf("an admin remains, no promotion needed, got %q", got)
	}

	solo := []model.Participant{{ID: "admin", Role: model.RoleAdmin, JoinedAt: base}}
	if got := NextAdmin(solo, "admin"); got != "" {
		t.Fatalf("nobody left to promote, got %q", got)
	}
}
