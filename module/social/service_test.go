package social

import (
	"context"
	"errors"
	"testing"

	"CareGene/module/social/model"
	"CareGene/tools/errs"
)

func TestPairKeyForOrderIndependent(t *testing.T) {
	if model.PairKeyFor("u1", "u2") != model.PairKeyFor("u2", "u1") {
		t.Fatal("pair key must not depend on direction")
	}
	if got, want := model.PairKeyFor("b", "a"), "a:b"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPairKeyForDelimiterInID(t *testing.T) {
	// a colliding key would make Request report a relationship that
	// belongs to a different pair
	if model.PairKeyFor("a:b", "c") == model.PairKeyFor("a", "b:c") {
		t.Fatal("distinct pairs collided on one pair key")
	}
}

func TestRequestRejectsEmptyID(t *testing.T) {
	svc := NewService(nil, nil)
	if _, err := svc.Request(context.Background(), model.Party{ID: "u1"}, model.Party{}, ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty recipient id: got %v", err)
	}
	if _, err := svc.Request(context.Background(), model.Party{}, model.Party{ID: "u2"}, ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty requester id: got %v", err)
	}
}

func TestGuardRespond(t *testing.T) {
	if err := GuardRespond(model.FriendshipPending); err != nil {
		t.Fatalf("pending must allow a response: %v", err)
	}
	// a second accept or any response after the fact is a state error
	for _, status := range []model.FriendshipStatus{model.FriendshipAccepted, model.FriendshipBlocked} {
		if err := GuardRespond(status); !errors.Is(err, errs.ErrInvalidTransition) {
			t.Fatalf("status %q: got %v, want invalid transition", status, err)
		}
	}
}
