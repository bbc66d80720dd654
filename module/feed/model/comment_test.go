package model

import "testing"

func TestValidReaction(t *testing.T) {
	for _, r := range []ReactionType{ReactionLike, ReactionLove, ReactionLaugh, ReactionSad, ReactionAngry} {
		if !ValidReaction(r) {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []ReactionType{"", "thumbsup", "LIKE"} {
		if ValidReaction(r) {
			t.Errorf("%q should be invalid", r)
		}
	}
}
