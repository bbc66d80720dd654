package model

import "testing"

func TestHasParticipantAndIsAdmin(t *testing.T) {
	conv := &Conversation{
		Participants: []Participant{
			{ID: "a", Role: RoleAdmin},
			{ID: "m", Role: RoleMember},
		},
	}
	if !conv.HasParticipant("a") || !conv.HasParticipant("m") {
		t.Fatal("both participants must be found")
	}
	if conv.HasParticipant("x") {
		t.Fatal("stranger must not be a participant")
	}
	if !conv.IsAdmin("a") {
		t.Fatal("a is the admin")
	}
	if conv.IsAdmin("m") || conv.IsAdmin("x") {
		t.Fatal("member and stranger are not admins")
	}
}
