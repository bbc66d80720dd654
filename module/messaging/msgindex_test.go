package messaging

import (
	"testing"
	"time"
)

func TestClientMsgIndexDefaults(t *testing.T) {
	m := NewClientMsgIndex(nil)
	if m.prefix != "caregene:cmid" {
		t.Fatalf("prefix %q", m.prefix)
	}
	if m.ttl != 48*time.Hour {
		t.Fatalf("ttl %v", m.ttl)
	}
	if m.genSID == nil {
		t.Fatal("sid generator must have a default")
	}
}

func TestClientMsgIndexOptions(t *testing.T) {
	m := NewClientMsgIndex(nil,
		WithPrefix("test:idx"),
		WithTTL(time.Minute),
		WithSIDGenerator(func() string { return "fixed" }),
	)
	if got := m.key("u1", "c-42"); got != "test:idx:u1:c-42" {
		t.Fatalf("key %q", got)
	}
	if m.ttl != time.Minute {
		t.Fatalf("ttl %v", m.ttl)
	}
	if m.genSID() != "fixed" {
		t.Fatal("sid generator not applied")
	}
}
