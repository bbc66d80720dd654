package ids

import "testing"

func TestGenerateMonotonicAndUnique(t *testing.T) {
	const n = 10000
	seen := make(map[int64]struct{}, n)
	last := int64(0)
	for i := 0; i < n; i++ {
		id := Generate()
		if id <= last {
			t.Fatalf("ids must be strictly increasing: %d after %d", id, last)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
		last = id
	}
}

func TestSetNodeIDRejectsOutOfRange(t *testing.T) {
	SetNodeID(5000)
	if defaultGen.nodeID != 1 {
		t.Fatalf("out-of-range node id should fall back to 1, got %d", defaultGen.nodeID)
	}
	SetNodeID(7)
	if defaultGen.nodeID != 7 {
		t.Fatalf("got %d", defaultGen.nodeID)
	}
}

func TestMessageIDNonEmptyAndDistinct(t *testing.T) {
	a, b := MessageID(), MessageID()
	if a == "" || a == b {
		t.Fatalf("got %q and %q", a, b)
	}
}
