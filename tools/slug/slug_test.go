package slug

import "testing"

func TestMake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Caregivers Connect", "caregivers-connect"},
		{"  Hello,   World!  ", "hello-world"},
		{"already-a-slug", "already-a-slug"},
		{"Trailing punctuation!!!", "trailing-punctuation"},
		{"---", ""},
		{"Ünïcode Tïtle", "ünïcode-tïtle"},
		{"Numbers 123 ok", "numbers-123-ok"},
	}
	for _, tc := range cases {
		if got := Make(tc.in); got != tc.want {
			t.Errorf("Make(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWithSuffix(t *testing.T) {
	if got := WithSuffix("caregivers-connect", 2); got != "caregivers-connect-2" {
		t.Fatalf("got %q", got)
	}
}
