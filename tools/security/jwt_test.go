package security

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundtrip(t *testing.T) {
	opts := DefaultOptions([]byte("shared-secret"))
	token, exp, err := Generate(opts, "gateway")
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry must be in the future")
	}
	sub, err := Verify(opts, token)
	if err != nil {
		t.Fatal(err)
	}
	if sub != "gateway" {
		t.Fatalf("subject %q", sub)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("right")), "gateway")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(DefaultOptions([]byte("wrong")), token); err == nil {
		t.Fatal("wrong secret must fail verification")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := Options{Secret: []byte("s"), TTL: time.Millisecond}
	token, _, err := Generate(opts, "gateway")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(1100 * time.Millisecond) // exp has second granularity
	if _, err := Verify(opts, token); err == nil {
		t.Fatal("expired token must fail verification")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := Verify(DefaultOptions([]byte("s")), "not.a.token"); err == nil {
		t.Fatal("garbage must fail verification")
	}
}
