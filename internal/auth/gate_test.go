package auth

import (
	"errors"
	"testing"
)

func TestGateCheck(t *testing.T) {
	g := NewGate("s3cret")
	cases := map[string]bool{
		"s3cret":     true,
		"  s3cret\n": true,
		"S3cret":     false,
		"s3cre":      false,
		"":           false,
	}
	for in, want := range cases {
		if got := g.Check(in); got != want {
			t.Fatalf("Check(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGateEmptySecretNeverMatches(t *testing.T) {
	for _, g := range []*Gate{NewGate(""), NewGate("   "), nil} {
		if g.Check("") || g.Check(" ") {
			t.Fatalf("empty secret authenticated")
		}
	}
}

func TestGateVerify(t *testing.T) {
	g := NewGate("pw")
	if err := g.Verify("pw"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := g.Verify("nope"); !errors.Is(err, ErrAuthFailure) {
		t.Fatalf("expected ErrAuthFailure, got %v", err)
	}
}
