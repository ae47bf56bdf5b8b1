package security

import (
	"strings"
	"testing"
)

func TestNewShortCodeShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := NewShortCode()
		if err != nil {
			t.Fatalf("new short code: %v", err)
		}
		if len(code) != ShortCodeLength {
			t.Fatalf("expected %d characters, got %q", ShortCodeLength, code)
		}
		for _, ch := range code {
			if !strings.ContainsRune(shortCodeAlphabet, ch) {
				t.Fatalf("character %q outside alphabet in %q", ch, code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 199 {
		t.Fatalf("suspicious collision rate: %d unique of 200", len(seen))
	}
}

func TestNewOpaqueTokenIsURLSafe(t *testing.T) {
	a, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("new opaque token: %v", err)
	}
	b, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("new opaque token: %v", err)
	}
	if a == b {
		t.Fatal("two tokens must not collide")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("token %q is not URL-safe", a)
	}
}
