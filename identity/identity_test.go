package identity

import (
	"context"
	"regexp"
	"testing"
)

func TestResolveIsStable(t *testing.T) {
	a := Resolve("session-abc")
	b := Resolve("session-abc")
	if a != b {
		t.Fatalf("expected stable id, got %q and %q", a, b)
	}
	if Resolve("session-xyz") == a {
		t.Fatalf("expected different tokens to map to different ids")
	}
	if !regexp.MustCompile(`^[0-9a-f]{16}$`).MatchString(a) {
		t.Fatalf("expected 16 hex chars, got %q", a)
	}
}

func TestResolveTrimsToken(t *testing.T) {
	if Resolve("  token ") != Resolve("token") {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
}

func TestResolveEmptyFallsBackToAnonymous(t *testing.T) {
	for _, token := range []string{"", "   "} {
		if got := Resolve(token); got != Anonymous {
			t.Fatalf("expected %q for %q, got %q", Anonymous, token, got)
		}
	}
}

func TestUserContext(t *testing.T) {
	if got := UserFrom(context.Background()); got != Anonymous {
		t.Fatalf("expected anonymous without user, got %q", got)
	}
	ctx := WithUser(context.Background(), "abc123")
	if got := UserFrom(ctx); got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}
}
