package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/owlchat/koins/internal/ledger"
)

func TestIssueAndParse(t *testing.T) {
	tm := NewTokenManager("secret", "koins", time.Hour)

	token, exp, err := tm.Issue("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if exp.IsZero() {
		t.Fatal("expected expiry")
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	tm := NewTokenManager("secret", "koins", time.Hour)
	token, _, err := tm.Issue("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenManager("other-secret", "koins", time.Hour)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}

	wrongIssuer := NewTokenManager("secret", "elsewhere", time.Hour)
	if _, err := wrongIssuer.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected issuer failure, got %v", err)
	}

	if _, err := tm.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected malformed failure, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", "koins", time.Minute)
	issued := time.Now().Add(-time.Hour)
	tm.now = func() time.Time { return issued }
	token, _, err := tm.Issue("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tm.now = time.Now
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestAccountFor(t *testing.T) {
	hexID := strings.Repeat("0f", ledger.AccountIDSize)
	if got := AccountFor(hexID); got.String() != hexID {
		t.Fatalf("expected hex subject to map to itself, got %s", got)
	}

	want := ledger.AccountID(blake2b.Sum256([]byte("user-42")))
	if got := AccountFor("user-42"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if AccountFor("user-42") == AccountFor("user-43") {
		t.Fatal("distinct subjects must map to distinct accounts")
	}
}
