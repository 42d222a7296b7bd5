package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestTokenService_IssueVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	tok, err := svc.Issue(IdentityClaim{Email: "  A@X.com ", Extra: map[string]any{"name": "Ann", "exp": 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("expected a token")
	}

	claim, err := svc.Verify(tok.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claim.Email != "a@x.com" {
		t.Errorf("expected email 'a@x.com', got %q", claim.Email)
	}
	if claim.Extra["name"] != "Ann" {
		t.Errorf("expected extra name 'Ann', got %v", claim.Extra["name"])
	}
	if _, ok := claim.Extra["exp"]; ok {
		t.Error("reserved claim exp leaked into Extra")
	}
}

func TestTokenService_DefaultTTLIsOneHour(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", 0)
	svc.now = fixedClock(now)

	tok, err := svc.Issue(IdentityClaim{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tok.Exp.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v", now.Add(time.Hour), tok.Exp)
	}
}

func TestTokenService_IssueRequiresEmail(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Issue(IdentityClaim{Extra: map[string]any{"name": "x"}}); !errors.Is(err, ErrMissingEmail) {
		t.Errorf("expected ErrMissingEmail, got %v", err)
	}
}

func TestTokenService_VerifyRejects(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", time.Hour)
	svc.now = fixedClock(now)
	good, err := svc.Issue(IdentityClaim{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenService("other-secret", time.Hour)
	other.now = fixedClock(now)
	foreign, _ := other.Issue(IdentityClaim{Email: "a@x.com"})

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "a@x.com", "exp": now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "a@x.com"}).
		SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
		clock time.Time
	}{
		{"malformed", "not.a.jwt", now},
		{"empty", "", now},
		{"wrong secret", foreign.Token, now},
		{"alg none", none, now},
		{"missing exp", noExp, now},
		{"expired", good.Token, now.Add(2 * time.Hour)},
		{"tampered", good.Token[:strings.LastIndex(good.Token, ".")] + ".AAAA", now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.now = fixedClock(tt.clock)
			if _, err := svc.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
