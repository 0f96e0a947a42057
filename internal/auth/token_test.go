package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestTokens(t *testing.T, now *time.Time) *Tokens {
	t.Helper()
	tokens, err := NewTokens("test-secret", "caredesk-test", 15*time.Minute,
		WithClock(func() time.Time { return *now }))
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tokens
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, &now)

	token, expiresAt, err := tokens.Issue("alice@example.com", map[string]string{ClaimDeletePatient: ""})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got, want := expiresAt.Sub(now.UTC()).Round(time.Second), 15*time.Minute; got != want {
		t.Fatalf("unexpected ttl: got %v want %v", got, want)
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if !claims.HasClaim(ClaimDeletePatient) {
		t.Fatalf("expected %s claim to survive the round trip", ClaimDeletePatient)
	}
	if claims.HasClaim("UpdatePatient") {
		t.Fatalf("unexpected claim present")
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, &now)

	if _, _, err := tokens.Issue("   ", nil); err == nil {
		t.Fatalf("expected error for blank subject")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, &now)

	token, _, err := tokens.Issue("alice@example.com", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = now.Add(16 * time.Minute)
	_, err = tokens.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTamperedClaims(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, &now)

	token, _, err := tokens.Issue("alice@example.com", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Graft a DeletePatient claim into the payload without re-signing.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	body["claims"] = map[string]string{ClaimDeletePatient: ""}
	forged, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = tokens.Verify(strings.Join(parts, "."))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestVerifyForgedTokenNeverReportedExpired(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, &now)

	token, _, err := tokens.Issue("alice@example.com", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// Corrupt the signature, then move past expiry. The signature failure
	// must win over the expiry failure.
	forged := token[:len(token)-4] + "AAAA"
	now = now.Add(time.Hour)

	_, err = tokens.Verify(forged)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Fatalf("forged token must not be classified as expired")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, &now)

	other, err := NewTokens("another-secret", "caredesk-test", 15*time.Minute,
		WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	token, _, err := other.Issue("alice@example.com", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := tokens.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, &now)

	for _, raw := range []string{"", "   ", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}
