package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier("test-secret-0123456789", 72*time.Hour, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	v := newTestVerifier(t, now)

	token, expiresAt, err := v.Issue(Identity{
		UserID:      42,
		Account:     "editor",
		Platform:    "web",
		Fingerprint: "fp-1",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := now.Add(72 * time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}

	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != 42 || id.Account != "editor" || id.Platform != "web" || id.Fingerprint != "fp-1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if !id.LoginAt.Equal(now) {
		t.Fatalf("LoginAt = %v, want %v", id.LoginAt, now)
	}
}

func TestVerifyFailures(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	v := newTestVerifier(t, now)
	token, _, err := v.Issue(Identity{UserID: 7, Account: "u"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("empty", func(t *testing.T) {
		if _, err := v.Verify(""); !errors.Is(err, ErrMalformedCredential) {
			t.Fatalf("err = %v, want ErrMalformedCredential", err)
		}
	})
	t.Run("garbage", func(t *testing.T) {
		if _, err := v.Verify("not.a.jwt"); !errors.Is(err, ErrMalformedCredential) {
			t.Fatalf("err = %v, want ErrMalformedCredential", err)
		}
	})
	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewVerifier("another-secret-value", 72*time.Hour, WithClock(func() time.Time { return now }))
		if err != nil {
			t.Fatalf("NewVerifier: %v", err)
		}
		if _, err := other.Verify(token); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("err = %v, want ErrSignatureInvalid", err)
		}
	})
	t.Run("expired", func(t *testing.T) {
		late, err := NewVerifier("test-secret-0123456789", 72*time.Hour,
			WithClock(func() time.Time { return now.Add(73 * time.Hour) }))
		if err != nil {
			t.Fatalf("NewVerifier: %v", err)
		}
		if _, err := late.Verify(token); !errors.Is(err, ErrExpiredCredential) {
			t.Fatalf("err = %v, want ErrExpiredCredential", err)
		}
	})
	t.Run("wrong issuer", func(t *testing.T) {
		imposter, err := NewVerifier("test-secret-0123456789", 72*time.Hour,
			WithIssuer("someone-else"), WithClock(func() time.Time { return now }))
		if err != nil {
			t.Fatalf("NewVerifier: %v", err)
		}
		foreign, _, err := imposter.Issue(Identity{UserID: 7})
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, err := v.Verify(foreign); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("err = %v, want ErrSignatureInvalid", err)
		}
	})
}

func TestNewVerifierValidation(t *testing.T) {
	if _, err := NewVerifier("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewVerifier("secret", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestAccessTokens(t *testing.T) {
	at, err := NewAccessTokens("access-secret")
	if err != nil {
		t.Fatalf("NewAccessTokens: %v", err)
	}
	token, err := at.Mint("ops-console")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	subject, err := at.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if subject != "ops-console" {
		t.Fatalf("subject = %q, want ops-console", subject)
	}

	if _, err := at.Verify("no-dot"); !errors.Is(err, ErrMalformedCredential) {
		t.Fatalf("err = %v, want ErrMalformedCredential", err)
	}
	other, err := NewAccessTokens("different-secret")
	if err != nil {
		t.Fatalf("NewAccessTokens: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("err = %v, want ErrSignatureInvalid", err)
	}
}
