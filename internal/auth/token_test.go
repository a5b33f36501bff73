package auth

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func TestIssueAndVerifyToken(t *testing.T) {
	token, err := IssueToken(42, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	userID, err := VerifyToken(token, testSecret)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user id 42, got %d", userID)
	}
}

func TestVerifyTokenEachIssueIsIndependentlyValid(t *testing.T) {
	first, err := IssueToken(7, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue first token: %v", err)
	}
	second, err := IssueToken(7, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue second token: %v", err)
	}

	for _, token := range []string{first, second} {
		userID, err := VerifyToken(token, testSecret)
		if err != nil {
			t.Fatalf("verify token: %v", err)
		}
		if userID != 7 {
			t.Fatalf("expected user id 7, got %d", userID)
		}
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := IssueToken(42, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := VerifyToken(token, []byte("other-secret")); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	token, err := IssueToken(42, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := VerifyToken(token, testSecret); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestVerifyTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := VerifyToken(token, testSecret); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated for %q, got %v", token, err)
		}
	}
}

func TestIssueTokenHonorsCallerTTL(t *testing.T) {
	// Expiry is always issuance + ttl; the issuer never substitutes a
	// default, so a non-positive ttl yields a token that is already dead.
	for _, ttl := range []time.Duration{0, -time.Minute} {
		token, err := IssueToken(1, testSecret, ttl)
		if err != nil {
			t.Fatalf("issue token with ttl %v: %v", ttl, err)
		}
		if _, err := VerifyToken(token, testSecret); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated for ttl %v, got %v", ttl, err)
		}
	}

	token, err := IssueToken(1, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := VerifyToken(token, testSecret); err != nil {
		t.Fatalf("verify token: %v", err)
	}
}
