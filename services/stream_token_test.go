package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStreamTokenRoundTrip(t *testing.T) {
	issuer := NewStreamTokenIssuer("test-secret", time.Minute)
	token, expires, err := issuer.Issue("u1", "d1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("token already expired at %s", expires)
	}

	resp, err := issuer.ValidateToken(context.Background(), token, "d1")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if resp.UserID != "u1" || resp.DeviceID != "d1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	if _, err := issuer.ValidateToken(context.Background(), token, "other-device"); !errors.Is(err, ErrInvalidStreamToken) {
		t.Fatalf("device mismatch should fail, got %v", err)
	}
}

func TestStreamTokenRejectsForeignAndExpired(t *testing.T) {
	issuer := NewStreamTokenIssuer("test-secret", time.Minute)
	foreign := NewStreamTokenIssuer("another-secret", time.Minute)

	token, _, err := foreign.Issue("u1", "d1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.ValidateToken(context.Background(), token, "d1"); !errors.Is(err, ErrInvalidStreamToken) {
		t.Fatalf("token signed with another key should fail, got %v", err)
	}

	token, _, err = issuer.Issue("u1", "d1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := issuer.ValidateToken(context.Background(), token, "d1"); !errors.Is(err, ErrInvalidStreamToken) {
		t.Fatalf("expired token should fail, got %v", err)
	}
}
