package service

import (
	"testing"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret")
	token, err := svc.GenerateSessionToken("sess1", "dep1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := svc.ValidateSessionToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.SessionID != "sess1" || claims.DeploymentID != "dep1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := NewAuthService("secret-a").GenerateSessionToken("sess1", "dep1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthService("secret-b").ValidateSessionToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionTokenGarbage(t *testing.T) {
	svc := NewAuthService("test-secret")
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.ValidateSessionToken(token); err != ErrInvalidToken {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}
