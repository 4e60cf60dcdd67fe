package auth

import (
	"testing"
	"time"
)

func newTestManager(ttl time.Duration) *Manager {
	return &Manager{
		Secret: []byte("test-secret"),
		TTL:    ttl,
		Issuer: "portfolio-api",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager(7 * 24 * time.Hour)
	token, err := m.NewToken("admin@example.com", "admin")
	if err != nil {
		t.Fatalf("NewToken error: %v", err)
	}

	claims := m.Parse(token)
	if claims == nil {
		t.Fatal("expected valid claims, got nil")
	}
	if claims.Email != "admin@example.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTamperedToken(t *testing.T) {
	m := newTestManager(time.Hour)
	token, err := m.NewToken("admin@example.com", "admin")
	if err != nil {
		t.Fatalf("NewToken error: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if claims := m.Parse(tampered); claims != nil {
		t.Fatal("expected nil claims for tampered token")
	}
}

func TestParseExpiredToken(t *testing.T) {
	m := newTestManager(-time.Minute)
	token, err := m.NewToken("admin@example.com", "admin")
	if err != nil {
		t.Fatalf("NewToken error: %v", err)
	}

	if claims := m.Parse(token); claims != nil {
		t.Fatal("expected nil claims for expired token")
	}
}

func TestParseWrongSecret(t *testing.T) {
	m := newTestManager(time.Hour)
	token, err := m.NewToken("admin@example.com", "admin")
	if err != nil {
		t.Fatalf("NewToken error: %v", err)
	}

	other := &Manager{Secret: []byte("other-secret"), TTL: time.Hour}
	if claims := other.Parse(token); claims != nil {
		t.Fatal("expected nil claims for wrong secret")
	}
}

func TestParseGarbage(t *testing.T) {
	m := newTestManager(time.Hour)
	if claims := m.Parse("not-a-token"); claims != nil {
		t.Fatal("expected nil claims for garbage input")
	}
}
