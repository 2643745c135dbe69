package session

import (
	"testing"
	"time"

	"github.com/citymeds/citymeds-go/pkg/config"
	pkgerrors "github.com/citymeds/citymeds-go/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(config.JWTConfig{Secret: testSecret, Issuer: "citymeds"})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return mgr
}

func signToken(t *testing.T, subject, issuer, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestManagerRequiresSecretAndIssuer(t *testing.T) {
	if _, err := NewManager(config.JWTConfig{Issuer: "citymeds"}); err == nil {
		t.Fatal("expected error without secret")
	}
	if _, err := NewManager(config.JWTConfig{Secret: "s"}); err == nil {
		t.Fatal("expected error without issuer")
	}
}

func TestAuthenticateInstallsIdentity(t *testing.T) {
	mgr := newTestManager(t)

	if _, ok := mgr.UserID(); ok {
		t.Fatal("fresh manager should have no identity")
	}

	sub, err := mgr.Authenticate(signToken(t, "user-1", "citymeds", testSecret))
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("unexpected subject %q", sub)
	}

	got, ok := mgr.UserID()
	if !ok || got != "user-1" {
		t.Fatalf("unexpected identity %q %v", got, ok)
	}

	mgr.Clear()
	if _, ok := mgr.UserID(); ok {
		t.Fatal("expected identity cleared")
	}
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	mgr := newTestManager(t)

	cases := map[string]string{
		"wrong secret": signToken(t, "user-1", "citymeds", "other-secret"),
		"wrong issuer": signToken(t, "user-1", "imposter", testSecret),
		"empty":        "",
	}
	for name, token := range cases {
		if _, err := mgr.Authenticate(token); err == nil {
			t.Fatalf("%s: expected verification error", name)
		} else if !pkgerrors.HasCode(err, pkgerrors.CodePermission) {
			t.Fatalf("%s: expected PERMISSION_DENIED, got %v", name, err)
		}
	}
}

func TestStaticProvider(t *testing.T) {
	if id, ok := Static("user-9").UserID(); !ok || id != "user-9" {
		t.Fatalf("unexpected static identity %q %v", id, ok)
	}
	if _, ok := Static("").UserID(); ok {
		t.Fatal("empty static provider should report no identity")
	}
}
