package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/citymeds/citymeds-go/pkg/config"
	pkgerrors "github.com/citymeds/citymeds-go/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Provider supplies the current user identity. All remote sync operations
// are no-ops when no identity is present.
type Provider interface {
	UserID() (string, bool)
}

// Manager holds the authenticated identity for this client session, seeded
// from a verified access token issued upstream.
type Manager struct {
	mu     sync.RWMutex
	userID string
	secret []byte
	issuer string
}

// NewManager builds a session manager from JWT verification settings.
func NewManager(cfg config.JWTConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("jwt issuer is required")
	}
	return &Manager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}, nil
}

// UserID returns the current identity and whether one is present.
func (m *Manager) UserID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID, m.userID != ""
}

// Authenticate verifies the access token and installs its subject as the
// current identity.
func (m *Manager) Authenticate(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", pkgerrors.New(pkgerrors.CodePermission, "access token is required")
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePermission, err, "verify access token")
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", pkgerrors.New(pkgerrors.CodePermission, "access token has no subject")
	}

	m.mu.Lock()
	m.userID = claims.Subject
	m.mu.Unlock()
	return claims.Subject, nil
}

// Clear drops the current identity (logout).
func (m *Manager) Clear() {
	m.mu.Lock()
	m.userID = ""
	m.mu.Unlock()
}

// Static returns a Provider pinned to a fixed identity. Used by tests and
// the demo command.
func Static(userID string) Provider {
	return staticProvider(userID)
}

type staticProvider string

func (s staticProvider) UserID() (string, bool) {
	return string(s), s != ""
}
