package auth

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-crm/core"
)

const defaultSessionTTL = 12 * time.Hour

// SessionClaims is the verified content of a dashboard session token. Role is
// advisory: permission checks always re-read membership from the store.
type SessionClaims struct {
	UserID      string
	WorkspaceID string
	Role        core.MemberRole
	Email       string
	ExpiresAt   time.Time
}

type sessionJWTClaims struct {
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session tokens for dashboard
// users.
type SessionManager struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
	Now    func() time.Time
}

func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{
		Secret: strings.TrimSpace(secret),
		Issuer: "go-crm",
		TTL:    defaultSessionTTL,
		Leeway: 30 * time.Second,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *SessionManager) Issue(userID string, workspaceID string, role core.MemberRole, email string) (string, error) {
	if m == nil || strings.TrimSpace(m.Secret) == "" {
		return "", fmt.Errorf("auth: session signing secret is required")
	}
	userID = strings.TrimSpace(userID)
	workspaceID = strings.TrimSpace(workspaceID)
	if userID == "" || workspaceID == "" {
		return "", fmt.Errorf("auth: session requires user and workspace ids")
	}
	if _, err := core.ParseMemberRole(string(role)); err != nil {
		return "", err
	}

	now := m.now()
	claims := sessionJWTClaims{
		WorkspaceID: workspaceID,
		Role:        string(role),
		Email:       strings.TrimSpace(strings.ToLower(email)),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, nil
}

func (m *SessionManager) Verify(token string) (SessionClaims, error) {
	if m == nil || strings.TrimSpace(m.Secret) == "" {
		return SessionClaims{}, fmt.Errorf("auth: session signing secret is required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return SessionClaims{}, fmt.Errorf("auth: session token is required")
	}

	claims := &sessionJWTClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method %q", t.Method.Alg())
			}
			return []byte(m.Secret), nil
		},
		jwt.WithIssuer(m.issuer()),
		jwt.WithLeeway(m.leeway()),
		jwt.WithTimeFunc(m.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("auth: verify session token: %w", err)
	}
	if !parsed.Valid {
		return SessionClaims{}, fmt.Errorf("auth: session token is invalid")
	}

	role, err := core.ParseMemberRole(claims.Role)
	if err != nil {
		return SessionClaims{}, err
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time.UTC()
	}
	return SessionClaims{
		UserID:      claims.Subject,
		WorkspaceID: claims.WorkspaceID,
		Role:        role,
		Email:       claims.Email,
		ExpiresAt:   expiresAt,
	}, nil
}

func (m *SessionManager) now() time.Time {
	if m != nil && m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *SessionManager) issuer() string {
	if m != nil && strings.TrimSpace(m.Issuer) != "" {
		return strings.TrimSpace(m.Issuer)
	}
	return "go-crm"
}

func (m *SessionManager) ttl() time.Duration {
	if m != nil && m.TTL > 0 {
		return m.TTL
	}
	return defaultSessionTTL
}

func (m *SessionManager) leeway() time.Duration {
	if m != nil && m.Leeway > 0 {
		return m.Leeway
	}
	return 30 * time.Second
}
