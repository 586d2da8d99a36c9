// Package auth is the identity provider for the API: it verifies HS256 bearer
// tokens and carries the resulting domain.Actor through the request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/itinera/backend/internal/domain"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and verifies access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. secret should be at least 32
// characters for HS256.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// accessClaims extends the registered claims with the caller's role.
type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Issue signs a token for userID with the given role, valid for ttl.
// Used by the operator CLI and tests; the API itself never issues tokens.
func (m *TokenManager) Issue(userID string, role domain.Role, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return "", fmt.Errorf("auth: unknown role %q", role)
	}

	now := m.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and returns the actor it names.
// A missing role claim means domain.RoleUser.
func (m *TokenManager) Verify(token string) (domain.Actor, error) {
	if token == "" {
		return domain.Actor{}, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return domain.Actor{}, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return domain.Actor{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role := domain.Role(claims.Role)
	switch role {
	case "":
		role = domain.RoleUser
	case domain.RoleUser, domain.RoleAdmin:
	default:
		return domain.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return domain.Actor{UserID: claims.Subject, Role: role}, nil
}
