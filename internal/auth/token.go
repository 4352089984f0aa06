// Package auth issues and validates the bearer tokens the portal trusts.
//
// Tokens are HS256 JWTs carrying the user id, role and (for retailers) the
// retailer id. Session and password handling live in the identity service
// that mints tokens; this package only signs and checks them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/telepoint/emi-portal/internal/core"
)

// ErrInvalidToken is returned for any token that fails validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload.
type Claims struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	RetailerID string `json:"retailer_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and validates tokens with a shared secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. Tokens it issues expire after ttl.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for p.
func (m *Manager) Issue(p core.Principal) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:     p.UserID,
		Role:       string(p.Role),
		RetailerID: p.RetailerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate verifies signature, issuer and expiry and returns the principal.
func (m *Manager) Validate(tokenString string) (core.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return core.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return core.Principal{}, ErrInvalidToken
	}

	return core.Principal{
		UserID:     claims.UserID,
		Role:       core.Role(claims.Role),
		RetailerID: claims.RetailerID,
	}, nil
}
