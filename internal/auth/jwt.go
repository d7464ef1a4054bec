package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenLifetime is how long an issued token stays valid.
const TokenLifetime = 2 * time.Hour

var (
	// ErrMissingSecret is returned when a TokenManager is built without a signing secret.
	ErrMissingSecret = errors.New("jwt signing secret is required")
	// ErrInvalidToken covers every reason a presented token is rejected.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims defines the JWT claims structure. The private claims are exactly the
// subject id and email; exp, iat and jti ride in the registered claims.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the verified subject attached to an authenticated request.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// RevocationChecker reports revoked tokens. IsRevoked covers single token
// ids; RevokedBefore returns the cutoff at or before which every token of the
// subject was issued and is now void.
type RevocationChecker interface {
	IsRevoked(tokenID string) bool
	RevokedBefore(subject string) (time.Time, bool)
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret  []byte
	now     func() time.Time
	revoked RevocationChecker
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// WithRevocationChecker makes Verify reject revoked token ids.
func WithRevocationChecker(rc RevocationChecker) TokenOption {
	return func(m *TokenManager) { m.revoked = rc }
}

// NewTokenManager creates a TokenManager signing with secret.
func NewTokenManager(secret string, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	m := &TokenManager{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue creates a signed token for the given subject. It returns the token
// and its expiry.
func (m *TokenManager) Issue(userID, email string) (string, time.Time, error) {
	issuedAt := m.now()
	// iat has one-second resolution; keep new tokens clear of a cutoff
	// recorded in the same second.
	if cutoff, ok := m.cutoff(userID); ok {
		if floor := cutoff.Add(time.Second); issuedAt.Before(floor) {
			issuedAt = floor
		}
	}
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify parses and validates a token string. Any failure, including a
// revoked token id, wraps ErrInvalidToken.
func (m *TokenManager) Verify(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.Email == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}
	if m.revoked != nil && m.revoked.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	if cutoff, ok := m.cutoff(claims.UserID); ok {
		if claims.IssuedAt == nil || claims.IssuedAt.Unix() <= cutoff.Unix() {
			return nil, fmt.Errorf("%w: issued before subject revocation", ErrInvalidToken)
		}
	}

	return &Identity{
		ID:        claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

// cutoff returns the subject's revocation time truncated to whole seconds.
func (m *TokenManager) cutoff(subject string) (time.Time, bool) {
	if m.revoked == nil {
		return time.Time{}, false
	}
	at, ok := m.revoked.RevokedBefore(subject)
	if !ok {
		return time.Time{}, false
	}
	return at.Truncate(time.Second), true
}
