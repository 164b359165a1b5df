package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"airline/internal/types"
)

// Claims is the JWT payload carried by access tokens. The subject is the
// user ID; username and role ride along so requests are authorized without a
// database round trip.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens. It implements the
// core.Authenticator seam via ResolveToken.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  types.Clock
}

// NewTokenManager creates a TokenManager with the given signing secret and
// token lifetime.
func NewTokenManager(secret types.SecretString, ttl time.Duration, clock types.Clock) *TokenManager {
	return &TokenManager{
		secret: secret.Bytes(),
		ttl:    ttl,
		clock:  clock,
	}
}

// Issue creates a signed token for the user, expiring after the configured
// lifetime.
func (tm *TokenManager) Issue(u *types.User) (string, error) {
	now := tm.clock.Now()
	claims := Claims{
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to sign token", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning the Actor it
// represents. An expired token yields auth_token_expired; any other
// validation failure (bad signature, malformed payload, unknown role) yields
// auth_token_invalid.
func (tm *TokenManager) Verify(tokenString string) (*types.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Reject any signing method other than HMAC to prevent algorithm
		// substitution.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, types.NewAppError(types.ErrCodeAuthTokenExpired, "token has expired", err)
		}
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "invalid token", nil)
	}

	role, err := types.ParseRole(claims.Role)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "invalid token", err)
	}

	return &types.Actor{
		ID:       claims.Subject,
		Username: claims.Username,
		Role:     role,
	}, nil
}

// ResolveToken implements the authenticator seam used by the API middleware.
func (tm *TokenManager) ResolveToken(_ context.Context, token string) (*types.Actor, error) {
	return tm.Verify(token)
}
