// Package jwt implements HS256 bearer token validation.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/meetup-hub/internal/identity"
	"github.com/golang-jwt/jwt/v5"
)

// Config holds token settings.
type Config struct {
	SecretKey string
	Issuer    string
}

// Authenticator validates tokens signed with a shared secret.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates a new JWT authenticator.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.SecretKey),
		issuer: cfg.Issuer,
	}
}

// ValidateAccessToken parses token and returns its subject.
func (a *Authenticator) ValidateAccessToken(_ context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", identity.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", identity.ErrInvalidToken
	}

	return claims.Subject, nil
}

// IssueAccessToken signs a token for userID valid for ttl.
func (a *Authenticator) IssueAccessToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
