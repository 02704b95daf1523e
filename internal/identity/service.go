// Package identity resolves bearer tokens to known users.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/meetup-hub/internal/domain"
)

// Authenticator verifies a token and returns the user id it was issued for.
type Authenticator interface {
	ValidateAccessToken(ctx context.Context, token string) (userID string, err error)
}

// Service provides caller identity and user lookups.
type Service struct {
	repo Repository
	auth Authenticator
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator) *Service {
	return &Service{repo: repo, auth: auth}
}

// ValidateToken returns the caller id for token. Tokens of users that no
// longer exist are rejected.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, error) {
	userID, err := s.auth.ValidateAccessToken(ctx, token)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	return userID, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}
