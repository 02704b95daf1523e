package identity

import (
	"context"

	"github.com/bissquit/meetup-hub/internal/domain"
)

// Repository reads users. Users are managed outside this service.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}
