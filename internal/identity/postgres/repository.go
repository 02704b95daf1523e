// Package postgres provides PostgreSQL implementation of identity repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements identity.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	query := `SELECT id, name, email, created_at FROM users WHERE id = $1`

	var user domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts a user. Accounts are provisioned outside the HTTP API,
// this is used by seeding and tests.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRow(ctx, query, user.Name, user.Email).Scan(&user.ID, &user.CreatedAt); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
