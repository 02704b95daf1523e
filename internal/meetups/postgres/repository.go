// Package postgres provides PostgreSQL implementation of meetups repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/meetups"
	"github.com/bissquit/meetup-hub/internal/pkg/ctxlog"
	"github.com/bissquit/meetup-hub/internal/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionSlotConstraint = "subscriptions_user_slot_key"

const selectMeetup = `
	SELECT m.id, m.title, m.description, m.location, m.scheduled_at, m.file_id,
	       m.organizer_id, u.name, u.email, m.created_at, m.updated_at
	FROM meetups m
	JOIN users u ON u.id = m.organizer_id
`

// Repository implements meetups.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateMeetup inserts a new meetup.
func (r *Repository) CreateMeetup(ctx context.Context, meetup *domain.Meetup) error {
	query := `
		INSERT INTO meetups (title, description, location, scheduled_at, file_id, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		meetup.Title,
		meetup.Description,
		meetup.Location,
		meetup.ScheduledAt,
		meetup.FileID,
		meetup.OrganizerID,
	).Scan(&meetup.ID, &meetup.CreatedAt, &meetup.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert meetup: %w", err)
	}
	return nil
}

// GetMeetupByID retrieves a meetup with its organizer.
func (r *Repository) GetMeetupByID(ctx context.Context, id string) (*domain.Meetup, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrMeetupNotFound
	}

	meetup, err := scanMeetup(r.db.QueryRow(ctx, selectMeetup+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMeetupNotFound
		}
		return nil, fmt.Errorf("get meetup: %w", err)
	}
	return meetup, nil
}

// UpdateMeetup applies changes to the locked row and moves subscription
// slots in one transaction.
func (r *Repository) UpdateMeetup(ctx context.Context, id string, apply func(*domain.Meetup) error) (*domain.Meetup, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrMeetupNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			ctxlog.FromContext(ctx).Error("failed to rollback transaction", "error", err)
		}
	}()

	meetup, err := scanMeetup(tx.QueryRow(ctx, selectMeetup+` WHERE m.id = $1 FOR UPDATE OF m`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMeetupNotFound
		}
		return nil, fmt.Errorf("lock meetup: %w", err)
	}

	oldSlot := meetup.Slot()
	if err := apply(meetup); err != nil {
		return nil, err
	}

	query := `
		UPDATE meetups
		SET title = $2, description = $3, location = $4, scheduled_at = $5, file_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query,
		meetup.ID,
		meetup.Title,
		meetup.Description,
		meetup.Location,
		meetup.ScheduledAt,
		meetup.FileID,
	).Scan(&meetup.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update meetup: %w", err)
	}

	if newSlot := meetup.Slot(); !oldSlot.Equal(newSlot) {
		_, err = tx.Exec(ctx, `UPDATE subscriptions SET slot_at = $2 WHERE meetup_id = $1`, meetup.ID, newSlot)
		if err != nil {
			if postgres.IsConstraintViolation(err, postgres.UniqueViolation, subscriptionSlotConstraint) {
				return nil, meetups.ErrRescheduleConflict
			}
			return nil, fmt.Errorf("move subscription slots: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return meetup, nil
}

// DeleteMeetup deletes a meetup. Subscriptions are removed by cascade.
func (r *Repository) DeleteMeetup(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrMeetupNotFound
	}

	result, err := r.db.Exec(ctx, `DELETE FROM meetups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meetup: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrMeetupNotFound
	}
	return nil
}

// ListMeetupsBetween lists meetups in [from, to) ordered by time.
func (r *Repository) ListMeetupsBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]domain.Meetup, error) {
	query := selectMeetup + `
		WHERE m.scheduled_at >= $1 AND m.scheduled_at < $2
		ORDER BY m.scheduled_at, m.id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list meetups: %w", err)
	}
	return collectMeetups(rows)
}

// ListMeetupsByOrganizer lists an organizer's meetups, upcoming first.
func (r *Repository) ListMeetupsByOrganizer(ctx context.Context, organizerID string) ([]domain.Meetup, error) {
	if _, err := uuid.Parse(organizerID); err != nil {
		return []domain.Meetup{}, nil
	}

	query := selectMeetup + `
		WHERE m.organizer_id = $1
		ORDER BY m.scheduled_at < NOW(), m.scheduled_at
	`
	rows, err := r.db.Query(ctx, query, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer meetups: %w", err)
	}
	return collectMeetups(rows)
}

func collectMeetups(rows pgx.Rows) ([]domain.Meetup, error) {
	defer rows.Close()

	meetups := make([]domain.Meetup, 0)
	for rows.Next() {
		m, err := scanMeetup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meetup: %w", err)
		}
		meetups = append(meetups, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetups: %w", err)
	}
	return meetups, nil
}

func scanMeetup(row pgx.Row) (*domain.Meetup, error) {
	var m domain.Meetup
	var organizer domain.Organizer
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Location,
		&m.ScheduledAt,
		&m.FileID,
		&m.OrganizerID,
		&organizer.Name,
		&organizer.Email,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Organizer = &organizer
	return &m, nil
}
