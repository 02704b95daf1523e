// Package postgres provides PostgreSQL implementation of subscriptions repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/pkg/ctxlog"
	"github.com/bissquit/meetup-hub/internal/pkg/postgres"
	"github.com/bissquit/meetup-hub/internal/subscriptions"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotConstraint = "subscriptions_user_slot_key"

// Repository implements subscriptions.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSubscription inserts a subscription in the slot its meetup currently
// occupies. The meetup row is share-locked so a concurrent reschedule waits
// for this insert and moves its slot too.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	if _, err := uuid.Parse(sub.MeetupID); err != nil {
		return domain.ErrMeetupNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			ctxlog.FromContext(ctx).Error("failed to rollback transaction", "error", err)
		}
	}()

	var scheduledAt time.Time
	err = tx.QueryRow(ctx, `SELECT scheduled_at FROM meetups WHERE id = $1 FOR SHARE`, sub.MeetupID).Scan(&scheduledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrMeetupNotFound
		}
		return fmt.Errorf("lock meetup: %w", err)
	}
	sub.SlotAt = domain.SlotOf(scheduledAt)

	query := `
		INSERT INTO subscriptions (user_id, meetup_id, slot_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, query, sub.UserID, sub.MeetupID, sub.SlotAt).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		if postgres.IsConstraintViolation(err, postgres.UniqueViolation, slotConstraint) {
			return subscriptions.ErrSlotTaken
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// HasSubscriptionInSlot reports whether the user holds a subscription in slot.
func (r *Repository) HasSubscriptionInSlot(ctx context.Context, userID string, slot time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM subscriptions WHERE user_id = $1 AND slot_at = $2)`
	if err := r.db.QueryRow(ctx, query, userID, domain.SlotOf(slot)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return exists, nil
}

// ListUserSubscriptions lists the user's subscriptions to meetups at or after from.
func (r *Repository) ListUserSubscriptions(ctx context.Context, userID string, from time.Time) ([]domain.SubscriptionWithMeetup, error) {
	query := `
		SELECT s.id, s.user_id, s.meetup_id, s.slot_at, s.created_at,
		       m.id, m.title, m.description, m.location, m.scheduled_at, m.file_id,
		       m.organizer_id, u.name, u.email, m.created_at, m.updated_at
		FROM subscriptions s
		JOIN meetups m ON m.id = s.meetup_id
		JOIN users u ON u.id = m.organizer_id
		WHERE s.user_id = $1 AND m.scheduled_at >= $2
		ORDER BY m.scheduled_at
	`
	rows, err := r.db.Query(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	result := make([]domain.SubscriptionWithMeetup, 0)
	for rows.Next() {
		var item domain.SubscriptionWithMeetup
		var organizer domain.Organizer
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.MeetupID,
			&item.SlotAt,
			&item.CreatedAt,
			&item.Meetup.ID,
			&item.Meetup.Title,
			&item.Meetup.Description,
			&item.Meetup.Location,
			&item.Meetup.ScheduledAt,
			&item.Meetup.FileID,
			&item.Meetup.OrganizerID,
			&organizer.Name,
			&organizer.Email,
			&item.Meetup.CreatedAt,
			&item.Meetup.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		item.Meetup.Organizer = &organizer
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return result, nil
}
