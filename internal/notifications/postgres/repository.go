// Package postgres provides PostgreSQL implementation of notifications repository.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bissquit/meetup-hub/internal/notifications"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements notifications.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnqueueNotification inserts a pending queue item.
func (r *Repository) EnqueueNotification(ctx context.Context, item *notifications.QueueItem) error {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO notification_queue (message_type, recipient, payload, max_attempts)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, attempts, next_attempt_at, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query,
		item.MessageType,
		item.Recipient,
		payload,
		item.MaxAttempts,
	).Scan(&item.ID, &item.Status, &item.Attempts, &item.NextAttemptAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// FetchPendingNotifications claims due items. Concurrent workers never claim
// the same row.
func (r *Repository) FetchPendingNotifications(ctx context.Context, limit int) ([]*notifications.QueueItem, error) {
	query := `
		UPDATE notification_queue
		SET status = 'processing', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM notification_queue
			WHERE status = 'pending' AND next_attempt_at <= NOW()
			ORDER BY next_attempt_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, message_type, recipient, payload, status, attempts, max_attempts,
		          next_attempt_at, COALESCE(last_error, ''), created_at, updated_at, sent_at
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending notifications: %w", err)
	}
	defer rows.Close()

	items := make([]*notifications.QueueItem, 0)
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, nil
}

func scanQueueItem(row pgx.Row) (*notifications.QueueItem, error) {
	var item notifications.QueueItem
	var payload []byte
	err := row.Scan(
		&item.ID,
		&item.MessageType,
		&item.Recipient,
		&payload,
		&item.Status,
		&item.Attempts,
		&item.MaxAttempts,
		&item.NextAttemptAt,
		&item.LastError,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.SentAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if err := json.Unmarshal(payload, &item.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload of %s: %w", item.ID, err)
	}
	return &item, nil
}

// MarkAsSent marks an item delivered.
func (r *Repository) MarkAsSent(ctx context.Context, id string) error {
	query := `
		UPDATE notification_queue
		SET status = 'sent', attempts = attempts + 1, sent_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("mark as sent: %w", err)
	}
	return nil
}

// MarkAsFailed marks an item permanently failed.
func (r *Repository) MarkAsFailed(ctx context.Context, id string, cause error) error {
	query := `
		UPDATE notification_queue
		SET status = 'failed', attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id, errorText(cause)); err != nil {
		return fmt.Errorf("mark as failed: %w", err)
	}
	return nil
}

// MarkForRetry returns an item to pending with a later attempt time.
func (r *Repository) MarkForRetry(ctx context.Context, id string, cause error, nextAttemptAt time.Time) error {
	query := `
		UPDATE notification_queue
		SET status = 'pending', attempts = attempts + 1, last_error = $2, next_attempt_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id, errorText(cause), nextAttemptAt); err != nil {
		return fmt.Errorf("mark for retry: %w", err)
	}
	return nil
}

// RequeueStale returns long-running processing items to pending.
func (r *Repository) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE notification_queue
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'processing' AND updated_at < $1
	`
	result, err := r.db.Exec(ctx, query, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("requeue stale notifications: %w", err)
	}
	return result.RowsAffected(), nil
}

// GetQueueStats counts queue items per status.
func (r *Repository) GetQueueStats(ctx context.Context) (*notifications.QueueStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM notification_queue
	`
	var stats notifications.QueueStats
	if err := r.db.QueryRow(ctx, query).Scan(&stats.Pending, &stats.Processing, &stats.Sent, &stats.Failed); err != nil {
		return nil, fmt.Errorf("get queue stats: %w", err)
	}
	return &stats, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
