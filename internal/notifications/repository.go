// Package notifications delivers subscription notices to meetup organizers
// through a persistent queue.
package notifications

import (
	"context"
	"time"
)

// Repository defines the interface for notification queue access.
type Repository interface {
	EnqueueNotification(ctx context.Context, item *QueueItem) error
	// FetchPendingNotifications claims up to limit due items and marks them processing.
	FetchPendingNotifications(ctx context.Context, limit int) ([]*QueueItem, error)
	MarkAsSent(ctx context.Context, id string) error
	MarkAsFailed(ctx context.Context, id string, cause error) error
	MarkForRetry(ctx context.Context, id string, cause error, nextAttemptAt time.Time) error
	// RequeueStale returns items stuck in processing for longer than olderThan to pending.
	RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error)
	GetQueueStats(ctx context.Context) (*QueueStats, error)
}
