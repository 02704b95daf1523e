package notifications

import "time"

// QueueStatus is the lifecycle state of a queued notification.
type QueueStatus string

// Queue statuses.
const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusSent       QueueStatus = "sent"
	QueueStatusFailed     QueueStatus = "failed"
)

// QueueItem is one pending email to an organizer. Attempts counts finished
// delivery attempts.
type QueueItem struct {
	ID            string
	MessageType   MessageType
	Recipient     string
	Payload       SubscriptionPayload
	Status        QueueStatus
	Attempts      int
	MaxAttempts   int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time
}

// Attempt is the number of the delivery attempt in progress.
func (q *QueueItem) Attempt() int {
	return q.Attempts + 1
}

// LastAttempt reports whether a failure of the current attempt is final.
func (q *QueueItem) LastAttempt() bool {
	return q.Attempt() >= q.MaxAttempts
}

// QueueStats holds the number of queue items per status.
type QueueStats struct {
	Pending    int64
	Processing int64
	Sent       int64
	Failed     int64
}
