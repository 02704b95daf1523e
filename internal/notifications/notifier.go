package notifications

import (
	"context"
	"fmt"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/pkg/ctxlog"
)

// Notifier queues a notice to the organizer for every new subscription.
// Delivery happens later in the Worker.
type Notifier struct {
	repo        Repository
	maxAttempts int
}

// NewNotifier creates a new Notifier.
func NewNotifier(repo Repository, maxAttempts int) *Notifier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Notifier{repo: repo, maxAttempts: maxAttempts}
}

// OnSubscriptionCreated enqueues the subscription notice.
func (n *Notifier) OnSubscriptionCreated(ctx context.Context, meetup *domain.Meetup, subscriber *domain.User) error {
	payload := NewSubscriptionPayload(meetup, subscriber)
	if payload.OrganizerEmail == "" {
		return fmt.Errorf("meetup %s has no organizer email", meetup.ID)
	}

	item := &QueueItem{
		MessageType: MessageTypeSubscriptionCreated,
		Recipient:   payload.Recipient(),
		Payload:     payload,
		Status:      QueueStatusPending,
		MaxAttempts: n.maxAttempts,
	}

	if err := n.repo.EnqueueNotification(ctx, item); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	recordEnqueued()
	ctxlog.FromContext(ctx).Debug("subscription notification queued",
		"item_id", item.ID,
		"meetup_id", meetup.ID,
	)
	return nil
}

// NopNotifier drops every notification. Used when notifications are disabled.
type NopNotifier struct{}

// OnSubscriptionCreated does nothing.
func (NopNotifier) OnSubscriptionCreated(context.Context, *domain.Meetup, *domain.User) error {
	return nil
}
