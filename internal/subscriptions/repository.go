package subscriptions

import (
	"context"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
)

// Repository defines the interface for subscription data access.
type Repository interface {
	// CreateSubscription inserts sub with the slot of its meetup as currently
	// stored. Returns domain.ErrMeetupNotFound when the meetup is gone and
	// ErrSlotTaken when the user already holds that slot.
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error
	HasSubscriptionInSlot(ctx context.Context, userID string, slot time.Time) (bool, error)
	// ListUserSubscriptions returns the user's subscriptions to meetups
	// scheduled at or after from, ordered by meetup time.
	ListUserSubscriptions(ctx context.Context, userID string, from time.Time) ([]domain.SubscriptionWithMeetup, error)
}
