// Package subscriptions lets users join meetups while keeping each user to a
// single meetup per time slot.
package subscriptions

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/pkg/clock"
	"github.com/bissquit/meetup-hub/internal/pkg/ctxlog"
)

// MeetupReader resolves meetups with their organizer attached.
type MeetupReader interface {
	Get(ctx context.Context, meetupID string) (*domain.Meetup, error)
}

// UserReader resolves users.
type UserReader interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// SubscriptionNotifier is told about every committed subscription.
type SubscriptionNotifier interface {
	OnSubscriptionCreated(ctx context.Context, meetup *domain.Meetup, subscriber *domain.User) error
}

// Service implements subscription business logic.
type Service struct {
	repo     Repository
	meetups  MeetupReader
	users    UserReader
	notifier SubscriptionNotifier
	clock    clock.Clock
}

// NewService creates a new subscriptions service. notifier may be nil.
func NewService(repo Repository, meetups MeetupReader, users UserReader, notifier SubscriptionNotifier, clk clock.Clock) *Service {
	return &Service{
		repo:     repo,
		meetups:  meetups,
		users:    users,
		notifier: notifier,
		clock:    clk,
	}
}

// Subscribe registers callerID for meetupID.
func (s *Service) Subscribe(ctx context.Context, callerID, meetupID string) (*domain.Subscription, error) {
	sub, meetup, err := s.subscribe(ctx, callerID, meetupID)
	if err != nil {
		recordAttempt(outcomeOf(err))
		return nil, err
	}
	recordAttempt("created")

	ctxlog.FromContext(ctx).Info("subscription created",
		"subscription_id", sub.ID,
		"meetup_id", meetup.ID,
	)

	s.notify(ctx, meetup, callerID)

	return sub, nil
}

func (s *Service) subscribe(ctx context.Context, callerID, meetupID string) (*domain.Subscription, *domain.Meetup, error) {
	meetup, err := s.meetups.Get(ctx, meetupID)
	if err != nil {
		return nil, nil, err
	}

	if meetup.IsOrganizedBy(callerID) {
		return nil, nil, ErrSelfSubscription
	}

	if meetup.IsPast(s.clock.Now()) {
		return nil, nil, ErrPastMeetup
	}

	taken, err := s.repo.HasSubscriptionInSlot(ctx, callerID, meetup.Slot())
	if err != nil {
		return nil, nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return nil, nil, ErrTimeConflict
	}

	sub := &domain.Subscription{
		UserID:   callerID,
		MeetupID: meetup.ID,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, nil, ErrTimeConflict
		}
		if errors.Is(err, domain.ErrMeetupNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create subscription: %w", err)
	}

	return sub, meetup, nil
}

// notify hands the committed subscription to the notifier. Failures are
// logged and never reach the caller.
func (s *Service) notify(ctx context.Context, meetup *domain.Meetup, callerID string) {
	if s.notifier == nil {
		return
	}

	logger := ctxlog.FromContext(ctx)

	subscriber, err := s.users.GetUser(ctx, callerID)
	if err != nil {
		logger.Error("failed to load subscriber for notification", "error", err)
		return
	}

	if err := s.notifier.OnSubscriptionCreated(ctx, meetup, subscriber); err != nil {
		logger.Error("failed to notify organizer",
			"meetup_id", meetup.ID,
			"error", err,
		)
	}
}

// ListMine returns the caller's subscriptions to upcoming meetups.
func (s *Service) ListMine(ctx context.Context, callerID string) ([]domain.SubscriptionWithMeetup, error) {
	subs, err := s.repo.ListUserSubscriptions(ctx, callerID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrMeetupNotFound):
		return "not_found"
	case errors.Is(err, ErrSelfSubscription):
		return "self"
	case errors.Is(err, ErrPastMeetup):
		return "past"
	case errors.Is(err, ErrTimeConflict):
		return "conflict"
	default:
		return "error"
	}
}
