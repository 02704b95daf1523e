package meetups

import (
	"context"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
)

// Repository defines the interface for meetup data access.
// Reads attach the organizer's name and email.
type Repository interface {
	CreateMeetup(ctx context.Context, meetup *domain.Meetup) error
	GetMeetupByID(ctx context.Context, id string) (*domain.Meetup, error)
	// UpdateMeetup locks the meetup, passes it to apply and writes the result,
	// moving the slot of every subscription to it, in one transaction. An error
	// from apply aborts the update and is returned as is. Returns
	// ErrRescheduleConflict when a subscriber already holds the new slot.
	UpdateMeetup(ctx context.Context, id string, apply func(*domain.Meetup) error) (*domain.Meetup, error)
	// DeleteMeetup removes the meetup together with its subscriptions.
	DeleteMeetup(ctx context.Context, id string) error
	// ListMeetupsBetween returns meetups with from <= scheduled_at < to ordered by time.
	ListMeetupsBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]domain.Meetup, error)
	ListMeetupsByOrganizer(ctx context.Context, organizerID string) ([]domain.Meetup, error)
}
