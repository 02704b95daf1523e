package notifications

import (
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
)

// MessageType defines the type of notification.
type MessageType string

// Message types.
const (
	MessageTypeSubscriptionCreated MessageType = "subscription_created"
)

// SubscriptionPayload carries what the organizer is told about a new subscriber.
type SubscriptionPayload struct {
	OrganizerName     string    `json:"organizer_name"`
	OrganizerEmail    string    `json:"organizer_email"`
	SubscriberName    string    `json:"subscriber_name"`
	MeetupTitle       string    `json:"meetup_title"`
	MeetupScheduledAt time.Time `json:"meetup_scheduled_at"`
}

// NewSubscriptionPayload builds the payload for subscriber joining meetup.
// meetup must have its organizer attached.
func NewSubscriptionPayload(meetup *domain.Meetup, subscriber *domain.User) SubscriptionPayload {
	p := SubscriptionPayload{
		SubscriberName:    subscriber.Name,
		MeetupTitle:       meetup.Title,
		MeetupScheduledAt: meetup.ScheduledAt,
	}
	if meetup.Organizer != nil {
		p.OrganizerName = meetup.Organizer.Name
		p.OrganizerEmail = meetup.Organizer.Email
	}
	return p
}

// Recipient returns the organizer mailbox in "Name <email>" form.
func (p SubscriptionPayload) Recipient() string {
	organizer := domain.User{Name: p.OrganizerName, Email: p.OrganizerEmail}
	return organizer.Mailbox()
}
