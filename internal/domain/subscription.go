package domain

import "time"

// Subscription records a user's intent to attend a meetup.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MeetupID  string    `json:"meetup_id"`
	SlotAt    time.Time `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscriptionWithMeetup is a subscription joined with the meetup it references.
type SubscriptionWithMeetup struct {
	Subscription
	Meetup Meetup `json:"meetup"`
}
