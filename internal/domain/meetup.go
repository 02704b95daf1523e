// Package domain contains the core entities shared by meetups, subscriptions and notifications.
package domain

import "time"

// Organizer is the public view of the user who owns a meetup.
type Organizer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Meetup represents a scheduled event with a single organizer.
type Meetup struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	FileID      int64      `json:"file_id"`
	OrganizerID string     `json:"-"`
	Organizer   *Organizer `json:"organizer,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPast reports whether the meetup has already started relative to now.
// Always computed, never stored.
func (m *Meetup) IsPast(now time.Time) bool {
	return m.ScheduledAt.Before(now)
}

// IsOrganizedBy reports whether userID owns the meetup.
func (m *Meetup) IsOrganizedBy(userID string) bool {
	return m.OrganizerID == userID
}

// Slot returns the time slot the meetup occupies.
func (m *Meetup) Slot() time.Time {
	return SlotOf(m.ScheduledAt)
}

// SlotOf normalizes a timestamp to its time slot: the containing hour in UTC.
func SlotOf(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// IsSchedulable reports whether a meetup may be (re)scheduled at t:
// the hour containing t must be strictly after the hour containing now.
func IsSchedulable(t, now time.Time) bool {
	return SlotOf(t).After(SlotOf(now))
}
