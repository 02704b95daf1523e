package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeetup_IsPast(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 10, 0, 0, time.UTC)

	tests := []struct {
		name      string
		scheduled time.Time
		want      bool
	}{
		{"an hour ago", now.Add(-time.Hour), true},
		{"a second ago", now.Add(-time.Second), true},
		{"exactly now", now, false},
		{"tomorrow", now.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Meetup{ScheduledAt: tt.scheduled}
			assert.Equal(t, tt.want, m.IsPast(now))
		})
	}
}

func TestIsSchedulable(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 10, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"one hour before", now.Add(-time.Hour), false},
		{"later in current hour", time.Date(2024, 6, 1, 15, 45, 0, 0, time.UTC), false},
		{"start of next hour", time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC), true},
		{"next day", now.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSchedulable(tt.at, now))
		})
	}
}

func TestSlotOf(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	at := time.Date(2024, 6, 1, 12, 30, 15, 0, loc)

	slot := SlotOf(at)

	assert.Equal(t, time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC), slot)
	assert.True(t, SlotOf(time.Date(2024, 6, 1, 15, 59, 0, 0, time.UTC)).Equal(slot))
}

func TestUser_Mailbox(t *testing.T) {
	assert.Equal(t, "Olga <olga@example.com>", (&User{Name: "Olga", Email: "olga@example.com"}).Mailbox())
	assert.Equal(t, "olga@example.com", (&User{Email: "olga@example.com"}).Mailbox())
}
