package domain

import "errors"

// Lookup errors shared across modules.
var (
	ErrMeetupNotFound = errors.New("meetup not found")
	ErrUserNotFound   = errors.New("user not found")
)
