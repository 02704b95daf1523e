package meetups

import (
	"errors"
	"fmt"
)

// Meetup lifecycle errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrPastDate           = errors.New("past dates are not permitted")
	ErrMeetupFrozen       = errors.New("meetup already happened")
	ErrNotOrganizer       = errors.New("caller is not the organizer")
	ErrRescheduleConflict = errors.New("subscriber already has a meetup in the new slot")
)

// ValidationError describes malformed input. It matches ErrValidation and
// unwraps to the underlying validator error.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Err)
}

// Unwrap exposes both ErrValidation and the cause.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
