package subscriptions

import "errors"

// Subscription errors.
var (
	ErrSelfSubscription = errors.New("cannot subscribe to own meetup")
	ErrPastMeetup       = errors.New("meetup already happened")
	ErrTimeConflict     = errors.New("already subscribed to a meetup in this slot")

	// ErrSlotTaken is returned by repositories when the user already holds
	// a subscription in the slot being written.
	ErrSlotTaken = errors.New("slot already taken")
)
