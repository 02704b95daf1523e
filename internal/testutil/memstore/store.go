// Package memstore is an in-memory store for service tests. It enforces the
// same one-subscription-per-slot rule as the PostgreSQL schema.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/meetups"
	"github.com/bissquit/meetup-hub/internal/pkg/clock"
	"github.com/bissquit/meetup-hub/internal/subscriptions"
	"github.com/google/uuid"
)

type slotKey struct {
	userID string
	slot   time.Time
}

// Store implements the meetups, subscriptions and identity repositories.
type Store struct {
	mu      sync.Mutex
	clock   clock.Clock
	users   map[string]domain.User
	meetups map[string]domain.Meetup
	subs    map[string]domain.Subscription
	slots   map[slotKey]string

	// BeforeInsert, when set, runs after the meetup slot is read and before
	// the subscription is written, without the store lock held.
	BeforeInsert func()
}

// New creates an empty store. clk orders organizer listings.
func New(clk clock.Clock) *Store {
	return &Store{
		clock:   clk,
		users:   make(map[string]domain.User),
		meetups: make(map[string]domain.Meetup),
		subs:    make(map[string]domain.Subscription),
		slots:   make(map[slotKey]string),
	}
}

// AddUser stores a user and returns it with an id.
func (s *Store) AddUser(name, email string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := domain.User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: s.clock.Now()}
	s.users[u.ID] = u
	return &u
}

// AddMeetup stores m as is, skipping lifecycle rules. Used to seed past meetups.
func (s *Store) AddMeetup(m domain.Meetup) *domain.Meetup {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.meetups[m.ID] = m
	out := s.withOrganizer(m)
	return &out
}

// CountSubscriptions returns the number of stored subscriptions of userID.
func (s *Store) CountSubscriptions(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sub := range s.subs {
		if sub.UserID == userID {
			n++
		}
	}
	return n
}

// GetUserByID implements identity.Repository.
func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// GetUser lets the store stand in for the identity service.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.GetUserByID(ctx, id)
}

// CreateMeetup implements meetups.Repository.
func (s *Store) CreateMeetup(_ context.Context, m *domain.Meetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.UpdatedAt = now
	s.meetups[m.ID] = *m
	return nil
}

// GetMeetupByID implements meetups.Repository.
func (s *Store) GetMeetupByID(_ context.Context, id string) (*domain.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetups[id]
	if !ok {
		return nil, domain.ErrMeetupNotFound
	}
	out := s.withOrganizer(m)
	return &out, nil
}

// UpdateMeetup implements meetups.Repository.
// apply runs with the store locked and must not call back into the store.
func (s *Store) UpdateMeetup(_ context.Context, id string, apply func(*domain.Meetup) error) (*domain.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.meetups[id]
	if !ok {
		return nil, domain.ErrMeetupNotFound
	}

	updated := s.withOrganizer(current)
	m := &updated
	if err := apply(m); err != nil {
		return nil, err
	}

	if newSlot := m.Slot(); !current.Slot().Equal(newSlot) {
		moved := make(map[slotKey]string)
		for subID, sub := range s.subs {
			if sub.MeetupID != m.ID {
				continue
			}
			key := slotKey{sub.UserID, newSlot}
			if _, taken := s.slots[key]; taken {
				return nil, meetups.ErrRescheduleConflict
			}
			moved[key] = subID
		}
		for key, subID := range moved {
			sub := s.subs[subID]
			delete(s.slots, slotKey{sub.UserID, sub.SlotAt})
			sub.SlotAt = newSlot
			s.subs[subID] = sub
			s.slots[key] = subID
		}
	}

	m.UpdatedAt = s.clock.Now()
	stored := *m
	stored.Organizer = nil
	s.meetups[m.ID] = stored
	return m, nil
}

// DeleteMeetup implements meetups.Repository. Subscriptions go with it.
func (s *Store) DeleteMeetup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetups[id]; !ok {
		return domain.ErrMeetupNotFound
	}
	delete(s.meetups, id)
	for subID, sub := range s.subs {
		if sub.MeetupID == id {
			delete(s.slots, slotKey{sub.UserID, sub.SlotAt})
			delete(s.subs, subID)
		}
	}
	return nil
}

// ListMeetupsBetween implements meetups.Repository.
func (s *Store) ListMeetupsBetween(_ context.Context, from, to time.Time, limit, offset int) ([]domain.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []domain.Meetup
	for _, m := range s.meetups {
		if !m.ScheduledAt.Before(from) && m.ScheduledAt.Before(to) {
			found = append(found, s.withOrganizer(m))
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].ScheduledAt.Equal(found[j].ScheduledAt) {
			return found[i].ID < found[j].ID
		}
		return found[i].ScheduledAt.Before(found[j].ScheduledAt)
	})

	out := make([]domain.Meetup, 0, limit)
	for i := offset; i < len(found) && len(out) < limit; i++ {
		out = append(out, found[i])
	}
	return out, nil
}

// ListMeetupsByOrganizer implements meetups.Repository.
func (s *Store) ListMeetupsByOrganizer(_ context.Context, organizerID string) ([]domain.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	out := make([]domain.Meetup, 0)
	for _, m := range s.meetups {
		if m.OrganizerID == organizerID {
			out = append(out, s.withOrganizer(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].IsPast(now), out[j].IsPast(now)
		if pi != pj {
			return !pi
		}
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out, nil
}

// CreateSubscription implements subscriptions.Repository.
func (s *Store) CreateSubscription(_ context.Context, sub *domain.Subscription) error {
	s.mu.Lock()
	m, ok := s.meetups[sub.MeetupID]
	s.mu.Unlock()
	if !ok {
		return domain.ErrMeetupNotFound
	}

	if s.BeforeInsert != nil {
		s.BeforeInsert()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// re-read in case the meetup moved meanwhile
	m, ok = s.meetups[sub.MeetupID]
	if !ok {
		return domain.ErrMeetupNotFound
	}

	key := slotKey{sub.UserID, m.Slot()}
	if _, taken := s.slots[key]; taken {
		return subscriptions.ErrSlotTaken
	}

	sub.ID = uuid.NewString()
	sub.SlotAt = m.Slot()
	sub.CreatedAt = s.clock.Now()
	s.subs[sub.ID] = *sub
	s.slots[key] = sub.ID
	return nil
}

// HasSubscriptionInSlot implements subscriptions.Repository.
func (s *Store) HasSubscriptionInSlot(_ context.Context, userID string, slot time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, taken := s.slots[slotKey{userID, domain.SlotOf(slot)}]
	return taken, nil
}

// ListUserSubscriptions implements subscriptions.Repository.
func (s *Store) ListUserSubscriptions(_ context.Context, userID string, from time.Time) ([]domain.SubscriptionWithMeetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SubscriptionWithMeetup, 0)
	for _, sub := range s.subs {
		if sub.UserID != userID {
			continue
		}
		m := s.meetups[sub.MeetupID]
		if m.ScheduledAt.Before(from) {
			continue
		}
		out = append(out, domain.SubscriptionWithMeetup{Subscription: sub, Meetup: s.withOrganizer(m)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Meetup.ScheduledAt.Before(out[j].Meetup.ScheduledAt)
	})
	return out, nil
}

// withOrganizer must be called with s.mu held.
func (s *Store) withOrganizer(m domain.Meetup) domain.Meetup {
	if u, ok := s.users[m.OrganizerID]; ok {
		m.Organizer = &domain.Organizer{Name: u.Name, Email: u.Email}
	}
	return m
}
