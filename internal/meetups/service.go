// Package meetups manages the meetup lifecycle: creation, rescheduling,
// deletion and day listings.
package meetups

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/pkg/clock"
	"github.com/bissquit/meetup-hub/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
)

// PageSize is the number of meetups returned per ListByDay page.
const PageSize = 10

// MaxPage bounds ListByDay paging so the row offset stays representable.
const MaxPage = 100_000

// CreateInput holds the fields of a new meetup.
type CreateInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	Location    string     `json:"location" validate:"required"`
	FileID      int64      `json:"file_id" validate:"required,gt=0"`
	ScheduledAt *time.Time `json:"scheduled_at" validate:"required"`
}

// UpdateInput holds optional meetup fields. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string    `json:"title" validate:"omitnil,min=1"`
	Description *string    `json:"description" validate:"omitnil,min=1"`
	Location    *string    `json:"location" validate:"omitnil,min=1"`
	FileID      *int64     `json:"file_id" validate:"omitnil,gt=0"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Service implements meetup business logic.
type Service struct {
	repo     Repository
	clock    clock.Clock
	loc      *time.Location
	validate *validator.Validate
}

// NewService creates a new meetups service. Day boundaries for ListByDay are
// computed in loc.
func NewService(repo Repository, clk clock.Clock, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		clock:    clk,
		loc:      loc,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Create schedules a new meetup organized by callerID.
func (s *Service) Create(ctx context.Context, callerID string, input CreateInput) (*domain.Meetup, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)

	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Err: err}
	}

	if !domain.IsSchedulable(*input.ScheduledAt, s.clock.Now()) {
		return nil, ErrPastDate
	}

	meetup := &domain.Meetup{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		ScheduledAt: *input.ScheduledAt,
		FileID:      input.FileID,
		OrganizerID: callerID,
	}

	if err := s.repo.CreateMeetup(ctx, meetup); err != nil {
		return nil, fmt.Errorf("create meetup: %w", err)
	}

	ctxlog.FromContext(ctx).Info("meetup created",
		"meetup_id", meetup.ID,
		"scheduled_at", meetup.ScheduledAt,
	)

	return s.repo.GetMeetupByID(ctx, meetup.ID)
}

// Get returns a meetup with its organizer.
func (s *Service) Get(ctx context.Context, meetupID string) (*domain.Meetup, error) {
	return s.repo.GetMeetupByID(ctx, meetupID)
}

// Update applies the supplied fields. Checks run in order: existence, proposed
// date, past-meetup freeze, ownership. They run against the row as locked by
// the repository, so concurrent edits of different fields all survive.
func (s *Service) Update(ctx context.Context, callerID, meetupID string, input UpdateInput) (*domain.Meetup, error) {
	input.Title = trimmed(input.Title)
	input.Description = trimmed(input.Description)
	input.Location = trimmed(input.Location)

	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Err: err}
	}

	meetup, err := s.repo.UpdateMeetup(ctx, meetupID, func(m *domain.Meetup) error {
		now := s.clock.Now()
		if input.ScheduledAt != nil && !domain.IsSchedulable(*input.ScheduledAt, now) {
			return ErrPastDate
		}
		if m.IsPast(now) {
			return ErrMeetupFrozen
		}
		if !m.IsOrganizedBy(callerID) {
			return ErrNotOrganizer
		}
		applyUpdate(m, input)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("meetup updated", "meetup_id", meetup.ID)

	return meetup, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func applyUpdate(m *domain.Meetup, input UpdateInput) {
	if input.Title != nil {
		m.Title = *input.Title
	}
	if input.Description != nil {
		m.Description = *input.Description
	}
	if input.Location != nil {
		m.Location = *input.Location
	}
	if input.FileID != nil {
		m.FileID = *input.FileID
	}
	if input.ScheduledAt != nil {
		m.ScheduledAt = *input.ScheduledAt
	}
}

// Delete removes a meetup. Checks run in order: existence, freeze, ownership.
func (s *Service) Delete(ctx context.Context, callerID, meetupID string) error {
	meetup, err := s.repo.GetMeetupByID(ctx, meetupID)
	if err != nil {
		return err
	}

	if meetup.IsPast(s.clock.Now()) {
		return ErrMeetupFrozen
	}

	if !meetup.IsOrganizedBy(callerID) {
		return ErrNotOrganizer
	}

	if err := s.repo.DeleteMeetup(ctx, meetupID); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("meetup deleted", "meetup_id", meetupID)
	return nil
}

// ListByDay returns one page of the meetups scheduled on the calendar day of
// date. date is YYYY-MM-DD or RFC 3339.
func (s *Service) ListByDay(ctx context.Context, date string, page int) ([]domain.Meetup, error) {
	day, err := s.parseDay(date)
	if err != nil {
		return nil, err
	}

	if page < 1 || page > MaxPage {
		return nil, &ValidationError{Err: fmt.Errorf("page must be between 1 and %d, got %d", MaxPage, page)}
	}

	from := day
	to := day.AddDate(0, 0, 1)

	meetups, err := s.repo.ListMeetupsBetween(ctx, from, to, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("list meetups: %w", err)
	}
	return meetups, nil
}

// ListOrganizing returns the meetups organized by callerID, upcoming first.
func (s *Service) ListOrganizing(ctx context.Context, callerID string) ([]domain.Meetup, error) {
	meetups, err := s.repo.ListMeetupsByOrganizer(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer meetups: %w", err)
	}
	return meetups, nil
}

// parseDay returns the start of the day containing date in the service location.
func (s *Service) parseDay(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, ErrInvalidDate
	}

	t, err := time.ParseInLocation(time.DateOnly, date, s.loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return time.Time{}, ErrInvalidDate
		}
		t = t.In(s.loc)
	}

	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc), nil
}
