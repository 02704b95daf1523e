package meetups

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for the meetups module.
type Handler struct {
	service *Service
}

// NewHandler creates a new meetups handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers meetup routes. All of them require authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/meetups", h.ListByDay)
	r.Post("/meetups", h.Create)
	r.Get("/meetups/{id}", h.Get)
	r.Put("/meetups/{id}", h.Update)
	r.Delete("/meetups/{id}", h.Delete)
	r.Get("/organizing", h.ListOrganizing)
}

// MeetupResponse is the JSON view of a meetup.
type MeetupResponse struct {
	domain.Meetup
	Past bool `json:"past"`
}

// NewMeetupResponse builds the view of m as seen at now.
func NewMeetupResponse(m *domain.Meetup, now time.Time) MeetupResponse {
	return MeetupResponse{Meetup: *m, Past: m.IsPast(now)}
}

func (h *Handler) toResponses(meetups []domain.Meetup) []MeetupResponse {
	now := h.service.Now()
	out := make([]MeetupResponse, 0, len(meetups))
	for i := range meetups {
		out = append(out, NewMeetupResponse(&meetups[i], now))
	}
	return out
}

var commonErrors = []httputil.ErrorMapping{
	{Error: domain.ErrMeetupNotFound, Status: http.StatusBadRequest, Message: "Meetup not found"},
	{Error: ErrInvalidDate, Status: http.StatusBadRequest, Message: "Invalid date"},
	{Error: ErrPastDate, Status: http.StatusBadRequest, Message: "Past dates are not permitted"},
}

var updateErrors = append([]httputil.ErrorMapping{
	{Error: ErrMeetupFrozen, Status: http.StatusBadRequest, Message: "You can't update past meetup"},
	{Error: ErrNotOrganizer, Status: http.StatusUnauthorized, Message: "Only the organizer can update the meetup"},
	{Error: ErrRescheduleConflict, Status: http.StatusBadRequest, Message: "A subscriber already has a meetup at this time"},
}, commonErrors...)

var deleteErrors = append([]httputil.ErrorMapping{
	{Error: ErrMeetupFrozen, Status: http.StatusBadRequest, Message: "You can't delete past meetup"},
	{Error: ErrNotOrganizer, Status: http.StatusUnauthorized, Message: "Only the organizer can delete the meetup"},
}, commonErrors...)

// ListByDay handles GET /meetups?date=&page=.
func (h *Handler) ListByDay(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			httputil.ValidationError(w, "Validation fails", err)
			return
		}
		page = p
	}

	meetups, err := h.service.ListByDay(r.Context(), r.URL.Query().Get("date"), page)
	if err != nil {
		h.handleError(w, r, err, commonErrors)
		return
	}

	httputil.Success(w, http.StatusOK, h.toResponses(meetups))
}

// Create handles POST /meetups.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.ValidationError(w, "Validation fails", err)
		return
	}

	meetup, err := h.service.Create(r.Context(), httputil.CallerID(r.Context()), input)
	if err != nil {
		h.handleError(w, r, err, commonErrors)
		return
	}

	httputil.Success(w, http.StatusCreated, NewMeetupResponse(meetup, h.service.Now()))
}

// Get handles GET /meetups/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	meetup, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err, commonErrors)
		return
	}

	httputil.Success(w, http.StatusOK, NewMeetupResponse(meetup, h.service.Now()))
}

// Update handles PUT /meetups/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.ValidationError(w, "Validation fails", err)
		return
	}

	meetup, err := h.service.Update(r.Context(), httputil.CallerID(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		h.handleError(w, r, err, updateErrors)
		return
	}

	httputil.Success(w, http.StatusOK, NewMeetupResponse(meetup, h.service.Now()))
}

// Delete handles DELETE /meetups/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), httputil.CallerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, err, deleteErrors)
		return
	}

	httputil.NoContent(w)
}

// ListOrganizing handles GET /organizing.
func (h *Handler) ListOrganizing(w http.ResponseWriter, r *http.Request) {
	meetups, err := h.service.ListOrganizing(r.Context(), httputil.CallerID(r.Context()))
	if err != nil {
		h.handleError(w, r, err, commonErrors)
		return
	}

	httputil.Success(w, http.StatusOK, h.toResponses(meetups))
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, mappings []httputil.ErrorMapping) {
	if errors.Is(err, ErrValidation) && !errors.Is(err, ErrInvalidDate) {
		httputil.ValidationError(w, "Validation fails", err)
		return
	}
	httputil.HandleError(r.Context(), w, err, mappings)
}
