package subscriptions

import (
	"net/http"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for the subscriptions module.
type Handler struct {
	service *Service
}

// NewHandler creates a new subscriptions handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers subscription routes. All of them require authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/meetups/{id}/subscriptions", h.Subscribe)
	r.Get("/subscriptions", h.ListMine)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: domain.ErrMeetupNotFound, Status: http.StatusBadRequest, Message: "Meetup not found"},
	{Error: ErrSelfSubscription, Status: http.StatusBadRequest, Message: "You can't subscribe to a meetup you are organizing"},
	{Error: ErrPastMeetup, Status: http.StatusBadRequest, Message: "You can't subscribe to past meetups"},
	{Error: ErrTimeConflict, Status: http.StatusBadRequest, Message: "You cannot join two meetups at once"},
}

// Subscribe handles POST /meetups/{id}/subscriptions.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Subscribe(r.Context(), httputil.CallerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, sub)
}

// ListMine handles GET /subscriptions.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListMine(r.Context(), httputil.CallerID(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, subs)
}
