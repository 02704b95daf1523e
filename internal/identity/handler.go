package identity

import (
	"net/http"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service *Service
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/me", h.Me)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: domain.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), httputil.CallerID(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, user)
}
