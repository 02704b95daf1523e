package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/meetup-hub/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// HandleError writes the response of the first mapping matching err.
// Unmatched errors are logged and answered with 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	if m, ok := Lookup(err, mappings); ok {
		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		Error(w, m.Status, msg)
		return
	}
	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

// Lookup returns the first mapping whose error matches err.
func Lookup(err error, mappings []ErrorMapping) (ErrorMapping, bool) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			return m, true
		}
	}
	return ErrorMapping{}, false
}
