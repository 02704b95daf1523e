package subscriptions_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/identity"
	"github.com/bissquit/meetup-hub/internal/identity/jwt"
	"github.com/bissquit/meetup-hub/internal/pkg/httputil"
	"github.com/bissquit/meetup-hub/internal/subscriptions"
	"github.com/bissquit/meetup-hub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, f *fixture) http.Handler {
	t.Helper()
	auth := jwt.NewAuthenticator(jwt.Config{SecretKey: testutil.TestJWTSecret, Issuer: testutil.TestJWTIssuer})

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(identity.NewService(f.store, auth)))
		subscriptions.NewHandler(f.service).RegisterRoutes(r)
	})
	return r
}

type response struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, router http.Handler, v *testutil.OpenAPIValidator, method, path, userID string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+testutil.IssueToken(t, userID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	v.ValidateRecorded(t, req, rec)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHandler_Subscribe(t *testing.T) {
	f := newFixture(t)
	router := newRouter(t, f)
	v := testutil.NewOpenAPIValidator(t)

	upcoming := f.seed(time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC))
	sameHour := f.seed(time.Date(2024, 6, 2, 10, 30, 0, 0, time.UTC))
	past := f.seed(now.Add(-time.Hour))

	status, resp := do(t, router, v, http.MethodPost, "/api/v1/meetups/"+upcoming.ID+"/subscriptions", f.subscriber.ID)
	require.Equal(t, http.StatusCreated, status)
	var sub domain.Subscription
	require.NoError(t, json.Unmarshal(resp.Data, &sub))
	assert.Equal(t, upcoming.ID, sub.MeetupID)
	assert.Equal(t, f.subscriber.ID, sub.UserID)

	tests := []struct {
		name     string
		meetupID string
		caller   string
		message  string
	}{
		{"time conflict", sameHour.ID, f.subscriber.ID, "You cannot join two meetups at once"},
		{"own meetup", upcoming.ID, f.organizer.ID, "You can't subscribe to a meetup you are organizing"},
		{"past meetup", past.ID, f.subscriber.ID, "You can't subscribe to past meetups"},
		{"missing meetup", "0d3c5a1e-0000-4000-8000-000000000000", f.subscriber.ID, "Meetup not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := do(t, router, v, http.MethodPost, "/api/v1/meetups/"+tt.meetupID+"/subscriptions", tt.caller)

			assert.Equal(t, http.StatusBadRequest, status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestHandler_Subscribe_RequiresToken(t *testing.T) {
	f := newFixture(t)
	router := newRouter(t, f)
	v := testutil.NewOpenAPIValidator(t)
	m := f.seed(now.Add(24 * time.Hour))

	status, resp := do(t, router, v, http.MethodPost, "/api/v1/meetups/"+m.ID+"/subscriptions", "")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token not provided", resp.Error.Message)
	assert.Zero(t, f.store.CountSubscriptions(f.subscriber.ID))
}

func TestHandler_ListMine(t *testing.T) {
	f := newFixture(t)
	router := newRouter(t, f)
	v := testutil.NewOpenAPIValidator(t)
	m := f.seed(now.Add(24 * time.Hour))

	_, _ = do(t, router, v, http.MethodPost, "/api/v1/meetups/"+m.ID+"/subscriptions", f.subscriber.ID)
	status, resp := do(t, router, v, http.MethodGet, "/api/v1/subscriptions", f.subscriber.ID)

	require.Equal(t, http.StatusOK, status)
	var subs []domain.SubscriptionWithMeetup
	require.NoError(t, json.Unmarshal(resp.Data, &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, m.ID, subs[0].Meetup.ID)
	assert.Equal(t, "Ana Souza", subs[0].Meetup.Organizer.Name)
}
