//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bissquit/meetup-hub/internal/domain"
	identitypostgres "github.com/bissquit/meetup-hub/internal/identity/postgres"
	"github.com/bissquit/meetup-hub/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// createUser inserts a user with a unique email.
func createUser(t *testing.T, name string) *domain.User {
	t.Helper()

	user := &domain.User{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
	}
	require.NoError(t, identitypostgres.NewRepository(testDB).CreateUser(context.Background(), user))
	return user
}

// hoursAhead returns a moment n hours after the start of the current hour, plus minutes.
func hoursAhead(n, minutes int) time.Time {
	return time.Now().UTC().Truncate(time.Hour).Add(time.Duration(n)*time.Hour + time.Duration(minutes)*time.Minute)
}

// createMeetup creates a meetup through the API and returns its id.
func createMeetup(t *testing.T, client *testutil.Client, title string, at time.Time) string {
	t.Helper()

	resp, err := client.POST("/api/v1/meetups", map[string]interface{}{
		"title":        title,
		"description":  "Talks and pizza",
		"location":     "Main hall",
		"file_id":      1,
		"scheduled_at": at.Format(time.RFC3339),
	})
	require.NoError(t, err)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create meetup: status %d: %s", resp.StatusCode, testutil.ReadBody(t, resp))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data.ID
}

// insertPastMeetup writes a meetup in the past directly, bypassing lifecycle rules.
func insertPastMeetup(t *testing.T, organizerID string) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(context.Background(), `
		INSERT INTO meetups (title, description, location, scheduled_at, file_id, organizer_id)
		VALUES ('Past meetup', 'Done', 'Main hall', NOW() - INTERVAL '2 hours', 1, $1)
		RETURNING id
	`, organizerID).Scan(&id)
	require.NoError(t, err)
	return id
}

// subscribe posts a subscription and returns the response status and error message.
func subscribe(t *testing.T, client *testutil.Client, meetupID string) (int, string) {
	t.Helper()

	resp, err := client.POST("/api/v1/meetups/"+meetupID+"/subscriptions", nil)
	require.NoError(t, err)

	var result struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return resp.StatusCode, result.Error.Message
}

func countSubscriptions(t *testing.T, userID string) int {
	t.Helper()

	var n int
	err := testDB.QueryRow(context.Background(), `SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`, userID).Scan(&n)
	require.NoError(t, err)
	return n
}
