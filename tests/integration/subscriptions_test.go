//go:build integration

package integration

import (
	"net/http"
	"sync"
	"testing"

	"github.com/bissquit/meetup-hub/internal/domain"
	"github.com/bissquit/meetup-hub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptions_Rules(t *testing.T) {
	organizer := createUser(t, "Ana Souza")
	subscriber := createUser(t, "Bruno Lima")
	orgClient := newTestClient(t, organizer.ID)
	subClient := newTestClient(t, subscriber.ID)

	booked := createMeetup(t, orgClient, "Booked", hoursAhead(5, 0))
	sameHour := createMeetup(t, orgClient, "Same hour", hoursAhead(5, 40))
	nextHour := createMeetup(t, orgClient, "Next hour", hoursAhead(6, 0))
	past := insertPastMeetup(t, organizer.ID)

	status, _ := subscribe(t, subClient, booked)
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name     string
		client   *testutil.Client
		meetupID string
		status   int
		message  string
	}{
		{"same meetup again", subClient, booked, http.StatusBadRequest, "You cannot join two meetups at once"},
		{"other meetup same hour", subClient, sameHour, http.StatusBadRequest, "You cannot join two meetups at once"},
		{"own meetup", orgClient, nextHour, http.StatusBadRequest, "You can't subscribe to a meetup you are organizing"},
		{"past meetup", subClient, past, http.StatusBadRequest, "You can't subscribe to past meetups"},
		{"missing meetup", subClient, "00000000-0000-4000-8000-000000000000", http.StatusBadRequest, "Meetup not found"},
		{"malformed id", subClient, "not-a-uuid", http.StatusBadRequest, "Meetup not found"},
		{"next hour", subClient, nextHour, http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := subscribe(t, tt.client, tt.meetupID)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}

	assert.Equal(t, 2, countSubscriptions(t, subscriber.ID))
	assert.Zero(t, countSubscriptions(t, organizer.ID))
}

func TestSubscriptions_ConcurrentSameSlot(t *testing.T) {
	const n = 10

	organizer := createUser(t, "Ana Souza")
	subscriber := createUser(t, "Bruno Lima")
	orgClient := newTestClient(t, organizer.ID)
	subClient := testClient.WithoutValidation().As(t, subscriber.ID)

	ids := make([]string, n)
	for i := range ids {
		ids[i] = createMeetup(t, orgClient, "Parallel", hoursAhead(8, i*5))
	}

	statuses := make([]int, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			resp, err := subClient.POST("/api/v1/meetups/"+ids[i]+"/subscriptions", nil)
			if err != nil {
				return
			}
			_ = resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	close(start)
	wg.Wait()

	var created, rejected int
	for _, status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		}
	}

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, rejected)
	assert.Equal(t, 1, countSubscriptions(t, subscriber.ID))
}

func TestSubscriptions_SameSlotDifferentUsers(t *testing.T) {
	organizer := createUser(t, "Ana Souza")
	id := createMeetup(t, newTestClient(t, organizer.ID), "Popular", hoursAhead(10, 0))

	for _, name := range []string{"Bruno Lima", "Carla Dias", "Davi Rocha"} {
		user := createUser(t, name)
		status, message := subscribe(t, newTestClient(t, user.ID), id)
		assert.Equal(t, http.StatusCreated, status, message)
	}
}

func TestSubscriptions_ListMine(t *testing.T) {
	organizer := createUser(t, "Ana Souza")
	subscriber := createUser(t, "Bruno Lima")
	orgClient := newTestClient(t, organizer.ID)
	subClient := newTestClient(t, subscriber.ID)

	later := createMeetup(t, orgClient, "Later", hoursAhead(50, 0))
	sooner := createMeetup(t, orgClient, "Sooner", hoursAhead(20, 0))
	for _, id := range []string{later, sooner} {
		status, _ := subscribe(t, subClient, id)
		require.Equal(t, http.StatusCreated, status)
	}

	resp, err := subClient.GET("/api/v1/subscriptions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []domain.SubscriptionWithMeetup `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	require.Len(t, result.Data, 2)
	assert.Equal(t, sooner, result.Data[0].Meetup.ID)
	assert.Equal(t, later, result.Data[1].Meetup.ID)
	assert.Equal(t, "Ana Souza", result.Data[0].Meetup.Organizer.Name)
	assert.Equal(t, subscriber.ID, result.Data[0].UserID)
}
