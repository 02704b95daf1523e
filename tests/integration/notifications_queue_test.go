//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bissquit/meetup-hub/internal/identity"
	"github.com/bissquit/meetup-hub/internal/identity/jwt"
	identitypostgres "github.com/bissquit/meetup-hub/internal/identity/postgres"
	"github.com/bissquit/meetup-hub/internal/meetups"
	meetupspostgres "github.com/bissquit/meetup-hub/internal/meetups/postgres"
	"github.com/bissquit/meetup-hub/internal/notifications"
	notificationspostgres "github.com/bissquit/meetup-hub/internal/notifications/postgres"
	"github.com/bissquit/meetup-hub/internal/pkg/clock"
	"github.com/bissquit/meetup-hub/internal/subscriptions"
	subscriptionspostgres "github.com/bissquit/meetup-hub/internal/subscriptions/postgres"
	"github.com/bissquit/meetup-hub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearQueue empties notification_queue so each test sees only its own items.
func clearQueue(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), `DELETE FROM notification_queue`)
	require.NoError(t, err)
}

// newNotifyingSubscriptions wires a subscriptions service that enqueues organizer notices.
func newNotifyingSubscriptions(repo notifications.Repository) *subscriptions.Service {
	clk := clock.System()
	identityService := identity.NewService(
		identitypostgres.NewRepository(testDB),
		jwt.NewAuthenticator(jwt.Config{SecretKey: testutil.TestJWTSecret}),
	)
	meetupsService := meetups.NewService(meetupspostgres.NewRepository(testDB), clk, time.UTC)

	return subscriptions.NewService(
		subscriptionspostgres.NewRepository(testDB),
		meetupsService,
		identityService,
		notifications.NewNotifier(repo, 3),
		clk,
	)
}

func testPayload() notifications.SubscriptionPayload {
	return notifications.SubscriptionPayload{
		OrganizerName:     "Ana Souza",
		OrganizerEmail:    "ana@example.com",
		SubscriberName:    "Bruno Lima",
		MeetupTitle:       "Go Night",
		MeetupScheduledAt: time.Date(2030, 3, 5, 12, 30, 0, 0, time.UTC),
	}
}

func TestNotificationQueue_EnqueueAndFetch(t *testing.T) {
	clearQueue(t)
	ctx := context.Background()
	repo := notificationspostgres.NewRepository(testDB)

	item := &notifications.QueueItem{
		MessageType: notifications.MessageTypeSubscriptionCreated,
		Recipient:   "ana@example.com",
		Payload:     testPayload(),
		MaxAttempts: 3,
	}
	require.NoError(t, repo.EnqueueNotification(ctx, item))
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, notifications.QueueStatusPending, item.Status)

	items, err := repo.FetchPendingNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, notifications.QueueStatusProcessing, items[0].Status)
	assert.Equal(t, testPayload().MeetupTitle, items[0].Payload.MeetupTitle)
	assert.True(t, items[0].Payload.MeetupScheduledAt.Equal(testPayload().MeetupScheduledAt))

	// claimed items are not handed out twice
	again, err := repo.FetchPendingNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, repo.MarkAsSent(ctx, item.ID))
	stats, err := repo.GetQueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Sent)
	assert.Zero(t, stats.Pending)
}

func TestNotificationQueue_RetryAndFail(t *testing.T) {
	clearQueue(t)
	ctx := context.Background()
	repo := notificationspostgres.NewRepository(testDB)

	item := &notifications.QueueItem{
		MessageType: notifications.MessageTypeSubscriptionCreated,
		Recipient:   "ana@example.com",
		Payload:     testPayload(),
		MaxAttempts: 2,
	}
	require.NoError(t, repo.EnqueueNotification(ctx, item))
	_, err := repo.FetchPendingNotifications(ctx, 10)
	require.NoError(t, err)

	require.NoError(t, repo.MarkForRetry(ctx, item.ID, errors.New("smtp down"), time.Now().Add(time.Hour)))

	// not due yet
	items, err := repo.FetchPendingNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = testDB.Exec(ctx, `UPDATE notification_queue SET next_attempt_at = NOW() WHERE id = $1`, item.ID)
	require.NoError(t, err)

	items, err = repo.FetchPendingNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Attempts)
	assert.Equal(t, "smtp down", items[0].LastError)

	require.NoError(t, repo.MarkAsFailed(ctx, item.ID, errors.New("mailbox unavailable")))
	stats, err := repo.GetQueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestNotificationQueue_RequeueStale(t *testing.T) {
	clearQueue(t)
	ctx := context.Background()
	repo := notificationspostgres.NewRepository(testDB)

	item := &notifications.QueueItem{
		MessageType: notifications.MessageTypeSubscriptionCreated,
		Recipient:   "ana@example.com",
		Payload:     testPayload(),
		MaxAttempts: 3,
	}
	require.NoError(t, repo.EnqueueNotification(ctx, item))
	_, err := repo.FetchPendingNotifications(ctx, 10)
	require.NoError(t, err)

	n, err := repo.RequeueStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = testDB.Exec(ctx, `UPDATE notification_queue SET updated_at = NOW() - INTERVAL '2 hours' WHERE id = $1`, item.ID)
	require.NoError(t, err)

	n, err = repo.RequeueStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, err := repo.FetchPendingNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestNotificationQueue_SubscribeEnqueuesAndWorkerDelivers(t *testing.T) {
	clearQueue(t)
	ctx := context.Background()
	repo := notificationspostgres.NewRepository(testDB)
	service := newNotifyingSubscriptions(repo)

	organizer := createUser(t, "Ana Souza")
	subscriber := createUser(t, "Bruno Lima")
	meetupID := createMeetup(t, newTestClient(t, organizer.ID), "Go Night", hoursAhead(12, 30))

	_, err := service.Subscribe(ctx, subscriber.ID, meetupID)
	require.NoError(t, err)

	stats, err := repo.GetQueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)

	renderer, err := notifications.NewRenderer("en", time.UTC)
	require.NoError(t, err)
	sender := &MockSender{}
	sender.FailNextN(1, notifications.NewRetryableError(errors.New("temporary failure")))

	worker := notifications.NewWorker(notifications.WorkerConfig{
		BatchSize:         10,
		PollInterval:      100 * time.Millisecond,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        200 * time.Millisecond,
		BackoffMultiplier: 2.0,
		NumWorkers:        2,
		StaleAfter:        time.Minute,
	}, repo, sender, renderer)

	workerCtx, cancel := context.WithCancel(ctx)
	worker.Start(workerCtx)
	defer func() {
		cancel()
		worker.Stop()
	}()

	require.True(t, sender.WaitForNotifications(1, 10*time.Second))
	sent := sender.GetSent()
	assert.Equal(t, organizer.Email, sent[0].To)
	assert.Equal(t, notifications.SubscriptionSubject, sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Ana Souza")
	assert.Contains(t, sent[0].Body, "Bruno Lima")
	assert.Contains(t, sent[0].Body, "Go Night")
	assert.Equal(t, 2, sender.CallCount())

	assert.Eventually(t, func() bool {
		stats, err := repo.GetQueueStats(ctx)
		return err == nil && stats.Sent == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNotificationQueue_RejectedSubscriptionEnqueuesNothing(t *testing.T) {
	clearQueue(t)
	ctx := context.Background()
	repo := notificationspostgres.NewRepository(testDB)
	service := newNotifyingSubscriptions(repo)

	organizer := createUser(t, "Ana Souza")
	meetupID := createMeetup(t, newTestClient(t, organizer.ID), "Go Night", hoursAhead(12, 0))

	_, err := service.Subscribe(ctx, organizer.ID, meetupID)
	require.ErrorIs(t, err, subscriptions.ErrSelfSubscription)

	stats, err := repo.GetQueueStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Pending)
}
