package notifications

import (
	"time"

	"github.com/bissquit/meetup-hub/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "notifications",
			Name:      "queue_size",
			Help:      "Number of notifications in queue by status",
		},
		[]string{"status"},
	)

	notificationsEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "notifications",
			Name:      "enqueued_total",
			Help:      "Total notifications added to the queue",
		},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Total notifications processed",
		},
		[]string{"channel_type", "status"},
	)

	notificationSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "notifications",
			Name:      "send_duration_seconds",
			Help:      "Time to send notification",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"channel_type"},
	)

	notificationsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "notifications",
			Name:      "queue_fetched_total",
			Help:      "Total notifications fetched from queue (before send attempt). Sum of sent_total should match this.",
		},
	)
)

func recordEnqueued() {
	notificationsEnqueued.Inc()
}

func recordNotificationSent(channelType, status string) {
	notificationsSent.WithLabelValues(channelType, status).Inc()
}

func recordNotificationDuration(channelType string, duration time.Duration) {
	notificationSendDuration.WithLabelValues(channelType).Observe(duration.Seconds())
}

func recordQueueProcessed(count int) {
	notificationsProcessed.Add(float64(count))
}

// RecordQueueStats updates queue size metrics.
func RecordQueueStats(stats *QueueStats) {
	notificationQueueSize.WithLabelValues(string(QueueStatusPending)).Set(float64(stats.Pending))
	notificationQueueSize.WithLabelValues(string(QueueStatusProcessing)).Set(float64(stats.Processing))
	notificationQueueSize.WithLabelValues(string(QueueStatusSent)).Set(float64(stats.Sent))
	notificationQueueSize.WithLabelValues(string(QueueStatusFailed)).Set(float64(stats.Failed))
}
