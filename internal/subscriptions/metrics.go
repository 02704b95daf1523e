package subscriptions

import (
	"github.com/bissquit/meetup-hub/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var subscribeAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "subscriptions",
		Name:      "attempts_total",
		Help:      "Subscribe attempts by outcome",
	},
	[]string{"outcome"},
)

func recordAttempt(outcome string) {
	subscribeAttempts.WithLabelValues(outcome).Inc()
}
