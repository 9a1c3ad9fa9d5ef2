package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ductclean",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ductclean",
			Name:      "lifecycle_transitions_total",
			Help:      "State transitions by entity and target status.",
		},
		[]string{"entity", "status"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ductclean",
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transitions, notifications)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncTransition increments the transition counter.
func IncTransition(entity, status string) {
	transitions.WithLabelValues(entity, status).Inc()
}

// IncNotification increments the delivery counter.
func IncNotification(channel, outcome string) {
	notifications.WithLabelValues(channel, outcome).Inc()
}
