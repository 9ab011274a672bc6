package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenhub",
			Name:      "booking_create_total",
			Help:      "Booking creation attempts by result.",
		},
		[]string{"result"},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenhub",
			Name:      "booking_conflicts_total",
			Help:      "Overlapping booking requests by the stage that caught them.",
		},
		[]string{"stage"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenhub",
			Name:      "booking_status_changes_total",
			Help:      "Booking status transitions.",
		},
		[]string{"from", "to"},
	)

	storeRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenhub",
			Name:      "store_retries_total",
			Help:      "Retries of transient store failures by operation.",
		},
		[]string{"op"},
	)

	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenhub",
			Name:      "reminders_sent_total",
			Help:      "Booking reminders by result.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenhub",
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingConflicts, statusChanges, storeRetries, remindersSent, httpRequests)
	})
}

func IncBookingCreate(result string) {
	bookingCreated.WithLabelValues(result).Inc()
}

func IncConflict(stage string) {
	bookingConflicts.WithLabelValues(stage).Inc()
}

func IncStatusChange(from, to string) {
	statusChanges.WithLabelValues(from, to).Inc()
}

func IncStoreRetry(op string) {
	storeRetries.WithLabelValues(op).Inc()
}

func IncReminder(result string) {
	remindersSent.WithLabelValues(result).Inc()
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}
