package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Total number of payments labeled by funding method and status",
		},
		[]string{"method", "status"},
	)
	paymentAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_amount",
			Help:    "Amounts of successful payments",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method"},
	)
	friendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend requests labeled by status",
		},
		[]string{"status"},
	)
	usersRegisteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of users created",
		},
	)
	cardChargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_charges_total",
			Help: "Total number of card processor calls labeled by status",
		},
		[]string{"status"},
	)
	cardChargeDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "card_charge_duration_seconds",
			Help:    "Duration of card processor calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
)

// RecordPayment counts a payment attempt; amount is only observed for successes.
func RecordPayment(method, status string, amount float64) {
	if method == "" {
		method = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	paymentsTotal.WithLabelValues(method, status).Inc()
	if status == "success" {
		paymentAmount.WithLabelValues(method).Observe(amount)
	}
}

// RecordFriendRequest counts an add-friend attempt.
func RecordFriendRequest(status string) {
	if status == "" {
		status = "unknown"
	}

	friendRequestsTotal.WithLabelValues(status).Inc()
}

// RecordRegistration counts a created user.
func RecordRegistration() {
	usersRegisteredTotal.Inc()
}

// RecordCardCharge counts a processor call and records its latency.
func RecordCardCharge(status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}

	cardChargesTotal.WithLabelValues(status).Inc()
	cardChargeDurationSeconds.Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}
