// Package metrics holds the Prometheus collectors for queue operations
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingTransitions counts lifecycle operations by action and result code
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salonq_booking_transitions_total",
			Help: "Booking lifecycle operations by action and result",
		},
		[]string{"action", "result"},
	)

	// PriorityOverrides counts successful priority starts by reason
	PriorityOverrides = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salonq_priority_overrides_total",
			Help: "Successful priority overrides by reason",
		},
		[]string{"reason"},
	)

	// WaitEstimateMinutes tracks computed wait estimates
	WaitEstimateMinutes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salonq_wait_estimate_minutes",
			Help:    "Computed wait estimates in minutes",
			Buckets: []float64{0, 5, 15, 30, 45, 60, 90, 120, 180},
		},
	)

	// SSEClients is the number of connected real-time clients
	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salonq_sse_clients",
			Help: "Connected server-sent event clients",
		},
	)

	// PushNotifications counts device push attempts by result
	PushNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salonq_push_notifications_total",
			Help: "Device push notifications by result",
		},
		[]string{"result"},
	)
)

// ObserveTransition records the outcome of a lifecycle operation.
// code is empty on success.
func ObserveTransition(action, code string) {
	if code == "" {
		code = "ok"
	}
	BookingTransitions.WithLabelValues(action, code).Inc()
}
