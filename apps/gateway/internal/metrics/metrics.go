// Package metrics defines the prometheus collectors of the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	EventsTotal          *prometheus.CounterVec
	EventsDropped        *prometheus.CounterVec
	InvalidationFailures *prometheus.CounterVec
	Notifications        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "events_total",
			Help:      "Domain events processed, by type.",
		}, []string{"type"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "events_dropped_total",
			Help:      "Inbound messages rejected before processing, by reason.",
		}, []string{"reason"}),
		InvalidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "invalidation_failures_total",
			Help:      "Failed cache invalidation operations, by event type.",
		}, []string{"type"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "notifications_total",
			Help:      "Notification deliveries, by event type and result.",
		}, []string{"type", "result"}),
	}
	reg.MustRegister(m.EventsTotal, m.EventsDropped, m.InvalidationFailures, m.Notifications)
	return m
}

// NewNop returns collectors registered nowhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
