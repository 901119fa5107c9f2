package sse

import "github.com/prometheus/client_golang/prometheus"

// Delivery outcomes for sse_events_total.
const (
	outcomeDelivered = "delivered"
	outcomeDropped   = "dropped"
	outcomeFailed    = "failed"
)

var (
	// connGauge tracks currently registered sessions.
	connGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sse_connections",
		Help: "Number of open dashboard event streams.",
	})

	// eventsTotal counts per-session deliveries by kind and outcome.
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sse_events_total",
			Help: "Events offered to dashboard streams by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(connGauge, eventsTotal)
}
