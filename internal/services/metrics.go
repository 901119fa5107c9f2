package services

import "github.com/prometheus/client_golang/prometheus"

// Transition reasons for chat_status_transitions_total.
const (
	reasonManual  = "manual"
	reasonTimeout = "timeout"
	reasonSweep   = "sweep"
	reasonRepair  = "reconcile"
)

var statusTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_status_transitions_total",
		Help: "Handoff mode writes by resulting mode and reason.",
	},
	[]string{"mode", "reason"},
)

func init() {
	prometheus.MustRegister(statusTransitions)
}
