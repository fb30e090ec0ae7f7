package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the workflows worth watching on a dashboard. Registered on
// the default registry, served by promhttp in cmd/api.
var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_logins_total",
		Help: "Successful logins by role.",
	}, []string{"role"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_registrations_total",
		Help: "Successful registrations by role.",
	}, []string{"role"})

	Swipes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_swipes_total",
		Help: "RFID swipes ingested by direction.",
	}, []string{"direction"})

	RequestDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_request_decisions_total",
		Help: "Room request decisions by verdict.",
	}, []string{"verdict"})

	AssignmentsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classtrack_assignments_cleared_total",
		Help: "Stale room assignments reset by the worker.",
	})
)
