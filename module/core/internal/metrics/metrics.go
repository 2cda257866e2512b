// Package metrics holds the Prometheus collectors for the telemetry hub.
// Collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trucktrack"

// UpdatesTotal counts committed position updates.
// Label:
//   - status: status of the vehicle after the commit
var UpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Total number of committed vehicle updates, by resulting status.",
	},
	[]string{"status"},
)

// StatusTransitionsTotal counts status changes, including those applied by directives.
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of vehicle status transitions.",
	},
	[]string{"from", "to"},
)

var PublishFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_failures_total",
		Help:      "Total number of status-change notifications that could not be published.",
	},
)

var LiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sessions",
		Help:      "Current number of registered live viewer sessions.",
	},
)

var LiveDroppedSessionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_dropped_sessions_total",
		Help:      "Total number of live sessions removed after a failed send.",
	},
)

// DirectivesTotal counts inbound status directives.
// Label:
//   - result: "applied", "ignored", "not_found" or "invalid"
var DirectivesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "directives_total",
		Help:      "Total number of inbound status directives, by outcome.",
	},
	[]string{"result"},
)
