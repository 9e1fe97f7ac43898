// Package metrics defines the custom Prometheus metrics for mapgate. It is the
// single source of truth for metric names, labels and help strings.
//
// Metrics register with the default registry on package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mapgate"

// ── Gateway metrics ───────────────────────────────────────────────────────────

// GatewayRequestsTotal counts upstream calls.
// Labels:
//   - operation: "geocode", "reverse_geocode" or "search_poi"
//   - outcome: "success", "upstream_rejected" or "transport_failure"
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of upstream provider calls, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// GatewayRequestDuration measures upstream round-trip time, including time
// spent waiting for the client timeout.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of upstream provider calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
var CircuitBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Upstream circuit breaker state (0 closed, 1 half-open, 2 open).",
	},
	[]string{"name"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login form submissions.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration form submissions.
// Label:
//   - result: "success", "invalid", "conflict" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)
