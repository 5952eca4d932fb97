// Package metrics defines the Prometheus metrics for the bot gateway.
//
// Naming follows Prometheus conventions: tgbot_ prefix, _total suffix for
// counters. Everything is registered on the default registry and served by
// the gateway's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UpdatesTotal counts inbound webhook updates by classified kind.
	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgbot_updates_total",
			Help: "Total inbound updates by classified kind.",
		},
		[]string{"kind"},
	)

	// APICallsTotal counts outbound Bot API calls by method and outcome.
	APICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgbot_api_calls_total",
			Help: "Total outbound Bot API calls by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	// DegradedNoticesTotal counts fallback failure notices attempted after a
	// failed outbound call.
	DegradedNoticesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tgbot_degraded_notices_total",
			Help: "Total degraded failure notices attempted.",
		},
	)

	// HandlerErrorsTotal counts handler invocations that returned an error or
	// panicked, by route label.
	HandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgbot_handler_errors_total",
			Help: "Total handler errors and panics by route.",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		UpdatesTotal,
		APICallsTotal,
		DegradedNoticesTotal,
		HandlerErrorsTotal,
	)
}
