// Package metrics holds Prometheus instruments used across the intake
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
//
// Labels never carry submission content; outcomes, reasons, and channels are
// drawn from small fixed sets.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	OutcomeAccepted       = "accepted"
	OutcomeRejected       = "rejected"
	OutcomeInvalid        = "invalid"
	OutcomeSafetyOverride = "safety_override"
	OutcomeTrapped        = "honeypot"
	OutcomeDispatchFailed = "dispatch_failed"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Intake submissions by final outcome.",
		}, []string{"outcome"})

	GateRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_gate_rejections_total",
			Help: "Requests rejected by the policy gate, by reason.",
		}, []string{"reason"})

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_dispatch_total",
			Help: "Notification dispatch attempts by kind, channel, and result.",
		}, []string{"kind", "channel", "result"})

	DispatchSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_dispatch_seconds",
			Help:    "Latency of notification sends.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"})

	RateLimitUnknownSourceTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_ratelimit_unknown_source_total",
			Help: "Submissions that bypassed rate limiting because no client address was derivable.",
		})

	HTTPRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_http_request_seconds",
			Help:    "HTTP request latency by method and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "code"})

	RateLimitErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_ratelimit_errors_total",
			Help: "Limiter backend failures; the request was allowed through.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		GateRejectionsTotal,
		DispatchTotal,
		DispatchSeconds,
		RateLimitUnknownSourceTotal,
		RateLimitErrorsTotal,
		HTTPRequestSeconds,
	)
}
