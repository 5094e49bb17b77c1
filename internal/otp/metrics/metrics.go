// Package metrics holds the Prometheus collectors for the OTP service. They
// register on the default registry, which /metrics serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChallengesIssued counts new challenges by channel and reason
	// (create, resend).
	ChallengesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_challenges_issued_total",
			Help: "Total number of OTP challenges issued",
		},
		[]string{"channel", "reason"},
	)

	// IssueRejected counts issue requests refused by the per-target limit.
	IssueRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_issue_rejected_total",
			Help: "Total number of OTP issue requests rejected by the per-target limit",
		},
		[]string{"channel"},
	)

	// Verifications counts code submissions by outcome.
	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "Total number of OTP code submissions by outcome",
		},
		[]string{"outcome"},
	)

	// Deliveries counts hand-offs to a sender by channel and status.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_deliveries_total",
			Help: "Total number of OTP deliveries attempted",
		},
		[]string{"channel", "status"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "otp_delivery_duration_seconds",
			Help:    "Time spent handing a code to its sender",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"channel"},
	)

	// ChallengesPurged counts rows removed by housekeeping.
	ChallengesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_challenges_purged_total",
			Help: "Total number of stale challenges deleted by housekeeping",
		},
	)
)
