// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoreply_emails_sent_total",
			Help: "Total number of acknowledgement emails sent",
		},
		[]string{"client"},
	)

	ApplicantsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoreply_applicants_skipped_total",
			Help: "Total number of applicants skipped, by reason",
		},
		[]string{"client", "reason"},
	)

	SendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoreply_send_failures_total",
			Help: "Total number of failed delivery attempts after retries",
		},
		[]string{"client"},
	)

	SentUnmarked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoreply_sent_unmarked_total",
			Help: "Emails sent whose sent-marker write-back failed (duplicate-send risk)",
		},
		[]string{"client"},
	)

	AccountDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "autoreply_account_duration_seconds",
			Help: "Duration of per-account processing in seconds",
		},
		[]string{"client"},
	)
)
