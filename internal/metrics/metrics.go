package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus instruments.
type Metrics struct {
	// Entitlement checks, labelled by result: allowed, rejected, insufficient.
	EntitlementCheckTotal *prometheus.CounterVec

	// Ledger mutations.
	DeductTotal       *prometheus.CounterVec // labelled by result: ok, insufficient, error
	DeductAmountTotal prometheus.Counter
	CreditAddTotal    *prometheus.CounterVec // labelled by type: purchase, subscription

	// Job lifecycle, labelled by terminal status.
	JobsSubmittedTotal prometheus.Counter
	JobsFinishedTotal  *prometheus.CounterVec
	JobDuration        prometheus.Histogram

	// Billing webhooks, labelled by event type and result: applied, duplicate, error.
	WebhookEventsTotal *prometheus.CounterVec

	// Submission lock, labelled by result: ok, held, error.
	LockAcquireTotal *prometheus.CounterVec
}

// New registers and returns the gateway metrics.
func New() *Metrics {
	return &Metrics{
		EntitlementCheckTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stemwave_entitlement_check_total",
				Help: "Total number of entitlement checks",
			},
			[]string{"result"},
		),
		DeductTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stemwave_credit_deduct_total",
				Help: "Total number of credit deduction attempts",
			},
			[]string{"result"},
		),
		DeductAmountTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stemwave_credit_deduct_amount_total",
				Help: "Total credits deducted",
			},
		),
		CreditAddTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stemwave_credit_add_total",
				Help: "Total number of credit grants",
			},
			[]string{"type"},
		),
		JobsSubmittedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stemwave_jobs_submitted_total",
				Help: "Total number of separation jobs submitted",
			},
		),
		JobsFinishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stemwave_jobs_finished_total",
				Help: "Total number of separation jobs reaching a terminal state",
			},
			[]string{"status"},
		),
		JobDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stemwave_job_duration_seconds",
				Help:    "Time from submission to terminal state",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		WebhookEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stemwave_webhook_events_total",
				Help: "Total number of billing webhook events",
			},
			[]string{"type", "result"},
		),
		LockAcquireTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stemwave_submit_lock_acquire_total",
				Help: "Total number of submission lock acquisitions",
			},
			[]string{"result"},
		),
	}
}
