// Package metrics exposes the Prometheus collectors of the posting core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeDeferred = "deferred"
	OutcomeReplayed = "replayed"
	OutcomeFailed   = "failed"
)

var (
	// VoucherOperations counts posting-service operations by operation and outcome.
	VoucherOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "himalytix",
		Subsystem: "vouchers",
		Name:      "operations_total",
		Help:      "Voucher operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// VoucherErrors counts failed operations by error code.
	VoucherErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "himalytix",
		Subsystem: "vouchers",
		Name:      "errors_total",
		Help:      "Failed voucher operations by error code.",
	}, []string{"operation", "code"})

	// PostingDuration observes the time spent in the posting transaction.
	PostingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "himalytix",
		Subsystem: "vouchers",
		Name:      "posting_duration_seconds",
		Help:      "Duration of posting transactions.",
		Buckets:   prometheus.DefBuckets,
	})

	// OutboxEvents counts outbox publish attempts by result.
	OutboxEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "himalytix",
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox publish attempts by result.",
	}, []string{"result"})

	// SchemaResolutions counts schema resolutions by source.
	SchemaResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "himalytix",
		Subsystem: "schema",
		Name:      "resolutions_total",
		Help:      "Schema resolutions by source.",
	}, []string{"source"})
)
