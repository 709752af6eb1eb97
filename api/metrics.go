// Package api metrics. Exposed on /metrics via promhttp.
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RecalculationsTotal counts completed balance recalculations.
var RecalculationsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "neu",
	Subsystem: "ledger",
	Name:      "recalculations_total",
	Help:      "Total completed balance recalculations.",
})

// RecalculationErrors counts failed recalculations by reason.
var RecalculationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "neu",
	Subsystem: "ledger",
	Name:      "recalculation_errors_total",
	Help:      "Total failed balance recalculations by reason.",
}, []string{"reason"})

// RecalculationDuration tracks recalculation latency.
var RecalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "neu",
	Subsystem: "ledger",
	Name:      "recalculation_duration_seconds",
	Help:      "Latency of one full balance recalculation.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
})

// NotifierSweeps counts expiry sweep runs.
var NotifierSweeps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "neu",
	Subsystem: "notifier",
	Name:      "sweeps_total",
	Help:      "Total subscription expiry sweeps.",
})

// NotificationsFired counts fired threshold notifications by metric.
var NotificationsFired = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "neu",
	Subsystem: "notifier",
	Name:      "notifications_fired_total",
	Help:      "Total threshold notifications fired by metric.",
}, []string{"metric"})
