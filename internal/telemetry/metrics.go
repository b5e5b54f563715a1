package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var CyclesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rechargefleet",
		Subsystem: "cycle",
		Name:      "total",
		Help:      "Total number of cycles run, by service and outcome.",
	},
	[]string{"service", "outcome"}, // outcome: completed, skipped, blocked
)

var CycleDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "rechargefleet",
		Subsystem: "cycle",
		Name:      "duration_seconds",
		Help:      "Cycle duration in seconds, by service.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
	[]string{"service"},
)

var CandidatesEvaluatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rechargefleet",
		Subsystem: "candidates",
		Name:      "evaluated_total",
		Help:      "Total number of candidates evaluated, by service and classification.",
	},
	[]string{"service", "state"}, // state: expired, due_today, savings
)

var PurchasesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rechargefleet",
		Subsystem: "purchases",
		Name:      "total",
		Help:      "Total number of provider purchase attempts, by service, provider, and outcome.",
	},
	[]string{"service", "provider", "outcome"}, // outcome: success, failed
)

var RetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rechargefleet",
		Subsystem: "retry",
		Name:      "total",
		Help:      "Total number of retry attempts, by category.",
	},
	[]string{"category"}, // retriable, fatal, business
)

var AuxiliaryQueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "rechargefleet",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Current auxiliary queue depth, by service.",
	},
	[]string{"service"},
)

var RecoveredItemsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rechargefleet",
		Subsystem: "recovery",
		Name:      "items_total",
		Help:      "Total number of auxiliary items processed by crash recovery, by outcome.",
	},
	[]string{"service", "outcome"}, // outcome: committed (fresh or duplicate), still_failing
)

var AlertsRaisedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rechargefleet",
		Subsystem: "alerts",
		Name:      "raised_total",
		Help:      "Total number of alerts raised, by category.",
	},
	[]string{"category"},
)

// All returns all rechargefleet-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		CyclesTotal,
		CycleDuration,
		CandidatesEvaluatedTotal,
		PurchasesTotal,
		RetriesTotal,
		AuxiliaryQueueDepth,
		RecoveredItemsTotal,
		AlertsRaisedTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors
// plus every rechargefleet metric.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(All()...)
	return reg
}
