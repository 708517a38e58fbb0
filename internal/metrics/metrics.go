// Package metrics provides Prometheus metrics for the dashboard poller.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Poll loop metrics.
	PollTicksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wuzdash",
		Subsystem: "poll",
		Name:      "ticks_total",
		Help:      "Poll ticks by loop and outcome.",
	}, []string{"loop", "outcome"}) // outcome: "ok", "error" or "stale"
	PollInterval = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wuzdash",
		Subsystem: "poll",
		Name:      "interval_seconds",
		Help:      "Current reschedule interval per loop.",
	}, []string{"loop"})
	PollFetchSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wuzdash",
		Subsystem: "poll",
		Name:      "fetch_seconds",
		Help:      "Latency of poll fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"loop"})

	// Snapshot metrics.
	Instances = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wuzdash",
		Subsystem: "snapshot",
		Name:      "instances",
		Help:      "Instances in the latest snapshot by state.",
	}, []string{"state"}) // "connected", "logged_in", "total"

	// User action metrics.
	ActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wuzdash",
		Subsystem: "action",
		Name:      "total",
		Help:      "User-initiated actions by name and outcome.",
	}, []string{"action", "outcome"})

	// Outbox metrics.
	OutboxSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wuzdash",
		Subsystem: "outbox",
		Name:      "sent_total",
		Help:      "Messages delivered to the gateway.",
	})
	OutboxFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wuzdash",
		Subsystem: "outbox",
		Name:      "failed_total",
		Help:      "Messages the gateway rejected.",
	})
)

func init() {
	prometheus.MustRegister(
		PollTicksTotal,
		PollInterval,
		PollFetchSeconds,

		Instances,

		ActionsTotal,

		OutboxSentTotal,
		OutboxFailedTotal,
	)
}

// Outcome labels an error for the outcome dimension.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
