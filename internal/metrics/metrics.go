package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRPCError = "rpc_error"
	OutcomeFailed   = "failed"
)

var (
	registry = prometheus.NewRegistry()

	callDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rpcprobe_call_duration_seconds",
		Help:    "Duration of JSON-RPC calls grouped by method and outcome",
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "outcome"})

	callsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "rpcprobe_calls_total",
		Help: "Total JSON-RPC calls grouped by method and outcome",
	}, []string{"method", "outcome"})

	scenarioFailures = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "rpcprobe_scenario_failures_total",
		Help: "Scenarios that stopped on a failing step",
	})
)

// ObserveCall records the duration and outcome of a single call.
func ObserveCall(method, outcome string, duration time.Duration) {
	if method == "" {
		method = "unknown"
	}
	if outcome == "" {
		outcome = OutcomeFailed
	}
	callDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
	callsTotal.WithLabelValues(method, outcome).Inc()
}

// ObserveScenarioFailure counts a scenario that did not complete.
func ObserveScenarioFailure() {
	scenarioFailures.Inc()
}

// Gatherer exposes the registry holding rpcprobe metrics.
func Gatherer() prometheus.Gatherer {
	return registry
}

// WriteTextfile writes all metrics in the text exposition format, suitable
// for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
