// Package metrics instruments assignment decisions with Prometheus counters
// on the default registry; main exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var assignmentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rotation",
	Name:      "assignment_outcomes_total",
	Help:      "Assignment request outcomes by kind.",
}, []string{"outcome"})

// ObserveAssignment counts one terminal assignment outcome ("committed" or a
// failure kind).
func ObserveAssignment(outcome string) {
	assignmentOutcomes.WithLabelValues(outcome).Inc()
}
