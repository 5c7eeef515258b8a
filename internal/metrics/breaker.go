package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ryanbastic/go-locator/internal/circuitbreaker"
)

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		},
		[]string{"breaker"},
	)

	breakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Number of circuit breaker state transitions.",
		},
		[]string{"breaker", "to"},
	)
)

// BreakerObserver returns a state change callback that exports the state of
// the breaker called name. The gauge starts at closed.
func BreakerObserver(name string) func(from, to circuitbreaker.State) {
	breakerState.WithLabelValues(name).Set(float64(circuitbreaker.Closed))
	return func(_, to circuitbreaker.State) {
		breakerState.WithLabelValues(name).Set(float64(to))
		breakerTransitions.WithLabelValues(name, to.String()).Inc()
	}
}
