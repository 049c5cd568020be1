package resilience

import "github.com/prometheus/client_golang/prometheus"

// Breaker metrics, labelled by the guarded dependency.
var (
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"})
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Breaker state transitions.",
	}, []string{"target", "from", "to"})
	BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "breaker",
		Name:      "opened_total",
		Help:      "Times a breaker opened.",
	}, []string{"target"})
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal)
}
