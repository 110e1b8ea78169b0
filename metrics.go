package voting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "governor"

// Metrics holds the Prometheus metrics of the governance engine.
type Metrics struct {
	proposalsSubmitted prometheus.Counter
	votesCast          *prometheus.CounterVec
	votesRejected      *prometheus.CounterVec
	executions         *prometheus.CounterVec
	proposalsClosed    prometheus.Counter
	proposalsCleared   prometheus.Counter
}

// NewMetrics registers the engine metrics with reg. A nil registerer yields unregistered
// metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		proposalsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_submitted_total",
			Help:      "proposals submitted",
		}),
		votesCast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "votes_cast_total",
			Help:      "votes counted, by choice",
		}, []string{"choice"}),
		votesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "votes_rejected_total",
			Help:      "votes rejected, by reason",
		}, []string{"reason"}),
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "executions_total",
			Help:      "proposal executions, by outcome",
		}, []string{"outcome"}),
		proposalsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_closed_total",
			Help:      "proposals closed by the expiry sweep",
		}),
		proposalsCleared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_cleared_total",
			Help:      "proposals removed by maintenance operations",
		}),
	}
}

func choiceLabel(choice bool) string {
	if choice {
		return "yes"
	}

	return "no"
}
