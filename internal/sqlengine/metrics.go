package sqlengine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeOK        = "ok"
	outcomeFail      = "fail"
	outcomeCancelled = "cancelled"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collected_sqlengine_operations_total",
		Help: "Cumulative number of connection operations, by operation and outcome.",
	}, []string{"operation", "outcome"})
	queueWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "collected_sqlengine_queue_wait_seconds",
		Help:    "Time requests spend queued before the connection worker starts them.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
	liveStatements = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collected_sqlengine_live_statements",
		Help: "Number of prepared statements not yet finalized, across all connections.",
	})
)

func outcomeOf(err error) string {
	if err != nil {
		return outcomeFail
	}
	return outcomeOK
}
