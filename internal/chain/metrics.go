package chain

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeResolved = "resolved"
	outcomeEmpty    = "empty"
	outcomePending  = "pending"
	outcomeDecode   = "decode_error"
	outcomeCached   = "cached"
)

var (
	metricsInitOnce sync.Once
	sharedMetrics   *readMetrics
)

type readMetrics struct {
	calls *prometheus.CounterVec
}

func newReadMetrics() *readMetrics {
	metricsInitOnce.Do(func() {
		m := &readMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lendstat_chain_reads_total",
				Help: "Contract reads by method and outcome.",
			}, []string{"method", "outcome"}),
		}
		prometheus.MustRegister(m.calls)
		sharedMetrics = m
	})
	return sharedMetrics
}

func (m *readMetrics) observe(method, outcome string) {
	m.calls.WithLabelValues(method, outcome).Inc()
}
