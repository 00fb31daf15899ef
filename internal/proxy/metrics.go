package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the optional Prometheus counters for proxy decisions. A nil
// *Metrics is valid and every method on it is a safe no-op, so callers that
// run without metrics enabled never need a nil check at the call site.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics creates and registers the proxy decision counter with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		decisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vaultgate",
				Name:      "proxy_decisions_total",
				Help:      "Total tools/call decisions by outcome",
			},
			[]string{"outcome"}, // allow|blocked|rate_limited|error
		),
	}
}

func (m *Metrics) record(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}
