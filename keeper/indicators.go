package keeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const promNamespace = "helix_governance"

type PromIndicators struct {
	tuneTotal         prometheus.Counter
	tuneFailuresTotal prometheus.Counter
	outpostsFailed    prometheus.Gauge
	relayPending      prometheus.Gauge
}

func NewPromIndicators(chainID string, reg prometheus.Registerer) *PromIndicators {
	constLabels := prometheus.Labels{"chain_id": chainID}
	return &PromIndicators{
		tuneTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace:   promNamespace,
			Name:        "tune_total",
			Help:        "Total number of tune_pools transactions submitted",
			ConstLabels: constLabels,
		}),
		tuneFailuresTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace:   promNamespace,
			Name:        "tune_failures_total",
			Help:        "Total number of tune_pools transactions that failed to broadcast",
			ConstLabels: constLabels,
		}),
		outpostsFailed: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace:   promNamespace,
			Name:        "outposts_failed",
			Help:        "Number of outposts whose last emission relay failed",
			ConstLabels: constLabels,
		}),
		relayPending: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace:   promNamespace,
			Name:        "relay_pending",
			Help:        "Number of outposts with an emission relay still in flight",
			ConstLabels: constLabels,
		}),
	}
}

func (p *PromIndicators) AddTuneTotal() {
	p.tuneTotal.Inc()
}

func (p *PromIndicators) AddTuneFailure() {
	p.tuneFailuresTotal.Inc()
}

func (p *PromIndicators) SetOutpostsFailed(n int) {
	p.outpostsFailed.Set(float64(n))
}

func (p *PromIndicators) SetRelayPending(n int) {
	p.relayPending.Set(float64(n))
}
