package respcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache outcomes per namespace. Invalidations are counted per
// trigger (TriggerManual, TriggerWrite) since prefixes may come from requests.
// A nil *Metrics records nothing.
type Metrics struct {
	Hits        *prometheus.CounterVec
	Misses      *prometheus.CounterVec
	Stores      *prometheus.CounterVec
	Invalidated *prometheus.CounterVec
}

// NewMetrics registers the response cache counters on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Hits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "respcache",
			Name:      "hits_total",
			Help:      "Requests answered from the response cache",
		}, []string{"namespace"}),
		Misses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "respcache",
			Name:      "misses_total",
			Help:      "Cacheable requests forwarded to the handler",
		}, []string{"namespace"}),
		Stores: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "respcache",
			Name:      "stores_total",
			Help:      "Responses written to the cache",
		}, []string{"namespace"}),
		Invalidated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "respcache",
			Name:      "invalidated_total",
			Help:      "Entries removed by prefix invalidation",
		}, []string{"trigger"}),
	}
}

func (m *Metrics) hit(ns string) {
	if m != nil {
		m.Hits.WithLabelValues(ns).Inc()
	}
}

func (m *Metrics) miss(ns string) {
	if m != nil {
		m.Misses.WithLabelValues(ns).Inc()
	}
}

func (m *Metrics) stored(ns string) {
	if m != nil {
		m.Stores.WithLabelValues(ns).Inc()
	}
}

func (m *Metrics) invalidated(trigger string, n int) {
	if m != nil {
		m.Invalidated.WithLabelValues(trigger).Add(float64(n))
	}
}
