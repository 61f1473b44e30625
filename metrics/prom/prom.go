// Package prom exports cache events as Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tradeforge/cachekit/cache"
)

// Adapter implements cache.Metrics on top of Prometheus counters and gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	sets    prometheus.Counter
	evicts  *prometheus.CounterVec
	expired prometheus.Counter
	errors  *prometheus.CounterVec
	entries prometheus.Gauge
	bytes   prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg: registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub: Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "sets_total",
			Help:        "Successful cache writes",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Cache evictions by trigger",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "expired_total",
			Help:        "Entries removed by TTL expiry",
			ConstLabels: constLabels,
		}),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "errors_total",
				Help:        "Suppressed cache failures by kind",
				ConstLabels: constLabels,
			},
			[]string{"kind"},
		),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
		bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "resident_bytes",
			Help:        "Estimated resident bytes",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.sets, a.evicts, a.expired, a.errors, a.entries, a.bytes)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Set increments the write counter.
func (a *Adapter) Set() { a.sets.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Expired increments the expiry counter.
func (a *Adapter) Expired() { a.expired.Inc() }

// Error increments the error counter with a kind label.
func (a *Adapter) Error(kind cache.ErrorKind) {
	a.errors.WithLabelValues(string(kind)).Inc()
}

// Size updates gauges for the number of entries and resident bytes.
func (a *Adapter) Size(entries int, bytes int64) {
	a.entries.Set(float64(entries))
	a.bytes.Set(float64(bytes))
}

var _ cache.Metrics = (*Adapter)(nil)
