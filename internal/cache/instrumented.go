package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counters are the cache metrics exported on /metrics.
type Counters struct {
	Hits   *prometheus.CounterVec
	Misses *prometheus.CounterVec
	Errors *prometheus.CounterVec
}

// NewCounters creates and registers the cache counters with reg.
func NewCounters(reg prometheus.Registerer) *Counters {
	c := &Counters{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfoliobot_cache_hits_total",
			Help: "Total number of cache hits by cache name",
		}, []string{"cache"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfoliobot_cache_misses_total",
			Help: "Total number of cache misses by cache name",
		}, []string{"cache"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfoliobot_cache_errors_total",
			Help: "Total number of cache backend errors by cache name and operation",
		}, []string{"cache", "op"}),
	}
	reg.MustRegister(c.Hits, c.Misses, c.Errors)
	return c
}

// Instrumented counts hits, misses and errors of the wrapped store.
type Instrumented struct {
	next     Store
	name     string
	counters *Counters
}

func NewInstrumented(next Store, name string, counters *Counters) *Instrumented {
	return &Instrumented{next: next, name: name, counters: counters}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := i.next.Get(ctx, key)
	switch {
	case err != nil:
		i.counters.Errors.WithLabelValues(i.name, "get").Inc()
	case ok:
		i.counters.Hits.WithLabelValues(i.name).Inc()
	default:
		i.counters.Misses.WithLabelValues(i.name).Inc()
	}
	return v, ok, err
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := i.next.Set(ctx, key, value, ttl)
	if err != nil {
		i.counters.Errors.WithLabelValues(i.name, "set").Inc()
	}
	return err
}
