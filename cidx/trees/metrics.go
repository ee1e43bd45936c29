package trees

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "cidx"
	metricsSubsystem = "index"
)

// Query kinds, used as stats buckets and metric labels.
const (
	QueryLookup   = "lookup"
	QueryFault    = "fault"
	QueryExtremum = "extremum"
	QueryRange    = "range"
	QueryRoute    = "route"
	QueryPrefix   = "prefix"
)

func avlHeightBound(keys int) float64 {
	return 1.4405*math.Log2(float64(keys)+2) - 0.3277
}

// QueryStats is a snapshot of the query counters of a MultiIndex.
type QueryStats struct {
	TotalQueries    int64
	LookupQueries   int64
	FaultQueries    int64
	ExtremumQueries int64
	RangeQueries    int64
	RouteQueries    int64
	PrefixQueries   int64
}

// queryCounters are bumped by concurrent readers, hence atomics.
type queryCounters struct {
	total, lookup, fault, extremum, rng, route, prefix atomic.Int64
}

func (c *queryCounters) record(kind string) {
	c.total.Add(1)
	switch kind {
	case QueryLookup:
		c.lookup.Add(1)
	case QueryFault:
		c.fault.Add(1)
	case QueryExtremum:
		c.extremum.Add(1)
	case QueryRange:
		c.rng.Add(1)
	case QueryRoute:
		c.route.Add(1)
	case QueryPrefix:
		c.prefix.Add(1)
	}
}

func (c *queryCounters) snapshot() QueryStats {
	return QueryStats{
		TotalQueries:    c.total.Load(),
		LookupQueries:   c.lookup.Load(),
		FaultQueries:    c.fault.Load(),
		ExtremumQueries: c.extremum.Load(),
		RangeQueries:    c.rng.Load(),
		RouteQueries:    c.route.Load(),
		PrefixQueries:   c.prefix.Load(),
	}
}

// Metrics exports engine activity to Prometheus.
type Metrics struct {
	queriesTotal   *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	buildDuration  prometheus.Histogram
	indexedRecords prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "queries_total",
				Help:      "Total number of index queries by kind",
			},
			[]string{"kind"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "query_duration_seconds",
				Help:      "Index query latency in seconds by kind",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"kind"},
		),
		buildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "build_duration_seconds",
				Help:      "Time spent building all indices in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		indexedRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "records",
				Help:      "Number of call records in the most recent build",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.queriesTotal, m.queryDuration, m.buildDuration, m.indexedRecords} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register index metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeQuery(kind string, start time.Time) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(kind).Inc()
	m.queryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeBuild(d time.Duration, records int) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
	m.indexedRecords.Set(float64(records))
}
