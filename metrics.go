package simring

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    queryCounter   prometheus.Counter
//	    queryHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordQuery(patterns, results int, status simring.Status, d time.Duration, err error) {
//	    p.queryCounter.Inc()
//	    p.queryHistogram.Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordQuery is called after each query evaluation.
	RecordQuery(patterns, results int, status Status, duration time.Duration, err error)

	// RecordBuild is called after the indexes are built.
	RecordBuild(triples, nodes uint64, duration time.Duration)

	// RecordLoad is called after a snapshot load, successful or not.
	RecordLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordQuery(int, int, Status, time.Duration, error) {}
func (NoopMetricsCollector) RecordBuild(uint64, uint64, time.Duration)          {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	QueryResults    atomic.Int64
	QueryTimeouts   atomic.Int64
	QueryLimited    atomic.Int64
	BuildCount      atomic.Int64
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_, results int, status Status, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
		return
	}
	b.QueryResults.Add(int64(results))
	switch status {
	case StatusTimedOut:
		b.QueryTimeouts.Add(1)
	case StatusLimitReached:
		b.QueryLimited.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(uint64, uint64, time.Duration) {
	b.BuildCount.Add(1)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		QueryCount:    b.QueryCount.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QueryAvgNanos: b.getAvgQueryNanos(),
		QueryResults:  b.QueryResults.Load(),
		QueryTimeouts: b.QueryTimeouts.Load(),
		QueryLimited:  b.QueryLimited.Load(),
		BuildCount:    b.BuildCount.Load(),
		LoadCount:     b.LoadCount.Load(),
		LoadErrors:    b.LoadErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	QueryCount    int64
	QueryErrors   int64
	QueryAvgNanos int64
	QueryResults  int64
	QueryTimeouts int64
	QueryLimited  int64
	BuildCount    int64
	LoadCount     int64
	LoadErrors    int64
}
