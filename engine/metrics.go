package engine

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines the interface for collecting operational
// metrics. Implement it to integrate with a monitoring system such as
// Prometheus.
type MetricsCollector interface {
	// RecordCollectionCreate is called after CreateCollection.
	RecordCollectionCreate(duration time.Duration, err error)

	// RecordInsert is called after each insert; count is the number of
	// documents attempted.
	RecordInsert(duration time.Duration, count int, err error)

	// RecordQuery is called after each query.
	RecordQuery(duration time.Duration, topK int, err error)

	// RecordDelete is called after each delete; count is the number of ids
	// requested.
	RecordDelete(duration time.Duration, count int, err error)

	// RecordTTLSweep is called once per collection swept per sweep cycle.
	RecordTTLSweep(expired int, err error)

	// RecordCacheHit and RecordCacheMiss track the query cache, when enabled.
	RecordCacheHit()
	RecordCacheMiss()
}

// NoopMetricsCollector discards everything. It is the construction default.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCollectionCreate(time.Duration, error) {}
func (NoopMetricsCollector) RecordInsert(time.Duration, int, error)      {}
func (NoopMetricsCollector) RecordQuery(time.Duration, int, error)       {}
func (NoopMetricsCollector) RecordDelete(time.Duration, int, error)      {}
func (NoopMetricsCollector) RecordTTLSweep(int, error)                  {}
func (NoopMetricsCollector) RecordCacheHit()                            {}
func (NoopMetricsCollector) RecordCacheMiss()                           {}

// BasicMetricsCollector is a simple in-memory MetricsCollector, useful for
// debugging without wiring an external monitoring system.
type BasicMetricsCollector struct {
	CollectionCreateCount  atomic.Int64
	CollectionCreateErrors atomic.Int64

	InsertCount      atomic.Int64
	InsertDocuments  atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64

	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64

	DeleteCount      atomic.Int64
	DeleteDocuments  atomic.Int64
	DeleteErrors     atomic.Int64

	TTLSweepCount   atomic.Int64
	TTLExpiredTotal atomic.Int64
	TTLSweepErrors  atomic.Int64

	CacheHits   atomic.Int64
	CacheMisses atomic.Int64
}

func (b *BasicMetricsCollector) RecordCollectionCreate(_ time.Duration, err error) {
	b.CollectionCreateCount.Add(1)
	if err != nil {
		b.CollectionCreateErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, count int, err error) {
	b.InsertCount.Add(1)
	b.InsertDocuments.Add(int64(count))
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordQuery(duration time.Duration, _ int, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, count int, err error) {
	b.DeleteCount.Add(1)
	b.DeleteDocuments.Add(int64(count))
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordTTLSweep(expired int, err error) {
	b.TTLSweepCount.Add(1)
	b.TTLExpiredTotal.Add(int64(expired))
	if err != nil {
		b.TTLSweepErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordCacheHit()  { b.CacheHits.Add(1) }
func (b *BasicMetricsCollector) RecordCacheMiss() { b.CacheMisses.Add(1) }

// BasicMetricsStats is a snapshot of BasicMetricsCollector's counters.
type BasicMetricsStats struct {
	CollectionCreateCount  int64
	CollectionCreateErrors int64
	InsertCount            int64
	InsertDocuments        int64
	InsertErrors           int64
	InsertAvgNanos         int64
	QueryCount             int64
	QueryErrors            int64
	QueryAvgNanos          int64
	DeleteCount            int64
	DeleteDocuments        int64
	DeleteErrors           int64
	TTLSweepCount          int64
	TTLExpiredTotal        int64
	TTLSweepErrors         int64
	CacheHits              int64
	CacheMisses            int64
}

// GetStats returns a point-in-time snapshot of b's counters.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CollectionCreateCount:  b.CollectionCreateCount.Load(),
		CollectionCreateErrors: b.CollectionCreateErrors.Load(),
		InsertCount:            b.InsertCount.Load(),
		InsertDocuments:        b.InsertDocuments.Load(),
		InsertErrors:           b.InsertErrors.Load(),
		InsertAvgNanos:         avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		QueryCount:             b.QueryCount.Load(),
		QueryErrors:            b.QueryErrors.Load(),
		QueryAvgNanos:          avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		DeleteCount:            b.DeleteCount.Load(),
		DeleteDocuments:        b.DeleteDocuments.Load(),
		DeleteErrors:           b.DeleteErrors.Load(),
		TTLSweepCount:          b.TTLSweepCount.Load(),
		TTLExpiredTotal:        b.TTLExpiredTotal.Load(),
		TTLSweepErrors:         b.TTLSweepErrors.Load(),
		CacheHits:              b.CacheHits.Load(),
		CacheMisses:            b.CacheMisses.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}
