package engine

import (
	"log/slog"
	"os"
	"time"

	"github.com/lucelabs/vessel/internal/obslog"
	"github.com/lucelabs/vessel/ttl"
)

type options struct {
	logger            *obslog.Logger
	metricsCollector  MetricsCollector
	auditCapacity     int
	ttlSweepInterval  time.Duration
	queryCacheMaxCost int64
	queryCacheTTL     time.Duration
}

// Option configures an Engine at construction time.
type Option func(*options)

// WithLogger configures structured logging for every operation. Pass nil to
// disable logging.
func WithLogger(logger *obslog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = obslog.NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel is a convenience wrapper for WithLogger(obslog.NewText(os.Stderr, level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = obslog.NewText(os.Stderr, level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithAuditCapacity configures the audit log's fixed ring capacity.
// capacity <= 0 falls back to audit.DefaultCapacity.
func WithAuditCapacity(capacity int) Option {
	return func(o *options) {
		o.auditCapacity = capacity
	}
}

// WithTTLSweepInterval configures how often the background TTL sweeper
// runs. interval <= 0 falls back to ttl.DefaultInterval.
func WithTTLSweepInterval(interval time.Duration) Option {
	return func(o *options) {
		o.ttlSweepInterval = interval
	}
}

// WithQueryCache enables the optional ristretto-backed query result cache.
// maxCost bounds the cache's total retained cost, where each cached query
// result costs its number of result rows plus one; resultTTL bounds how long a cached query result is served
// before being recomputed, independent of the documents' own TTL. Passing
// maxCost <= 0 disables the cache (the construction default).
func WithQueryCache(maxCost int64, resultTTL time.Duration) Option {
	return func(o *options) {
		o.queryCacheMaxCost = maxCost
		o.queryCacheTTL = resultTTL
	}
}

func defaultOptions() options {
	return options{
		logger:           obslog.NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		auditCapacity:    0, // audit.New falls back to audit.DefaultCapacity
		ttlSweepInterval: ttl.DefaultInterval,
		queryCacheTTL:    30 * time.Second,
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
