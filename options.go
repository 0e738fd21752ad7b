package simring

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hupe1980/simring/internal/gao"
	"github.com/hupe1980/simring/persistence"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	compression      persistence.Compression
	maxK             uint64
	maxConcurrent    int64
	queriesPerSecond float64
	burst            int
	defaultTimeout   time.Duration
	memoryLimit      int64
}

// Option configures DB construction and load behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := simring.NewJSONLogger(slog.LevelInfo)
//	db, _ := simring.New(triples, adj, simring.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithCompression selects the snapshot body compression used by Save and
// Commit. The default is ZSTD.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMaxK fixes the number of ranks stored per node. By default the length
// of the longest adjacency list is used.
func WithMaxK(k uint64) Option {
	return func(o *options) {
		o.maxK = k
	}
}

// WithMaxConcurrentQueries bounds the number of queries evaluated at once.
// 0 selects GOMAXPROCS.
func WithMaxConcurrentQueries(n int64) Option {
	return func(o *options) {
		o.maxConcurrent = n
	}
}

// WithQueryRate paces query admission to qps queries per second with the
// given burst. 0 disables pacing.
func WithQueryRate(qps float64, burst int) Option {
	return func(o *options) {
		o.queriesPerSecond = qps
		o.burst = burst
	}
}

// WithDefaultTimeout bounds every query that does not set its own timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		o.defaultTimeout = d
	}
}

// WithMemoryLimit caps the estimated size of the indexes in bytes.
// 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      persistence.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}

// Algorithm selects the evaluation algorithm.
type Algorithm uint8

const (
	// AlgorithmLTJ evaluates exact and similarity patterns together with
	// leapfrog triejoin.
	AlgorithmLTJ Algorithm = iota
	// AlgorithmBaseline joins the exact patterns first and filters the
	// bindings by the similarity patterns afterwards.
	AlgorithmBaseline
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmLTJ:
		return "ltj"
	case AlgorithmBaseline:
		return "baseline"
	default:
		return "unknown"
	}
}

// ParseAlgorithm parses "ltj" or "baseline".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ltj":
		return AlgorithmLTJ, nil
	case "baseline":
		return AlgorithmBaseline, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q", s)
	}
}

// Strategy selects the variable ordering heuristic.
type Strategy = gao.Strategy

const (
	StrategyAdaptive             = gao.Adaptive
	StrategyAdaptiveNoSimilarity = gao.AdaptiveNoSimilarity
	StrategyStatic               = gao.Static
)

// ParseStrategy parses "adaptive", "adaptive-nosim" or "static".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "adaptive":
		return StrategyAdaptive, nil
	case "adaptive-nosim":
		return StrategyAdaptiveNoSimilarity, nil
	case "static":
		return StrategyStatic, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", s)
	}
}

type queryOptions struct {
	limit     uint64
	timeout   time.Duration
	strategy  Strategy
	algorithm Algorithm
	distinct  []string
}

// QueryOption configures a single query.
type QueryOption func(*queryOptions)

// WithLimit stops the evaluation after n results. 0 means unlimited.
func WithLimit(n uint64) QueryOption {
	return func(o *queryOptions) {
		o.limit = n
	}
}

// WithTimeout bounds the evaluation time. It overrides WithDefaultTimeout.
func WithTimeout(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.timeout = d
	}
}

// WithStrategy selects the variable ordering heuristic.
func WithStrategy(s Strategy) QueryOption {
	return func(o *queryOptions) {
		o.strategy = s
	}
}

// WithAlgorithm selects the evaluation algorithm.
func WithAlgorithm(a Algorithm) QueryOption {
	return func(o *queryOptions) {
		o.algorithm = a
	}
}

// WithDistinct projects the results onto the named variables and removes
// duplicates.
func WithDistinct(names ...string) QueryOption {
	return func(o *queryOptions) {
		o.distinct = names
	}
}

func (db *DB) applyQueryOptions(optFns []QueryOption) queryOptions {
	o := queryOptions{timeout: db.opts.defaultTimeout}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
