package simring

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hupe1980/simring/internal/ltj"
	"github.com/hupe1980/simring/internal/resource"
	"github.com/hupe1980/simring/knn"
	"github.com/hupe1980/simring/query"
	"github.com/hupe1980/simring/ring"
)

// tripleBytes is the in-memory cost of one triple in one permutation.
const tripleBytes = 24

// DB holds a triple index and a k-NN graph and answers conjunctive queries
// over both. It is read-only after construction and safe for concurrent
// queries.
type DB struct {
	ring     *ring.Ring
	graph    *knn.Graph
	opts     options
	rc       *resource.Controller
	memBytes int64
	snapshot string
	closed   atomic.Bool
}

// New indexes triples and the ranked neighbour lists in adjacency, where
// adjacency[i] lists the neighbours of node i+1, nearest first.
func New(triples []ring.Triple, adjacency [][]uint64, optFns ...Option) (*DB, error) {
	return build(context.Background(), triples, adjacency, applyOptions(optFns))
}

func build(ctx context.Context, triples []ring.Triple, adjacency [][]uint64, opts options) (*DB, error) {
	start := time.Now()

	db, err := newDB(triples, adjacency, opts)

	var t, n, k uint64
	if db != nil {
		t, n, k = db.ring.Len(), db.graph.Nodes(), db.graph.MaxK()
	}

	elapsed := time.Since(start)
	opts.logger.LogBuild(ctx, t, n, k, elapsed, err)

	if err != nil {
		return nil, err
	}

	opts.metricsCollector.RecordBuild(t, n, elapsed)

	return db, nil
}

func newDB(triples []ring.Triple, adjacency [][]uint64, opts options) (*DB, error) {
	r, err := ring.New(triples)
	if err != nil {
		return nil, fmt.Errorf("build triple index: %w", err)
	}

	g, err := knn.New(adjacency, opts.maxK)
	if err != nil {
		return nil, fmt.Errorf("build k-NN graph: %w", err)
	}

	maxConcurrent := opts.maxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = int64(runtime.GOMAXPROCS(0))
	}

	db := &DB{
		ring:  r,
		graph: g,
		opts:  opts,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:     opts.memoryLimit,
			MaxConcurrentQueries: maxConcurrent,
			QueriesPerSecond:     opts.queriesPerSecond,
			Burst:                opts.burst,
		}),
	}

	db.memBytes = int64(6*tripleBytes*r.Len() + g.SizeInBytes())
	if err := db.rc.AcquireMemory(db.memBytes); err != nil {
		return nil, fmt.Errorf("%w: indexes need %d bytes, limit is %d", err, db.memBytes, db.rc.MemoryLimit())
	}

	return db, nil
}

// Close releases the memory reservation. Queries after Close fail with
// ErrIndexNotBuilt.
func (db *DB) Close() error {
	if db == nil || !db.closed.CompareAndSwap(false, true) {
		return nil
	}

	db.rc.ReleaseMemory(db.memBytes)

	return nil
}

func (db *DB) ready() bool {
	return db != nil && db.ring != nil && !db.closed.Load()
}

// Logger returns the configured logger.
func (db *DB) Logger() *Logger { return db.opts.logger }

// Query evaluates q. Limits, timeouts and cancellation are not errors: they
// are reported through Result.Status together with the results found so far.
func (db *DB) Query(ctx context.Context, q *query.Query, optFns ...QueryOption) (*Result, error) {
	if !db.ready() {
		return nil, ErrIndexNotBuilt
	}

	start := time.Now()

	res, err := db.query(ctx, q, db.applyQueryOptions(optFns))

	elapsed := time.Since(start)

	var (
		patterns, vars, n int
		status            Status
	)

	if q != nil {
		patterns, vars = len(q.Patterns), q.NumVars()
	}

	if res != nil {
		res.Elapsed = elapsed
		n, status = res.Len(), res.Status
	}

	db.opts.logger.LogQuery(ctx, vars, patterns, n, status, elapsed, err)
	db.opts.metricsCollector.RecordQuery(patterns, n, status, elapsed, err)

	return res, err
}

// QueryString parses text with query.Parse and evaluates it.
func (db *DB) QueryString(ctx context.Context, text string, optFns ...QueryOption) (*Result, error) {
	q, err := query.Parse(text)
	if err != nil {
		return nil, translateQueryError(err)
	}

	return db.Query(ctx, q, optFns...)
}

func (db *DB) query(ctx context.Context, q *query.Query, qo queryOptions) (*Result, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}

	if err := q.Validate(); err != nil {
		return nil, translateQueryError(err)
	}

	proj, names, err := projection(q, qo.distinct)
	if err != nil {
		return nil, err
	}

	if err := db.rc.AcquireQuery(ctx); err != nil {
		return nil, err
	}
	defer db.rc.ReleaseQuery()

	lo := ltj.Options{
		Limit:      qo.limit,
		Timeout:    qo.timeout,
		Strategy:   qo.strategy,
		Projection: proj,
	}

	var eval ltj.Evaluator

	switch qo.algorithm {
	case AlgorithmLTJ:
		eval, err = ltj.New(q.Patterns, q.NumVars(), db.ring, db.graph, lo)
	case AlgorithmBaseline:
		eval, err = ltj.NewBaseline(q.Patterns, q.NumVars(), db.ring, db.graph, lo)
	default:
		err = fmt.Errorf("unknown algorithm %d", qo.algorithm)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	out := eval.Run(ctx)

	res := &Result{
		Vars:   names,
		Tuples: make([][]uint64, len(out.Tuples)),
		Status: out.Status,
		Stats:  out.Stats,
	}

	for i, t := range out.Tuples {
		res.Tuples[i] = t
	}

	return res, nil
}

// projection resolves WithDistinct names to variable ids.
func projection(q *query.Query, distinct []string) ([]query.Var, []string, error) {
	if len(distinct) == 0 {
		return nil, q.Names, nil
	}

	ids := make(map[string]query.Var, len(q.Names))
	for v, name := range q.Names {
		ids[name] = query.Var(v)
	}

	proj := make([]query.Var, len(distinct))

	for i, name := range distinct {
		v, ok := ids[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %w: ?%s", ErrInvalidQuery, ErrUnknownVariable, name)
		}

		proj[i] = v
	}

	return proj, distinct, nil
}

// Stats describes the indexes held by a DB.
type Stats struct {
	Triples    uint64
	Nodes      uint64
	Edges      uint64
	MaxK       uint64
	MaxSubject uint64
	MaxPred    uint64
	MaxObject  uint64
	// MemoryBytes is the estimated size of the indexes.
	MemoryBytes int64
	// Snapshot is the name the DB was loaded from, if any.
	Snapshot string
}

// Stats returns index statistics.
func (db *DB) Stats() Stats {
	if db == nil || db.ring == nil {
		return Stats{}
	}

	return Stats{
		Triples:     db.ring.Len(),
		Nodes:       db.graph.Nodes(),
		Edges:       db.graph.Edges(),
		MaxK:        db.graph.MaxK(),
		MaxSubject:  db.ring.MaxS(),
		MaxPred:     db.ring.MaxP(),
		MaxObject:   db.ring.MaxO(),
		MemoryBytes: db.memBytes,
		Snapshot:    db.snapshot,
	}
}
