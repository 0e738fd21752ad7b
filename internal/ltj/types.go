package ltj

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/simring/internal/gao"
	"github.com/hupe1980/simring/query"
)

// ErrNoIterator is returned when a variable occurs in no pattern.
var ErrNoIterator = errors.New("ltj: variable occurs in no pattern")

// Tuple holds one value per variable id.
type Tuple []uint64

// Status tells how an evaluation ended.
type Status uint8

const (
	Complete Status = iota
	LimitReached
	TimedOut
	Canceled
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case LimitReached:
		return "limit"
	case TimedOut:
		return "timeout"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Options configures an evaluation.
type Options struct {
	// Limit caps the number of results; 0 means unlimited.
	Limit uint64
	// Timeout bounds the wall-clock time; 0 means none.
	Timeout time.Duration
	// Strategy selects the variable ordering heuristic.
	Strategy gao.Strategy
	// Projection, when set, restricts results to these variables and removes
	// duplicates.
	Projection []query.Var
}

// Stats instruments an evaluation.
type Stats struct {
	// Nodes counts entries into the recursion.
	Nodes uint64
	// Seeks counts leapfrog intersections.
	Seeks uint64
	// LastLevelSeeks counts single-iterator enumeration steps.
	LastLevelSeeks uint64
	// Skipped counts branches pruned by the fingerprint table.
	Skipped uint64
	// FilterSteps counts similarity patterns applied by Baseline.
	FilterSteps uint64
}

// Result is the outcome of an evaluation.
type Result struct {
	Tuples []Tuple
	Status Status
	Stats  Stats
}

// Evaluator runs one query evaluation.
type Evaluator interface {
	Run(ctx context.Context) Result
}

// guard enforces the limit, the deadline and cancellation.
type guard struct {
	ctx      context.Context
	deadline time.Time
	limit    uint64
	status   Status
	stopped  bool
}

func newGuard(ctx context.Context, opts Options) *guard {
	g := &guard{ctx: ctx, limit: opts.Limit}
	if opts.Timeout > 0 {
		g.deadline = time.Now().Add(opts.Timeout)
	}

	return g
}

// ok reports whether evaluation may continue with n results collected.
func (g *guard) ok(n int) bool {
	if g.stopped {
		return false
	}

	switch {
	case g.limit > 0 && uint64(n) >= g.limit:
		g.stop(LimitReached)
	case !g.deadline.IsZero() && time.Now().After(g.deadline):
		g.stop(TimedOut)
	case g.ctx.Err() != nil:
		g.stop(Canceled)
	}

	return !g.stopped
}

func (g *guard) stop(s Status) {
	g.status = s
	g.stopped = true
}
