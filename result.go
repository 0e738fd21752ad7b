package simring

import (
	"time"

	"github.com/hupe1980/simring/internal/ltj"
)

// Status tells how an evaluation ended.
type Status = ltj.Status

const (
	StatusComplete     = ltj.Complete
	StatusLimitReached = ltj.LimitReached
	StatusTimedOut     = ltj.TimedOut
	StatusCanceled     = ltj.Canceled
)

// EvalStats instruments an evaluation.
type EvalStats = ltj.Stats

// Result is the outcome of a query.
type Result struct {
	// Vars names the columns of Tuples.
	Vars []string
	// Tuples holds one value per column, in the order found.
	Tuples  [][]uint64
	Status  Status
	Elapsed time.Duration
	Stats   EvalStats
}

// Len returns the number of results.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}

	return len(r.Tuples)
}

// Bindings returns result i keyed by variable name.
func (r *Result) Bindings(i int) map[string]uint64 {
	m := make(map[string]uint64, len(r.Vars))
	for j, name := range r.Vars {
		m[name] = r.Tuples[i][j]
	}

	return m
}
