package ltj

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/simring/internal/gao"
	"github.com/hupe1980/simring/internal/iterator"
	"github.com/hupe1980/simring/knn"
	"github.com/hupe1980/simring/query"
	"github.com/hupe1980/simring/ring"
)

// Join is a single-use leapfrog triejoin over exact and similarity
// patterns. It is not safe for concurrent use; the indexes it reads are.
type Join struct {
	numVars  int
	iters    []iterator.Iterator
	varIters [][]int
	order    *gao.GAO
	empty    bool
	opts     Options

	proj      []query.Var
	projPos   []int
	projBuf   []uint64
	projBound int
	seen      *FingerprintTable

	results []Tuple
	stats   Stats
	guard   *guard
}

// New prepares the evaluation of patterns over numVars variables. Every
// variable must occur in some pattern.
func New(patterns []query.TriplePattern, numVars int, r *ring.Ring, g *knn.Graph, opts Options) (*Join, error) {
	return newJoin(patterns, numVars, r, g, opts, true)
}

func newJoin(patterns []query.TriplePattern, numVars int, r *ring.Ring, g *knn.Graph, opts Options, requireAll bool) (*Join, error) {
	iters, empty := iterator.Build(r, g, patterns)

	varIters := make([][]int, numVars)

	for i, it := range iters {
		for _, v := range it.Vars() {
			if int(v) >= numVars {
				return nil, fmt.Errorf("ltj: variable %d out of range [0, %d)", v, numVars)
			}

			varIters[v] = append(varIters[v], i)
		}
	}

	if requireAll {
		for v, idx := range varIters {
			if len(idx) == 0 {
				return nil, fmt.Errorf("%w: %d", ErrNoIterator, v)
			}
		}
	}

	var nodes uint64
	if g != nil {
		nodes = g.Nodes()
	}

	j := &Join{
		numVars:  numVars,
		iters:    iters,
		varIters: varIters,
		order:    gao.New(iters, varIters, nodes, opts.Strategy),
		empty:    empty,
		opts:     opts,
	}

	if len(opts.Projection) > 0 {
		j.proj = opts.Projection
		j.projPos = make([]int, numVars)

		for i := range j.projPos {
			j.projPos[i] = -1
		}

		for i, v := range opts.Projection {
			if int(v) >= numVars {
				return nil, fmt.Errorf("ltj: projected variable %d out of range [0, %d)", v, numVars)
			}

			j.projPos[v] = i
		}

		j.projBuf = make([]uint64, len(j.proj))
		j.seen = NewFingerprintTable()
	}

	return j, nil
}

// IsEmpty reports whether some pattern is unsatisfiable.
func (j *Join) IsEmpty() bool { return j.empty }

// Run evaluates the join.
func (j *Join) Run(ctx context.Context) Result {
	return j.run(newGuard(ctx, j.opts))
}

func (j *Join) run(gd *guard) Result {
	j.guard = gd

	if j.empty {
		return Result{Status: Complete}
	}

	tuple := make(Tuple, j.numVars)
	j.search(0, tuple)

	return Result{Tuples: j.results, Status: gd.status, Stats: j.stats}
}

func (j *Join) search(depth int, tuple Tuple) bool {
	j.stats.Nodes++

	if !j.guard.ok(len(j.results)) {
		return false
	}

	if depth == j.order.Size() {
		j.emit(tuple)
		return true
	}

	v := j.order.Next()
	idx := j.varIters[v]

	if len(idx) == 1 && j.iters[idx[0]].InLastLevel() {
		it := j.iters[idx[0]]

		j.stats.LastLevelSeeks++
		for c := it.SeekLast(v); c != 0; c = it.SeekLastNext(v) {
			if !j.descend(depth, v, c, tuple, idx) {
				return false
			}

			j.stats.LastLevelSeeks++
		}
	} else {
		for c := j.seek(v, 0); c != 0; c = j.seek(v, c+1) {
			if !j.descend(depth, v, c, tuple, idx) {
				return false
			}
		}
	}

	j.order.Done()

	return true
}

func (j *Join) descend(depth int, v query.Var, c uint64, tuple Tuple, idx []int) bool {
	tuple[v] = c

	projected := j.projPos != nil && j.projPos[v] >= 0
	if projected {
		j.projBound++
	}

	if j.projBound == len(j.proj) && j.proj != nil && j.seen.Contains(j.project(tuple)) {
		j.stats.Skipped++
	} else {
		for _, i := range idx {
			j.iters[i].Down(v, c)
		}

		j.order.Down()

		if !j.search(depth+1, tuple) {
			return false
		}

		for k := len(idx) - 1; k >= 0; k-- {
			j.iters[idx[k]].Up(v)
		}

		j.order.Up()
	}

	if projected {
		j.projBound--
	}

	return true
}

// seek leapfrogs the iterators of v to their smallest common value >= c.
func (j *Join) seek(v query.Var, c uint64) uint64 {
	j.stats.Seeks++

	idx := j.varIters[v]

	var prev uint64

	ok, i := 0, 0

	for {
		ci := j.iters[idx[i]].Leap(v, c)
		if ci == 0 {
			return 0
		}

		if ci == prev {
			ok++
		} else {
			ok = 1
		}

		if ok == len(idx) {
			return ci
		}

		c, prev = ci, ci
		i = (i + 1) % len(idx)
	}
}

func (j *Join) project(tuple Tuple) []uint64 {
	for i, v := range j.proj {
		j.projBuf[i] = tuple[v]
	}

	return j.projBuf
}

func (j *Join) emit(tuple Tuple) {
	if j.proj == nil {
		j.results = append(j.results, slices.Clone(tuple))
		return
	}

	vals := j.project(tuple)
	if j.seen.Insert(vals) {
		j.results = append(j.results, slices.Clone(vals))
	}
}
