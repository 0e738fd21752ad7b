package ltj

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/simring/knn"
	"github.com/hupe1980/simring/query"
	"github.com/hupe1980/simring/ring"
)

// guardEvery is how many tuples a filter step processes between guard
// checks.
const guardEvery = 4096

// Baseline joins the ordinary patterns with leapfrog and then applies the
// similarity patterns to the candidate tuples one at a time.
//
// A similarity pattern is of type 1 when its subject is a constant or
// already bound, and of type 2 otherwise. Type 1 patterns are applied
// first; among candidates the one whose variables recur most often across
// the similarity patterns wins, ties going to the smallest pattern index.
type Baseline struct {
	exact   *Join
	g       *knn.Graph
	sims    []query.TriplePattern
	weights []int
	numVars int
	opts    Options

	bound []bool
	type1 []bool
	type2 []bool
}

// NewBaseline prepares the two-phase evaluation of patterns.
func NewBaseline(patterns []query.TriplePattern, numVars int, r *ring.Ring, g *knn.Graph, opts Options) (*Baseline, error) {
	var exact []query.TriplePattern

	b := &Baseline{
		g:       g,
		numVars: numVars,
		opts:    opts,
		bound:   make([]bool, numVars),
	}

	for _, tp := range patterns {
		if tp.IsSimilarity() {
			b.sims = append(b.sims, tp)
		} else {
			exact = append(exact, tp)
		}
	}

	// The exact phase runs unlimited and unprojected: both apply to the
	// filtered tuples.
	j, err := newJoin(exact, numVars, r, g, Options{Strategy: opts.Strategy}, false)
	if err != nil {
		return nil, err
	}

	b.exact = j

	for _, tp := range exact {
		for _, v := range tp.Vars() {
			b.bound[v] = true
		}
	}

	for _, tp := range b.sims {
		for _, v := range tp.Vars() {
			if int(v) >= numVars {
				return nil, fmt.Errorf("ltj: variable %d out of range [0, %d)", v, numVars)
			}
		}
	}

	for v := 0; v < numVars; v++ {
		if len(j.varIters[v]) > 0 {
			continue
		}

		used := false
		for _, tp := range b.sims {
			used = used || tp.Contains(query.Var(v))
		}

		if !used {
			return nil, fmt.Errorf("%w: %d", ErrNoIterator, v)
		}
	}

	counts := make([]int, numVars)
	for _, tp := range b.sims {
		if tp.S().IsVar {
			counts[tp.S().Var()]++
		}

		if tp.O().IsVar {
			counts[tp.O().Var()]++
		}
	}

	b.weights = make([]int, len(b.sims))
	b.type1 = make([]bool, len(b.sims))
	b.type2 = make([]bool, len(b.sims))

	for i, tp := range b.sims {
		for _, v := range tp.Vars() {
			b.weights[i] = max(b.weights[i], counts[v])
		}

		s := tp.S()
		if !s.IsVar || b.bound[s.Var()] {
			b.type1[i] = true
		} else {
			b.type2[i] = true
		}
	}

	return b, nil
}

// IsEmpty reports whether some ordinary pattern is unsatisfiable.
func (b *Baseline) IsEmpty() bool { return b.exact.IsEmpty() }

// Run evaluates the query. When the exact phase is stopped, the candidates it
// found are still filtered and returned under the stop status. A stop during
// the filter returns no tuples, since the intermediates are not answers.
func (b *Baseline) Run(ctx context.Context) Result {
	gd := newGuard(ctx, Options{Timeout: b.opts.Timeout})

	res := b.exact.run(gd)

	stopped, status := gd.stopped, gd.status
	if stopped {
		// The partial candidate set is bounded; filter it to completion.
		gd = newGuard(context.Background(), Options{})
	}

	stats := res.Stats
	pre := res.Tuples

	for len(pre) > 0 {
		id, type1, ok := b.next()
		if !ok {
			break
		}

		stats.FilterSteps++

		pre = b.solve(id, type1, pre, gd)
		if gd.stopped {
			return Result{Status: gd.status, Stats: stats}
		}

		b.update(id)
	}

	out := b.finish(pre, stats)
	if stopped {
		out.Status = status
	}

	return out
}

func (b *Baseline) next() (id int, type1 bool, ok bool) {
	pick := func(set []bool) (int, bool) {
		best, found := 0, false

		for i, in := range set {
			if in && (!found || b.weights[i] > b.weights[best]) {
				best, found = i, true
			}
		}

		return best, found
	}

	if id, ok := pick(b.type1); ok {
		b.type1[id] = false
		return id, true, true
	}

	if id, ok := pick(b.type2); ok {
		b.type2[id] = false
		return id, false, true
	}

	return 0, false, false
}

func (b *Baseline) update(id int) {
	for _, v := range b.sims[id].Vars() {
		b.bound[v] = true
	}

	for i, in := range b.type2 {
		if in && b.bound[b.sims[i].S().Var()] {
			b.type2[i] = false
			b.type1[i] = true
		}
	}
}

func value(t query.Term, tuple Tuple) uint64 {
	if t.IsVar {
		return tuple[t.Var()]
	}

	return t.Value
}

func (b *Baseline) solve(id int, type1 bool, pre []Tuple, gd *guard) []Tuple {
	tp := b.sims[id]
	s, o, k := tp.S(), tp.O(), tp.K()

	var out []Tuple

	extend := func(tuple Tuple, v query.Var, val uint64) {
		t := slices.Clone(tuple)
		t[v] = val
		out = append(out, t)
	}

	for n, tuple := range pre {
		if n%guardEvery == guardEvery-1 && !gd.ok(0) {
			return nil
		}

		switch {
		case type1 && o.IsVar && !b.bound[o.Var()]:
			for _, val := range b.g.ExpandFixed(k, value(s, tuple)) {
				extend(tuple, o.Var(), val)
			}
		case type1:
			if b.g.Exists(value(s, tuple), k, value(o, tuple)) {
				out = append(out, tuple)
			}
		case !o.IsVar || b.bound[o.Var()]:
			for _, val := range b.g.InvExpandFixed(k, value(o, tuple)) {
				extend(tuple, s.Var(), val)
			}
		default:
			for _, p := range b.g.InvExpand(k) {
				t := slices.Clone(tuple)
				t[s.Var()] = p.S
				t[o.Var()] = p.O
				out = append(out, t)
			}
		}
	}

	return out
}

func (b *Baseline) finish(tuples []Tuple, stats Stats) Result {
	res := Result{Status: Complete, Stats: stats}

	var seen *FingerprintTable
	if len(b.opts.Projection) > 0 {
		seen = NewFingerprintTable()
	}

	for _, t := range tuples {
		if seen != nil {
			p := make(Tuple, len(b.opts.Projection))
			for i, v := range b.opts.Projection {
				p[i] = t[v]
			}

			if !seen.Insert(p) {
				continue
			}

			t = p
		}

		if b.opts.Limit > 0 && uint64(len(res.Tuples)) == b.opts.Limit {
			res.Status = LimitReached
			break
		}

		res.Tuples = append(res.Tuples, t)
	}

	return res
}
