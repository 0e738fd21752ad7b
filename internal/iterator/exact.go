package iterator

import (
	"github.com/hupe1980/simring/query"
	"github.com/hupe1980/simring/ring"
)

// Exact iterates the triples matching one ordinary pattern.
type Exact struct {
	r     *ring.Ring
	terms [3]query.Term
	vars  []query.Var
	bound ring.Bound
	stack []query.Var
	empty bool
	last  uint64
}

// NewExact returns the iterator of an ordinary pattern over r.
func NewExact(r *ring.Ring, tp query.TriplePattern) *Exact {
	e := &Exact{
		r:     r,
		terms: tp.Terms(),
		vars:  tp.Vars(),
	}

	for i, t := range e.terms {
		if !t.IsVar {
			e.bound[i] = t.Value
		}
	}

	e.empty = r.Count(e.bound) == 0

	return e
}

func (e *Exact) positions(v query.Var) []ring.Position {
	var out []ring.Position

	for i, t := range e.terms {
		if t.Is(v) {
			out = append(out, ring.Position(i))
		}
	}

	return out
}

// Leap returns the smallest value >= c that v can take, or 0.
func (e *Exact) Leap(v query.Var, c uint64) uint64 {
	pos := e.positions(v)
	if len(pos) == 0 {
		return 0
	}

	c = max(c, 1)

	if len(pos) == 1 {
		return e.r.Next(e.bound, pos[0], c)
	}

	// v is repeated inside the pattern: every position must agree.
	for {
		x := e.r.Next(e.bound, pos[0], c)
		if x == 0 {
			return 0
		}

		b := e.bound
		for _, p := range pos {
			b[p] = x
		}

		if e.r.Count(b) > 0 {
			return x
		}

		c = x + 1
	}
}

// Down binds v to c.
func (e *Exact) Down(v query.Var, c uint64) {
	for _, p := range e.positions(v) {
		e.bound[p] = c
	}

	e.stack = append(e.stack, v)
}

// Up releases the most recently bound variable.
func (e *Exact) Up(_ query.Var) {
	if len(e.stack) == 0 {
		return
	}

	v := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]

	for _, p := range e.positions(v) {
		e.bound[p] = 0
	}
}

// InLastLevel reports whether a single variable is left open.
func (e *Exact) InLastLevel() bool { return len(e.vars)-len(e.stack) == 1 }

// IsEmpty reports whether no triple matches the pattern.
func (e *Exact) IsEmpty() bool { return e.empty }

// Kind returns KindExact.
func (e *Exact) Kind() Kind { return KindExact }

// IntervalLength returns the number of triples matching the bound
// components.
func (e *Exact) IntervalLength() uint64 { return e.r.Count(e.bound) }

// SeekLast returns the first value of v, or 0.
func (e *Exact) SeekLast(v query.Var) uint64 {
	e.last = e.Leap(v, 1)
	return e.last
}

// SeekLastNext returns the value of v after the last one seen, or 0.
func (e *Exact) SeekLastNext(v query.Var) uint64 {
	if e.last == 0 {
		return 0
	}

	e.last = e.Leap(v, e.last+1)

	return e.last
}

// Vars returns the distinct variables of the pattern.
func (e *Exact) Vars() []query.Var { return e.vars }

// HasSubject reports whether v is the subject.
func (e *Exact) HasSubject(v query.Var) bool { return e.terms[0].Is(v) }

// HasPredicate reports whether v is the predicate.
func (e *Exact) HasPredicate(v query.Var) bool { return e.terms[1].Is(v) }

// HasObject reports whether v is the object.
func (e *Exact) HasObject(v query.Var) bool { return e.terms[2].Is(v) }
