package ring

import (
	"errors"
	"slices"
	"sort"
)

// ErrZeroID is returned when a triple uses the reserved identifier 0.
var ErrZeroID = errors.New("ring: identifiers must be >= 1")

// Position selects a triple component.
type Position uint8

const (
	S Position = iota
	P
	O
)

func (p Position) String() string {
	switch p {
	case S:
		return "S"
	case P:
		return "P"
	case O:
		return "O"
	default:
		return "?"
	}
}

// Triple is one (subject, predicate, object) fact.
type Triple struct {
	S, P, O uint64
}

// Get returns the component at pos.
func (t Triple) Get(pos Position) uint64 {
	switch pos {
	case S:
		return t.S
	case P:
		return t.P
	default:
		return t.O
	}
}

// Bound is a partial triple; zero components are unbound.
type Bound [3]uint64

func (b Bound) mask() uint8 {
	var m uint8
	for i, v := range b {
		if v != 0 {
			m |= 1 << i
		}
	}

	return m
}

type order [3]Position

var orders = [6]order{
	{S, P, O}, {S, O, P},
	{P, S, O}, {P, O, S},
	{O, S, P}, {O, P, S},
}

type permutation struct {
	ord     order
	triples []Triple
}

// Ring is an immutable triple index. It is safe for concurrent readers.
type Ring struct {
	perms [6]permutation
	maxS  uint64
	maxP  uint64
	maxO  uint64
}

// New indexes triples. Duplicates are removed.
func New(triples []Triple) (*Ring, error) {
	r := &Ring{}

	base := slices.Clone(triples)
	for _, t := range base {
		if t.S == 0 || t.P == 0 || t.O == 0 {
			return nil, ErrZeroID
		}

		r.maxS = max(r.maxS, t.S)
		r.maxP = max(r.maxP, t.P)
		r.maxO = max(r.maxO, t.O)
	}

	for i, ord := range orders {
		ts := slices.Clone(base)
		slices.SortFunc(ts, func(a, b Triple) int { return compare(ord, a, b) })
		ts = slices.CompactFunc(ts, func(a, b Triple) bool { return a == b })
		r.perms[i] = permutation{ord: ord, triples: ts}
	}

	return r, nil
}

func compare(ord order, a, b Triple) int {
	for _, pos := range ord {
		av, bv := a.Get(pos), b.Get(pos)
		if av < bv {
			return -1
		}

		if av > bv {
			return 1
		}
	}

	return 0
}

// Len returns the number of distinct triples.
func (r *Ring) Len() uint64 { return uint64(len(r.perms[0].triples)) }

// MaxS returns the largest subject id.
func (r *Ring) MaxS() uint64 { return r.maxS }

// MaxP returns the largest predicate id.
func (r *Ring) MaxP() uint64 { return r.maxP }

// MaxO returns the largest object id.
func (r *Ring) MaxO() uint64 { return r.maxO }

// Triples returns the distinct triples in (S, P, O) order.
func (r *Ring) Triples() []Triple { return r.perms[0].triples }

// pick returns the permutation whose leading components are exactly the
// bound positions of m, followed by open when open is set.
func (r *Ring) pick(m uint8, open Position, withOpen bool) *permutation {
	n := 0
	for i := 0; i < 3; i++ {
		if m&(1<<i) != 0 {
			n++
		}
	}

	for i := range r.perms {
		ord := r.perms[i].ord

		ok := true
		for j := 0; j < n; j++ {
			if m&(1<<ord[j]) == 0 {
				ok = false
				break
			}
		}

		if ok && (!withOpen || n == 3 || ord[n] == open) {
			return &r.perms[i]
		}
	}

	// All subsets and continuations are covered by the six orders.
	panic("ring: no permutation for bound set")
}

func (p *permutation) interval(b Bound) (int, int) {
	ts := p.triples
	lo := sort.Search(len(ts), func(i int) bool { return prefixCmp(p.ord, ts[i], b) >= 0 })
	hi := sort.Search(len(ts), func(i int) bool { return prefixCmp(p.ord, ts[i], b) > 0 })

	return lo, hi
}

// prefixCmp compares t with b on the bound leading components of ord.
func prefixCmp(ord order, t Triple, b Bound) int {
	for _, pos := range ord {
		bv := b[pos]
		if bv == 0 {
			return 0
		}

		tv := t.Get(pos)
		if tv < bv {
			return -1
		}

		if tv > bv {
			return 1
		}
	}

	return 0
}

// Count returns the number of triples matching the bound components of b.
func (r *Ring) Count(b Bound) uint64 {
	p := r.pick(b.mask(), 0, false)
	lo, hi := p.interval(b)

	return uint64(hi - lo)
}

// Next returns the smallest value >= c that position open takes among the
// triples matching b, or 0 when there is none. open must be unbound in b.
func (r *Ring) Next(b Bound, open Position, c uint64) uint64 {
	c = max(c, 1)

	p := r.pick(b.mask(), open, true)
	lo, hi := p.interval(b)

	ts := p.triples[lo:hi]
	i := sort.Search(len(ts), func(i int) bool { return ts[i].Get(open) >= c })

	if i == len(ts) {
		return 0
	}

	return ts[i].Get(open)
}

// Values returns the distinct values of position open among the triples
// matching b, in ascending order.
func (r *Ring) Values(b Bound, open Position) []uint64 {
	var out []uint64
	for v := r.Next(b, open, 1); v != 0; v = r.Next(b, open, v+1) {
		out = append(out, v)
	}

	return out
}

// Match returns the triples matching b in (S, P, O) order.
func (r *Ring) Match(b Bound) []Triple {
	var out []Triple

	p := r.pick(b.mask(), 0, false)
	lo, hi := p.interval(b)

	out = append(out, p.triples[lo:hi]...)
	slices.SortFunc(out, func(a, b Triple) int { return compare(orders[0], a, b) })

	return out
}
