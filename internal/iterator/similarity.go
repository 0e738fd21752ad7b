package iterator

import (
	"github.com/hupe1980/simring/internal/wavelet"
	"github.com/hupe1980/simring/knn"
	"github.com/hupe1980/simring/query"
)

// viewFunc returns the values of the open side given the bound side's value
// x. toObject is true when the object is the open side.
type viewFunc func(toObject bool, x uint64) wavelet.Set

// simBase holds the trie state shared by both similarity variants. Side a
// is the subject of the forward relation and side b its object.
type simBase struct {
	g      *knn.Graph
	a, b   query.Term
	va, vb uint64
	vars   []query.Var
	stack  []query.Var
	empty  bool
	cursor *wavelet.Cursor
	view   viewFunc
}

func newSimBase(g *knn.Graph, a, b query.Term, view viewFunc) simBase {
	s := simBase{g: g, a: a, b: b, view: view}

	if a.IsVar {
		s.vars = append(s.vars, a.Var())
	} else {
		s.va = a.Value
	}

	if b.IsVar {
		s.vars = append(s.vars, b.Var())
	} else {
		s.vb = b.Value
	}

	switch {
	case !a.IsVar && !b.IsVar:
		s.empty = view(true, s.va).Next(s.vb) != s.vb
	case !a.IsVar:
		s.empty = view(true, s.va).IsEmpty()
	case !b.IsVar:
		s.empty = view(false, s.vb).IsEmpty()
	default:
		s.empty = g.Edges() == 0
	}

	return s
}

// open returns the set of candidate values for v, or nil when the other
// side is still unbound.
func (s *simBase) open(v query.Var) wavelet.Set {
	switch {
	case s.b.Is(v) && s.va != 0:
		return s.view(true, s.va)
	case s.a.Is(v) && s.vb != 0:
		return s.view(false, s.vb)
	default:
		return nil
	}
}

// Leap returns the smallest candidate >= c for v, or 0.
func (s *simBase) Leap(v query.Var, c uint64) uint64 {
	c = max(c, 1)

	if set := s.open(v); set != nil {
		return set.Next(c)
	}

	if !s.a.Is(v) && !s.b.Is(v) {
		return 0
	}

	// Nothing bound yet: every node is a candidate.
	if c > s.g.Nodes() {
		return 0
	}

	return c
}

// Down binds v to c.
func (s *simBase) Down(v query.Var, c uint64) {
	switch {
	case s.a.Is(v):
		s.va = c
	case s.b.Is(v):
		s.vb = c
	default:
		return
	}

	s.stack = append(s.stack, v)
}

// Up releases the most recently bound variable.
func (s *simBase) Up(_ query.Var) {
	if len(s.stack) == 0 {
		return
	}

	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	if s.a.Is(v) {
		s.va = 0
	} else {
		s.vb = 0
	}
}

// InLastLevel reports whether a single variable is left open.
func (s *simBase) InLastLevel() bool { return len(s.vars)-len(s.stack) == 1 }

// IsEmpty reports whether no edge can match the bound sides.
func (s *simBase) IsEmpty() bool { return s.empty }

// Distinct returns the number of candidates of the last open variable, or
// the number of graph nodes when more than one variable is open.
func (s *simBase) Distinct() uint64 {
	if !s.InLastLevel() {
		return s.g.Nodes()
	}

	for _, v := range s.vars {
		if set := s.open(v); set != nil && !s.bound(v) {
			return set.Distinct()
		}
	}

	return s.g.Nodes()
}

func (s *simBase) bound(v query.Var) bool {
	for _, b := range s.stack {
		if b == v {
			return true
		}
	}

	return false
}

// SeekLast returns the first candidate of v, or 0.
func (s *simBase) SeekLast(v query.Var) uint64 {
	set := s.open(v)
	if set == nil {
		s.cursor = nil
		return s.Leap(v, 1)
	}

	s.cursor = wavelet.NewCursor(set)

	return s.cursor.Next()
}

// SeekLastNext returns the candidate after the last one seen, or 0.
func (s *simBase) SeekLastNext(v query.Var) uint64 {
	if s.cursor == nil {
		return 0
	}

	return s.cursor.Next()
}

// Vars returns the variables of both sides.
func (s *simBase) Vars() []query.Var { return s.vars }

// HasSubject reports whether v is side a.
func (s *simBase) HasSubject(v query.Var) bool { return s.a.Is(v) }

// HasPredicate is always false: the predicate is the rank bound.
func (s *simBase) HasPredicate(query.Var) bool { return false }

// HasObject reports whether v is side b.
func (s *simBase) HasObject(v query.Var) bool { return s.b.Is(v) }

// UniSimilarity iterates one direction of the similarity relation:
// o is among the top-k neighbours of s.
type UniSimilarity struct {
	simBase
	k uint64
}

// NewUniSimilarity returns the iterator for (s kN o).
func NewUniSimilarity(g *knn.Graph, s query.Term, k uint64, o query.Term) *UniSimilarity {
	u := &UniSimilarity{k: k}
	u.simBase = newSimBase(g, s, o, func(toObject bool, x uint64) wavelet.Set {
		return g.RangeHelper(x, k, toObject)
	})

	return u
}

func (u *UniSimilarity) Kind() Kind { return KindUniSimilarity }

// K returns the rank bound.
func (u *UniSimilarity) K() uint64 { return u.k }

// BiSimilarity joins (a kAB b) with (b kBA a): b is in the top-kAB of a and
// a is in the top-kBA of b.
type BiSimilarity struct {
	simBase
	kab, kba uint64
}

// NewBiSimilarity returns the iterator for the pair of opposite patterns.
func NewBiSimilarity(g *knn.Graph, a query.Term, kab, kba uint64, b query.Term) *BiSimilarity {
	bi := &BiSimilarity{kab: kab, kba: kba}
	bi.simBase = newSimBase(g, a, b, func(toObject bool, x uint64) wavelet.Set {
		if toObject {
			return g.IntersectionHelper(x, kab, kba)
		}

		return g.IntersectionHelper(x, kba, kab)
	})

	return bi
}

func (bi *BiSimilarity) Kind() Kind { return KindBiSimilarity }

// Ranks returns the forward and backward rank bounds.
func (bi *BiSimilarity) Ranks() (kab, kba uint64) { return bi.kab, bi.kba }
