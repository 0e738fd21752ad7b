// Package iterator implements the trie iterators consumed by the leapfrog
// join: one per ordinary triple pattern, and one per group of similarity
// patterns relating the same pair of terms.
package iterator

import (
	"github.com/hupe1980/simring/query"
)

// Kind tags the three iterator variants.
type Kind uint8

const (
	KindExact Kind = iota
	KindUniSimilarity
	KindBiSimilarity
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindUniSimilarity:
		return "uni-similarity"
	case KindBiSimilarity:
		return "bi-similarity"
	default:
		return "unknown"
	}
}

// Iterator is a trie view of one pattern (or similarity group).
//
// Leap must be monotone for a fixed trie state: for c1 <= c2 it returns
// Leap(v, c1) <= Leap(v, c2), and it never returns a value below c unless it
// returns 0. The leapfrog loop relies on this to terminate.
type Iterator interface {
	// Leap returns the smallest value >= c that v can take given the
	// variables bound so far, or 0 if none. A c of 0 means "from the start".
	Leap(v query.Var, c uint64) uint64
	// Down binds v to c.
	Down(v query.Var, c uint64)
	// Up unbinds the variable bound last. It is a no-op at the initial level.
	Up(v query.Var)
	// InLastLevel reports whether exactly one variable is left unbound.
	InLastLevel() bool
	// IsEmpty reports whether the pattern has no match at all.
	IsEmpty() bool
	// Kind returns the variant tag.
	Kind() Kind
	// SeekLast starts a single-pass enumeration of v in the last level.
	SeekLast(v query.Var) uint64
	// SeekLastNext continues the enumeration started by SeekLast.
	SeekLastNext(v query.Var) uint64
	// Vars returns the variables of the iterator.
	Vars() []query.Var
	// HasSubject reports whether v occurs as subject.
	HasSubject(v query.Var) bool
	// HasPredicate reports whether v occurs as predicate.
	HasPredicate(v query.Var) bool
	// HasObject reports whether v occurs as object.
	HasObject(v query.Var) bool
}
