package iterator

import (
	"github.com/hupe1980/simring/knn"
	"github.com/hupe1980/simring/query"
	"github.com/hupe1980/simring/ring"
)

type pairKey struct {
	a, b query.Term
}

type simGroup struct {
	a, b     query.Term
	kab, kba uint64
}

func less(x, y query.Term) bool {
	if x.IsVar != y.IsVar {
		return x.IsVar
	}

	return x.Value < y.Value
}

// Build creates the iterators of patterns. Ordinary patterns come first in
// query order, followed by one iterator per similarity group in order of
// first appearance. Similarity patterns over the same unordered pair of
// terms are grouped: each direction keeps its smallest k, and a group with
// both directions becomes a BiSimilarity iterator.
//
// empty is true when any iterator is unsatisfiable.
func Build(r *ring.Ring, g *knn.Graph, patterns []query.TriplePattern) (iters []Iterator, empty bool) {
	var (
		groups []*simGroup
		index  = make(map[pairKey]*simGroup)
	)

	for _, tp := range patterns {
		if !tp.IsSimilarity() {
			it := NewExact(r, tp)
			iters = append(iters, it)
			empty = empty || it.IsEmpty()

			continue
		}

		s, o := tp.S(), tp.O()

		key := pairKey{a: s, b: o}
		if less(o, s) {
			key = pairKey{a: o, b: s}
		}

		grp, ok := index[key]
		if !ok {
			grp = &simGroup{a: s, b: o}
			index[key] = grp
			groups = append(groups, grp)
		}

		if grp.a == s {
			grp.kab = minK(grp.kab, tp.K())
		} else {
			grp.kba = minK(grp.kba, tp.K())
		}
	}

	for _, grp := range groups {
		var it Iterator

		switch {
		case grp.kab != 0 && grp.kba != 0:
			it = NewBiSimilarity(g, grp.a, grp.kab, grp.kba, grp.b)
		case grp.kab != 0:
			it = NewUniSimilarity(g, grp.a, grp.kab, grp.b)
		default:
			it = NewUniSimilarity(g, grp.b, grp.kba, grp.a)
		}

		iters = append(iters, it)
		empty = empty || it.IsEmpty()
	}

	return iters, empty
}

func minK(cur, k uint64) uint64 {
	if cur == 0 {
		return k
	}

	return min(cur, k)
}
