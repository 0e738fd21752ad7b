package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/simring/query"
	"github.com/hupe1980/simring/ring"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// ID returns a random identifier in [1, n].
func (r *RNG) ID(n int) uint64 {
	return uint64(r.Intn(n)) + 1
}

// Triples returns n random triples with subjects and objects in [1, nodes]
// and predicates in [1, preds].
func (r *RNG) Triples(n, nodes, preds int) []ring.Triple {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ring.Triple, n)
	for i := range out {
		out[i] = ring.Triple{
			S: uint64(r.rand.Intn(nodes)) + 1,
			P: uint64(r.rand.Intn(preds)) + 1,
			O: uint64(r.rand.Intn(nodes)) + 1,
		}
	}

	return out
}

// KNNGraph places nodes random points in dim dimensions and returns, for
// each, its exact maxK nearest neighbours by squared Euclidean distance,
// nearest first.
func (r *RNG) KNNGraph(nodes, maxK, dim int) [][]uint64 {
	r.mu.Lock()

	vecs := make([][]float32, nodes)
	for i := range vecs {
		vecs[i] = make([]float32, dim)
		for j := range vecs[i] {
			vecs[i][j] = r.rand.Float32()
		}
	}

	r.mu.Unlock()

	adj := make([][]uint64, nodes)

	for i := range vecs {
		results := BruteForceSearch(vecs, vecs[i], maxK+1)

		for _, res := range results {
			if res.ID == uint64(i) || len(adj[i]) == maxK {
				continue
			}

			adj[i] = append(adj[i], res.ID+1)
		}
	}

	return adj
}

// SearchResult is one neighbour found by BruteForceSearch.
type SearchResult struct {
	ID       uint64
	Distance float32
}

// BruteForceSearch returns the k vectors closest to q, nearest first, ties
// broken by index.
func BruteForceSearch(vectors [][]float32, q []float32, k int) []SearchResult {
	results := make([]SearchResult, 0, len(vectors))

	for i, v := range vectors {
		var d float32
		for j := range v {
			diff := v[j] - q[j]
			d += diff * diff
		}

		results = append(results, SearchResult{ID: uint64(i), Distance: d})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })

	if len(results) > k {
		results = results[:k]
	}

	return results
}

// Query returns a random query over numVars variables with up to
// patterns patterns. Constants fall in [1, nodes] and predicates in
// [1, preds]. Roughly a third of the patterns are similarity patterns with
// k in [1, maxK]. Every variable occurs in some pattern.
func (r *RNG) Query(nodes, preds, numVars, patterns, maxK int) *query.Query {
	names := make([]string, numVars)
	for i := range names {
		names[i] = fmt.Sprintf("v%d", i)
	}

	term := func(v int) query.Term {
		if v < numVars {
			return query.Variable(query.Var(v))
		}

		return query.Const(r.ID(nodes))
	}

	var tps []query.TriplePattern

	for len(tps) < patterns || !covers(tps, numVars) {
		s := r.Intn(numVars + 1)
		o := r.Intn(numVars + 1)

		if r.Intn(3) == 0 && maxK > 0 {
			if s == o {
				continue
			}

			tps = append(tps, query.Similar(term(s), uint64(r.Intn(maxK))+1, term(o)))

			continue
		}

		p := query.Const(r.ID(preds))
		if r.Intn(6) == 0 {
			p = query.Variable(query.Var(r.Intn(numVars)))
		}

		tps = append(tps, query.Exact(term(s), p, term(o)))
	}

	return query.New(names, tps...)
}

func covers(tps []query.TriplePattern, numVars int) bool {
	seen := make([]bool, numVars)
	for _, tp := range tps {
		for _, v := range tp.Vars() {
			seen[v] = true
		}
	}

	for _, ok := range seen {
		if !ok {
			return false
		}
	}

	return true
}

// BruteForceJoin evaluates q by nested loops over the triples and the
// ranked neighbour lists. The result holds distinct tuples sorted
// lexicographically.
func BruteForceJoin(q *query.Query, triples []ring.Triple, adj [][]uint64) [][]uint64 {
	seen := make(map[string]bool)

	var out [][]uint64

	assign := make([]uint64, q.NumVars())

	var rec func(i int)

	rec = func(i int) {
		if i == len(q.Patterns) {
			key := Key(assign)
			if !seen[key] {
				seen[key] = true
				out = append(out, append([]uint64(nil), assign...))
			}

			return
		}

		tp := q.Patterns[i]

		try := func(vals [3]uint64) {
			var undo []query.Var

			for j, t := range tp.Terms() {
				if j == 1 && tp.IsSimilarity() {
					continue
				}

				if !t.IsVar {
					if t.Value != vals[j] {
						restore(assign, undo)
						return
					}

					continue
				}

				cur := assign[t.Var()]
				if cur == 0 {
					assign[t.Var()] = vals[j]
					undo = append(undo, t.Var())
				} else if cur != vals[j] {
					restore(assign, undo)
					return
				}
			}

			rec(i + 1)
			restore(assign, undo)
		}

		if !tp.IsSimilarity() {
			for _, tr := range triples {
				try([3]uint64{tr.S, tr.P, tr.O})
			}

			return
		}

		for s, list := range adj {
			for rank, o := range list {
				if uint64(rank) < tp.K() {
					try([3]uint64{uint64(s) + 1, 0, o})
				}
			}
		}
	}

	rec(0)

	SortTuples(out)

	return out
}

func restore(assign []uint64, vars []query.Var) {
	for _, v := range vars {
		assign[v] = 0
	}
}

// Key renders a tuple as a map key.
func Key(t []uint64) string {
	var b strings.Builder
	for i, v := range t {
		if i > 0 {
			b.WriteByte(',')
		}

		fmt.Fprintf(&b, "%d", v)
	}

	return b.String()
}

// SortTuples orders tuples lexicographically in place.
func SortTuples(ts [][]uint64) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}

		return len(a) < len(b)
	})
}
