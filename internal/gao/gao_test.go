package gao

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/simring/internal/iterator"
	"github.com/hupe1980/simring/knn"
	"github.com/hupe1980/simring/query"
	"github.com/hupe1980/simring/ring"
	"github.com/hupe1980/simring/testutil"
)

func build(t *testing.T, r *ring.Ring, g *knn.Graph, q *query.Query, s Strategy) (*GAO, []iterator.Iterator, [][]int) {
	t.Helper()

	iters, _ := iterator.Build(r, g, q.Patterns)
	varIters := make([][]int, q.NumVars())

	for i, it := range iters {
		for _, v := range it.Vars() {
			varIters[v] = append(varIters[v], i)
		}
	}

	return New(iters, varIters, g.Nodes(), s), iters, varIters
}

func TestLonelyVariableComesLast(t *testing.T) {
	r, err := ring.New([]ring.Triple{{S: 1, P: 1, O: 2}, {S: 2, P: 1, O: 3}, {S: 2, P: 2, O: 4}, {S: 3, P: 2, O: 4}})
	require.NoError(t, err)

	g, err := knn.New([][]uint64{{2}, {3}, {4}, {1}}, 1)
	require.NoError(t, err)

	// ?a 1 ?b . ?b 2 ?c . ?c k1 ?d : ?d is lonely.
	q := query.New([]string{"a", "b", "c", "d"},
		query.Exact(query.Variable(0), query.Const(1), query.Variable(1)),
		query.Exact(query.Variable(1), query.Const(2), query.Variable(2)),
		query.Similar(query.Variable(2), 1, query.Variable(3)),
	)

	o, _, _ := build(t, r, g, q, Adaptive)
	require.Equal(t, 4, o.Size())

	st := o.State()
	assert.Equal(t, []query.Var{0, 3}, st.Sets[Lonely])
	assert.Equal(t, []query.Var{1, 2}, st.Sets[Ready])
	assert.Empty(t, st.Sets[Mand])
	assert.Empty(t, st.Sets[Sim])

	// b: min(2 triples with p=1, 2 with p=2) = 2; c: min(2, nodes=4) = 2.
	assert.Equal(t, uint64(2), o.Weight(1))
	assert.Equal(t, uint64(2), o.Weight(2))

	// Equal weights and no pending similarity edges: the lower id wins.
	first := o.Next()
	assert.Equal(t, query.Var(1), first)
	o.Down()

	second := o.Next()
	assert.Equal(t, query.Var(2), second)
	o.Down()

	assert.True(t, o.IsLonely(0))
	assert.True(t, o.IsLonely(3))

	third := o.Next()
	assert.Equal(t, query.Var(0), third, "lonely variables are taken in ascending id order")
	o.Down()

	fourth := o.Next()
	assert.Equal(t, query.Var(3), fourth)
}

func TestSimilarityCounterBreaksTies(t *testing.T) {
	r, err := ring.New([]ring.Triple{{S: 1, P: 1, O: 1}, {S: 2, P: 1, O: 2}})
	require.NoError(t, err)

	g, err := knn.New([][]uint64{{2}, {1}}, 1)
	require.NoError(t, err)

	// ?a 1 ?a . ?b 1 ?b . ?a k1 ?b . ?c 1 ?c . ?c k1 ?a : every weight is 2.
	// a is the target of one similarity edge (from c), b of one (from a),
	// c of none.
	a, b, c := query.Variable(0), query.Variable(1), query.Variable(2)
	q := query.New([]string{"a", "b", "c"},
		query.Exact(a, query.Const(1), a),
		query.Exact(b, query.Const(1), b),
		query.Similar(a, 1, b),
		query.Exact(c, query.Const(1), c),
		query.Similar(c, 1, a),
	)

	o, _, _ := build(t, r, g, q, Adaptive)
	st := o.State()
	assert.Equal(t, []uint64{1, 1, 0}, st.SimCnt)
	assert.Equal(t, query.Var(2), o.Next())
	assert.Equal(t, []uint64{0, 1, 0}, o.State().SimCnt)
	o.Done()
	assert.Equal(t, st, o.State())

	o, _, _ = build(t, r, g, q, AdaptiveNoSimilarity)
	assert.Equal(t, query.Var(0), o.Next(), "without similarity awareness ties go to the lowest id")
}

// walk runs a bounded depth-first search that drives the iterators and the
// order the way the join does, checking that every Done restores the state
// observed before the matching Next.
func walk(t *testing.T, o *GAO, iters []iterator.Iterator, varIters [][]int, depth int, budget *int) {
	if depth == o.Size() || *budget <= 0 {
		return
	}

	before := o.State()

	v := o.Next()
	idx := varIters[v]

	branches := 0

	for c := seek(iters, idx, v, 0); c != 0 && branches < 3; c = seek(iters, idx, v, c+1) {
		*budget--
		branches++

		for _, i := range idx {
			iters[i].Down(v, c)
		}

		o.Down()
		walk(t, o, iters, varIters, depth+1, budget)

		for k := len(idx) - 1; k >= 0; k-- {
			iters[idx[k]].Up(v)
		}

		o.Up()
	}

	o.Done()
	require.Equal(t, before, o.State())
}

func seek(iters []iterator.Iterator, idx []int, v query.Var, c uint64) uint64 {
	var prev uint64

	ok, i := 0, 0

	for {
		ci := iters[idx[i]].Leap(v, c)
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

func TestReversibilityRandomized(t *testing.T) {
	rng := testutil.NewRNG(99)

	for round := 0; round < 40; round++ {
		r, err := ring.New(rng.Triples(80, 8, 3))
		require.NoError(t, err)

		g, err := knn.New(rng.KNNGraph(8, 3, 4), 3)
		require.NoError(t, err)

		q := rng.Query(8, 3, 2+rng.Intn(3), 3+rng.Intn(3), 3)

		for _, s := range []Strategy{Adaptive, AdaptiveNoSimilarity, Static} {
			o, iters, varIters := build(t, r, g, q, s)

			initial := o.State()
			budget := 200
			walk(t, o, iters, varIters, 0, &budget)
			require.Equal(t, initial, o.State(), "query %s strategy %s", q, s)
		}
	}
}

func TestStaticKeepsWeights(t *testing.T) {
	rng := testutil.NewRNG(5)

	r, err := ring.New(rng.Triples(60, 6, 2))
	require.NoError(t, err)

	g, err := knn.New(rng.KNNGraph(6, 2, 3), 2)
	require.NoError(t, err)

	q, err := query.Parse("?a 1 ?b . ?b 2 ?c . ?a k2 ?c")
	require.NoError(t, err)

	o, iters, varIters := build(t, r, g, q, Static)
	weights := o.State().Weights

	v := o.Next()
	c := seek(iters, varIters[v], v, 0)
	require.NotZero(t, c)

	for _, i := range varIters[v] {
		iters[i].Down(v, c)
	}

	o.Down()
	assert.Equal(t, weights, o.State().Weights)
}
