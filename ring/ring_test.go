package ring

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Ring {
	t.Helper()

	r, err := New([]Triple{
		{1, 10, 2},
		{1, 10, 3},
		{2, 10, 3},
		{2, 11, 1},
		{3, 11, 1},
		{1, 10, 2}, // duplicate
	})
	require.NoError(t, err)

	return r
}

func TestRingBasics(t *testing.T) {
	r := sample(t)

	assert.Equal(t, uint64(5), r.Len())
	assert.Equal(t, uint64(3), r.MaxS())
	assert.Equal(t, uint64(11), r.MaxP())
	assert.Equal(t, uint64(3), r.MaxO())

	assert.Equal(t, uint64(5), r.Count(Bound{}))
	assert.Equal(t, uint64(3), r.Count(Bound{0, 10, 0}))
	assert.Equal(t, uint64(2), r.Count(Bound{0, 0, 3}))
	assert.Equal(t, uint64(1), r.Count(Bound{2, 0, 1}))
	assert.Equal(t, uint64(0), r.Count(Bound{3, 10, 0}))
	assert.Equal(t, uint64(1), r.Count(Bound{1, 10, 3}))
}

func TestRingNext(t *testing.T) {
	r := sample(t)

	assert.Equal(t, []uint64{1, 2, 3}, r.Values(Bound{}, S))
	assert.Equal(t, []uint64{2, 3}, r.Values(Bound{1, 0, 0}, O))
	assert.Equal(t, []uint64{10, 11}, r.Values(Bound{2, 0, 0}, P))
	assert.Equal(t, []uint64{2, 3}, r.Values(Bound{0, 11, 1}, S))
	assert.Equal(t, []uint64{11}, r.Values(Bound{3, 0, 1}, P))

	assert.Equal(t, uint64(3), r.Next(Bound{0, 10, 0}, O, 3))
	assert.Equal(t, uint64(0), r.Next(Bound{0, 10, 0}, O, 4))
	assert.Equal(t, uint64(1), r.Next(Bound{0, 0, 0}, S, 0))
}

func TestRingRejectsZero(t *testing.T) {
	_, err := New([]Triple{{0, 1, 1}})
	require.ErrorIs(t, err, ErrZeroID)
}

func TestRingRandomAgainstScan(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	var triples []Triple
	for i := 0; i < 200; i++ {
		triples = append(triples, Triple{
			S: uint64(rng.Intn(8) + 1),
			P: uint64(rng.Intn(3) + 1),
			O: uint64(rng.Intn(8) + 1),
		})
	}

	r, err := New(triples)
	require.NoError(t, err)

	for q := 0; q < 300; q++ {
		var b Bound
		for i := range b {
			if rng.Intn(2) == 0 {
				b[i] = uint64(rng.Intn(8) + 1)
			}
		}

		matches := map[Triple]bool{}
		for _, tr := range triples {
			if (b[S] == 0 || tr.S == b[S]) && (b[P] == 0 || tr.P == b[P]) && (b[O] == 0 || tr.O == b[O]) {
				matches[tr] = true
			}
		}
		require.Equal(t, uint64(len(matches)), r.Count(b))
		require.Len(t, r.Match(b), len(matches))

		for _, open := range []Position{S, P, O} {
			if b[open] != 0 {
				continue
			}

			set := map[uint64]bool{}
			for tr := range matches {
				set[tr.Get(open)] = true
			}

			want := make([]uint64, 0, len(set))
			for v := range set {
				want = append(want, v)
			}
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

			got := r.Values(b, open)
			if len(want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, want, got, "bound %v open %s", b, open)
			}
		}
	}
}
