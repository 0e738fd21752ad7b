package simring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/simring/blobstore"
	"github.com/hupe1980/simring/persistence"
	"github.com/hupe1980/simring/query"
	"github.com/hupe1980/simring/ring"
	"github.com/hupe1980/simring/testutil"
)

func sorted(res *Result) [][]uint64 {
	out := make([][]uint64, len(res.Tuples))
	copy(out, res.Tuples)
	testutil.SortTuples(out)

	return out
}

func threeNodeDB(t *testing.T, optFns ...Option) *DB {
	t.Helper()

	db, err := New(nil, [][]uint64{{2, 3}, {1}, {}}, optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestQueryThreeNodeScenario(t *testing.T) {
	db := threeNodeDB(t)
	ctx := context.Background()

	for _, alg := range []Algorithm{AlgorithmLTJ, AlgorithmBaseline} {
		t.Run(alg.String(), func(t *testing.T) {
			res, err := db.QueryString(ctx, "?x k2 ?y", WithAlgorithm(alg))
			require.NoError(t, err)
			assert.Equal(t, [][]uint64{{1, 2}, {1, 3}, {2, 1}}, sorted(res))
			assert.Equal(t, StatusComplete, res.Status)
			assert.Equal(t, []string{"x", "y"}, res.Vars)

			res, err = db.QueryString(ctx, "?x k2 2", WithAlgorithm(alg))
			require.NoError(t, err)
			assert.Equal(t, [][]uint64{{1}}, sorted(res))
		})
	}
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(7)
	ctx := context.Background()

	triples := rng.Triples(80, 8, 3)
	adj := rng.KNNGraph(8, 3, 3)

	db, err := New(triples, adj, WithMaxConcurrentQueries(4))
	require.NoError(t, err)

	var qs []*query.Query
	for i := 0; i < 40; i++ {
		qs = append(qs, rng.Query(8, 3, 2+rng.Intn(3), 2+rng.Intn(3), 3))
	}

	for _, alg := range []Algorithm{AlgorithmLTJ, AlgorithmBaseline} {
		results, err := db.QueryBatch(ctx, qs, WithAlgorithm(alg))
		require.NoError(t, err)
		require.Len(t, results, len(qs))

		for i, q := range qs {
			want := testutil.BruteForceJoin(q, triples, adj)
			got := sorted(results[i])

			if len(want) == 0 {
				assert.Empty(t, got, "%s: %s", alg, q)
				continue
			}

			assert.Equal(t, want, got, "%s: %s", alg, q)
		}
	}
}

func TestQueryInvalid(t *testing.T) {
	db := threeNodeDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		is   error
	}{
		{"syntax", "?x ?y", query.ErrSyntax},
		{"zero k", "?x k0 ?y", query.ErrZeroK},
		{"self similarity", "?x k1 ?x", query.ErrSelfSimilarity},
		{"inconsistent best", "?x b2 ?y . ?y b3 ?z", ErrInconsistentBest},
		{"empty", "", query.ErrEmptyQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.QueryString(ctx, tt.text)
			require.ErrorIs(t, err, ErrInvalidQuery)
			require.ErrorIs(t, err, tt.is)
		})
	}

	_, err := db.QueryString(ctx, "?x k1 ?y . ?y k0 ?z")

	var pe *ErrInvalidPattern
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)

	_, err = db.Query(ctx, nil)
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestQueryDistinct(t *testing.T) {
	triples := []ring.Triple{{S: 1, P: 1, O: 2}, {S: 1, P: 1, O: 3}, {S: 2, P: 1, O: 3}}

	db, err := New(triples, [][]uint64{{2}, {1}, {1}})
	require.NoError(t, err)

	ctx := context.Background()

	for _, alg := range []Algorithm{AlgorithmLTJ, AlgorithmBaseline} {
		res, err := db.QueryString(ctx, "?s 1 ?o", WithDistinct("o"), WithAlgorithm(alg))
		require.NoError(t, err)
		assert.Equal(t, []string{"o"}, res.Vars)
		assert.Equal(t, [][]uint64{{2}, {3}}, sorted(res))
	}

	_, err = db.QueryString(ctx, "?s 1 ?o", WithDistinct("nope"))
	require.ErrorIs(t, err, ErrUnknownVariable)
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestQueryLimitAndTimeoutAreNotErrors(t *testing.T) {
	var triples []ring.Triple
	for s := uint64(1); s <= 30; s++ {
		for o := uint64(1); o <= 30; o++ {
			triples = append(triples, ring.Triple{S: s, P: 1, O: o})
		}
	}

	db, err := New(triples, nil)
	require.NoError(t, err)

	ctx := context.Background()

	res, err := db.QueryString(ctx, "?a 1 ?b . ?b 1 ?c", WithLimit(10))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Len())
	assert.Equal(t, StatusLimitReached, res.Status)

	res, err = db.QueryString(ctx, "?a 1 ?b . ?b 1 ?c . ?c 1 ?d", WithTimeout(time.Nanosecond))
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, res.Status)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = db.QueryString(canceled, "?a 1 ?b")
	require.ErrorIs(t, err, context.Canceled, "admission waits on the context")
}

func TestQueryDefaultTimeout(t *testing.T) {
	var triples []ring.Triple
	for s := uint64(1); s <= 30; s++ {
		for o := uint64(1); o <= 30; o++ {
			triples = append(triples, ring.Triple{S: s, P: 1, O: o})
		}
	}

	db, err := New(triples, nil, WithDefaultTimeout(time.Nanosecond))
	require.NoError(t, err)

	ctx := context.Background()

	res, err := db.QueryString(ctx, "?a 1 ?b . ?b 1 ?c . ?c 1 ?d")
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, res.Status)

	res, err = db.QueryString(ctx, "?a 1 ?b", WithTimeout(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, 900, res.Len())
}

func TestBindings(t *testing.T) {
	db := threeNodeDB(t)

	res, err := db.QueryString(context.Background(), "?x k1 ?y")
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())

	got := []map[string]uint64{res.Bindings(0), res.Bindings(1)}
	assert.ElementsMatch(t, []map[string]uint64{{"x": 1, "y": 2}, {"x": 2, "y": 1}}, got)
}

func TestCloseAndNil(t *testing.T) {
	db := threeNodeDB(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err := db.QueryString(context.Background(), "?x k1 ?y")
	require.ErrorIs(t, err, ErrIndexNotBuilt)

	var nilDB *DB
	_, err = nilDB.QueryString(context.Background(), "?x k1 ?y")
	require.ErrorIs(t, err, ErrIndexNotBuilt)
	assert.Equal(t, Stats{}, nilDB.Stats())
}

func TestMemoryLimit(t *testing.T) {
	_, err := New([]ring.Triple{{S: 1, P: 1, O: 2}}, [][]uint64{{2}, {1}}, WithMemoryLimit(1))
	require.ErrorIs(t, err, ErrMemoryLimitExceeded)

	db, err := New([]ring.Triple{{S: 1, P: 1, O: 2}}, [][]uint64{{2}, {1}}, WithMemoryLimit(1<<30))
	require.NoError(t, err)
	assert.Positive(t, db.Stats().MemoryBytes)
}

func TestBuildErrors(t *testing.T) {
	_, err := New([]ring.Triple{{S: 0, P: 1, O: 2}}, nil)
	require.ErrorIs(t, err, ring.ErrZeroID)

	_, err = New(nil, [][]uint64{{2, 3}}, WithMaxK(1))
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	db, err := New([]ring.Triple{{S: 1, P: 2, O: 3}, {S: 1, P: 2, O: 3}}, [][]uint64{{2, 3}, {1}, {}})
	require.NoError(t, err)

	st := db.Stats()
	assert.Equal(t, uint64(1), st.Triples)
	assert.Equal(t, uint64(3), st.Nodes)
	assert.Equal(t, uint64(3), st.Edges)
	assert.Equal(t, uint64(2), st.MaxK)
	assert.Equal(t, uint64(2), st.MaxPred)
	assert.Equal(t, uint64(3), st.MaxObject)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(3)

	triples := rng.Triples(200, 20, 4)
	adj := rng.KNNGraph(20, 4, 3)

	for _, c := range []persistence.Compression{persistence.CompressionNone, persistence.CompressionLZ4, persistence.CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			store := blobstore.NewLocalStore(t.TempDir())

			db, err := New(triples, adj, WithCompression(c))
			require.NoError(t, err)

			require.NoError(t, db.Save(ctx, store, "a.srng"))
			require.NoError(t, db.Commit(ctx, store, "b.srng"))

			loaded, err := LoadCurrent(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, "b.srng", loaded.Stats().Snapshot)

			byName, err := Load(ctx, store, "a.srng")
			require.NoError(t, err)

			want := db.Stats()
			for _, other := range []*DB{loaded, byName} {
				got := other.Stats()
				assert.Equal(t, want.Triples, got.Triples)
				assert.Equal(t, want.Edges, got.Edges)
				assert.Equal(t, want.MaxK, got.MaxK)
			}

			text := "?a 1 ?b . ?b k2 ?c"

			r1, err := db.QueryString(ctx, text)
			require.NoError(t, err)

			r2, err := loaded.QueryString(ctx, text)
			require.NoError(t, err)

			assert.Equal(t, sorted(r1), sorted(r2))
		})
	}
}

func TestSaveNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	db := threeNodeDB(t)

	require.NoError(t, db.Commit(ctx, store, "snap"))

	err := db.Commit(ctx, store, "snap")
	require.ErrorIs(t, err, blobstore.ErrExists)
}

func TestLoadCurrentWithoutCommit(t *testing.T) {
	metrics := &BasicMetricsCollector{}

	_, err := LoadCurrent(context.Background(), blobstore.NewMemoryStore(), WithMetricsCollector(metrics))
	require.ErrorIs(t, err, persistence.ErrNoCurrent)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(1), stats.LoadErrors)
}

func TestMetricsCollector(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	db := threeNodeDB(t, WithMetricsCollector(metrics), WithLogger(NoopLogger()))
	ctx := context.Background()

	_, err := db.QueryString(ctx, "?x k2 ?y")
	require.NoError(t, err)

	_, err = db.QueryString(ctx, "?x k2 ?y", WithLimit(1))
	require.NoError(t, err)

	_, err = db.Query(ctx, query.New([]string{"x"}, query.Similar(query.Variable(0), 0, query.Const(1))))
	require.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryErrors)
	assert.Equal(t, int64(4), stats.QueryResults)
	assert.Equal(t, int64(1), stats.QueryLimited)
	assert.Equal(t, int64(1), stats.BuildCount)
}

func TestQueryBatchStopsOnError(t *testing.T) {
	db := threeNodeDB(t)

	good, err := query.Parse("?x k1 ?y")
	require.NoError(t, err)

	bad := query.New([]string{"x", "y"}, query.Similar(query.Variable(0), 0, query.Variable(1)))

	_, err = db.QueryBatch(context.Background(), []*query.Query{good, bad, good})
	require.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestQueryRate(t *testing.T) {
	db := threeNodeDB(t, WithQueryRate(1000, 1), WithMaxConcurrentQueries(2))

	q, err := query.Parse("?x k2 ?y")
	require.NoError(t, err)

	results, err := db.QueryBatch(context.Background(), []*query.Query{q, q, q, q})
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(t, 3, r.Len())
	}
}

func TestParseAlgorithmAndStrategy(t *testing.T) {
	a, err := ParseAlgorithm("Baseline")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmBaseline, a)

	_, err = ParseAlgorithm("hash")
	require.Error(t, err)

	for _, s := range []Strategy{StrategyAdaptive, StrategyAdaptiveNoSimilarity, StrategyStatic} {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err = ParseStrategy("random")
	require.Error(t, err)
}
