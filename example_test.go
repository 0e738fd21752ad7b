package simring_test

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/simring"
	"github.com/hupe1980/simring/blobstore"
	"github.com/hupe1980/simring/ring"
)

func Example() {
	triples := []ring.Triple{
		{S: 1, P: 1, O: 2},
		{S: 2, P: 1, O: 3},
		{S: 3, P: 1, O: 1},
	}
	knnLists := [][]uint64{{2, 3}, {1}, {}}

	db, err := simring.New(triples, knnLists)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	res, err := db.QueryString(context.Background(), "?x k2 ?y")
	if err != nil {
		panic(err)
	}

	sort.Slice(res.Tuples, func(i, j int) bool {
		a, b := res.Tuples[i], res.Tuples[j]
		return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1])
	})

	for _, t := range res.Tuples {
		fmt.Println(t)
	}

	fmt.Println(res.Status)
	// Output:
	// [1 2]
	// [1 3]
	// [2 1]
	// complete
}

func ExampleDB_QueryString_distinct() {
	triples := []ring.Triple{
		{S: 1, P: 1, O: 2},
		{S: 1, P: 1, O: 3},
		{S: 2, P: 1, O: 3},
	}

	db, err := simring.New(triples, [][]uint64{{2}, {1}, {1}})
	if err != nil {
		panic(err)
	}

	res, err := db.QueryString(context.Background(), "?s 1 ?o", simring.WithDistinct("s"))
	if err != nil {
		panic(err)
	}

	fmt.Println(res.Len())
	// Output: 2
}

func ExampleDB_Commit() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	db, err := simring.New([]ring.Triple{{S: 1, P: 1, O: 2}}, [][]uint64{{2}, {1}})
	if err != nil {
		panic(err)
	}

	if err := db.Commit(ctx, store, "idx-00001.srng"); err != nil {
		panic(err)
	}

	loaded, err := simring.LoadCurrent(ctx, store)
	if err != nil {
		panic(err)
	}

	fmt.Println(loaded.Stats().Snapshot, loaded.Stats().Triples)
	// Output: idx-00001.srng 1
}
