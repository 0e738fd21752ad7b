// Package simring is an embeddable query engine over an RDF triple index
// that joins exact triple patterns with approximate k-nearest-neighbour
// ("similarity") patterns.
//
// Node ids are positive integers shared by the triples and the k-NN graph.
// A similarity pattern `?x k3 ?y` holds when ?y is among the 3 nearest
// neighbours of ?x. Queries are evaluated with leapfrog triejoin under an
// adaptive variable order that prefers variables with pending similarity
// edges; a baseline that filters exact-join results is available for
// comparison.
//
// # Quick Start
//
//	triples := []ring.Triple{{S: 1, P: 1, O: 2}, {S: 2, P: 1, O: 3}}
//	knnLists := [][]uint64{{2, 3}, {1}, {2}} // neighbours of nodes 1, 2, 3
//
//	db, err := simring.New(triples, knnLists)
//	if err != nil {
//	    panic(err)
//	}
//	defer db.Close()
//
//	res, err := db.QueryString(ctx, "?a 1 ?b . ?b k1 ?c", simring.WithLimit(100))
//	for i := range res.Tuples {
//	    fmt.Println(res.Bindings(i))
//	}
//
// # Query Text
//
// Patterns are separated by '.', terms are `?name` variables or integer
// constants. The middle term is a predicate, `kN` for the top-N neighbours
// or `bN` for a best-N pattern.
//
// # Limits and Timeouts
//
// WithLimit and WithTimeout stop an evaluation early. This is not an error:
// the results found so far are returned and Result.Status tells why the
// evaluation stopped.
//
// # Snapshots
//
// Save and Commit write the triples and k-NN lists to a blobstore.Store;
// Load and LoadCurrent rebuild the indexes from them. Stores exist for the
// local filesystem, memory, S3 (optionally with a DynamoDB commit log) and
// MinIO.
package simring
