// Package testutil provides testing utilities for simring.
//
// This package is intended for use in tests and benchmarks only.
//
// # Synthetic data
//
//	rng := testutil.NewRNG(seed)
//	triples := rng.Triples(200, 10, 3)   // random store over ids 1..10
//	adj := rng.KNNGraph(10, 4, 8)        // exact 4-NN lists of random vectors
//	q := rng.Query(10, 3, 4)             // random connected query
//
// # Reference join
//
//	want := testutil.BruteForceJoin(q, triples, adj)
//
// BruteForceJoin is a nested-loop evaluation used as ground truth for the
// leapfrog engine.
package testutil
