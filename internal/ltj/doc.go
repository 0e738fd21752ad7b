// Package ltj evaluates conjunctive queries with Leapfrog Triejoin.
//
// Join resolves one variable at a time in the order chosen by the adaptive
// GAO, intersecting every iterator that mentions the variable by
// leapfrogging. Exact and similarity patterns take part in the same
// recursion. Baseline is the two-phase alternative: it joins the ordinary
// patterns first and then filters or expands the candidate tuples with the
// k-NN graph one similarity pattern at a time.
//
// Both honour a result limit, a timeout and context cancellation. These are
// checked on entry to every recursion level; once tripped, evaluation stops
// and the tuples found so far are returned with a status telling why.
package ltj
