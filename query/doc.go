// Package query defines the conjunctive queries simring evaluates.
//
// A query is an ordered list of triple patterns over variables and integer
// constants. Besides ordinary (exact) patterns, a pattern can state a
// similarity relation: "(?x k5 ?y)" holds when y is among the 5 nearest
// neighbours of x. Best patterns, written "bN", are similarity patterns on
// the single nearest neighbour that carry an additional best-k annotation.
//
// Patterns are built only through Exact, Similar and Best, so a pattern is
// either ordinary or similarity and never both.
//
// The text syntax separates patterns with '.' and terms with spaces:
//
//	?x 7 ?y . ?y k3 ?z . ?z 9 42
package query
