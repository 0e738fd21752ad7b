// Package ring provides the base triple index answering range restrictions
// by subject, predicate and object.
//
// The index keeps the triple set sorted in all six component orders. Any
// combination of bound positions is then a contiguous interval of one
// order, and the values an open position can take inside that interval are
// sorted, which gives next-value-at-least-c lookups by binary search.
//
// A Bound value of 0 means "unbound": identifiers start at 1.
package ring
