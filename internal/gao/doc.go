// Package gao maintains the adaptive global attribute order of a leapfrog
// join: which unbound variable to resolve next.
//
// Every variable carries a weight, the smallest binding-set estimate any of
// its iterators reports. Next picks the ready variable with the lowest
// weight, preferring fewer pending similarity edges on ties and the lowest
// variable id after that. Variables with a single iterator ("lonely") need
// no intersection and are deferred until nothing else is ready.
//
// Down re-estimates the variables linked to the one just bound and keeps
// strict improvements. All changes are journaled: Up restores the weights
// of the matching Down, and Done restores the set membership and similarity
// counters of the matching Next, so backtracking returns the state to
// exactly what it was.
package gao
