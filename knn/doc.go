// Package knn implements a succinct bidirectional k-nearest-neighbour graph.
//
// For every node x the graph stores its ranked forward list (the nodes x
// considers most similar, best first) and the inverse relation (the nodes
// that list x, together with the rank at which they do). Both are packed
// into a single wavelet matrix:
//
//	positions [0, nodes*maxK)          forward lists, zero padded to maxK
//	positions [nodes*maxK, +entries)   inverse lists sorted by (rank, id)
//
// A roaring bitmap B delimits the inverse lists. Per node it holds, for each
// inverse entry of rank k, (k - previous rank) ones followed by a zero,
// then ones up to maxK, and a final one closes the vector. The offset of
// the first inverse entry of rank >= k is
//
//	p(x, k) = select1((x-1)*maxK + k) - ((x-1)*maxK + k) + 1
//
// (1-based select and positions), so the inverse top-k range of x is
// [p(x,1), p(x,k+1)-1].
//
// Requests with x outside [1, nodes] or k outside [1, maxK] yield empty
// views.
package knn
