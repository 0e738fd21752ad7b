// Package wavelet implements a wavelet matrix over uint64 symbols.
//
// The matrix answers the ordered-set questions the k-NN index needs over a
// position range [lo, hi) of the stored sequence:
//
//   - NextGE: the smallest symbol >= c occurring in the range
//   - IntersectGE: the smallest symbol >= c occurring in two ranges
//   - Distinct: the number of distinct non-zero symbols in a range
//
// Each level is a roaring bitmap marking the positions whose bit is one;
// rank is answered by roaring.Bitmap.Rank. Symbol 0 is treated as padding
// by the Range and Intersection views and is never reported.
package wavelet
