package knn

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/simring/internal/wavelet"
)

var (
	// ErrInvalidNeighbor is returned when an adjacency list references a node
	// outside [1, nodes].
	ErrInvalidNeighbor = errors.New("knn: neighbour id out of range")

	// ErrListTooLong is returned when a neighbour list is longer than maxK.
	ErrListTooLong = errors.New("knn: neighbour list longer than max k")

	// ErrTooLarge is returned when the graph does not fit 32-bit positions.
	ErrTooLarge = errors.New("knn: graph too large")
)

// Pair is one (subject, object) edge of the similarity relation.
type Pair struct {
	S, O uint64
}

// Graph is an immutable k-NN graph index. It is safe for concurrent readers.
type Graph struct {
	nodes   uint64
	maxK    uint64
	edges   uint64
	fwdLen  uint64
	seq     *wavelet.Matrix
	inverse *roaring.Bitmap
}

type invEntry struct {
	rank, id uint64
}

// New builds the index from adj, where adj[i] is the ranked neighbour list of
// node i+1. A maxK of 0 selects the length of the longest list.
func New(adj [][]uint64, maxK uint64) (*Graph, error) {
	nodes := uint64(len(adj))

	longest := uint64(0)
	for _, list := range adj {
		longest = max(longest, uint64(len(list)))
	}

	if maxK == 0 {
		maxK = longest
	}

	if longest > maxK {
		return nil, fmt.Errorf("%w: %d > %d", ErrListTooLong, longest, maxK)
	}

	if 2*nodes*maxK+1 > math.MaxUint32 {
		return nil, ErrTooLarge
	}

	g := &Graph{
		nodes:  nodes,
		maxK:   maxK,
		fwdLen: nodes * maxK,
	}

	inv := make([][]invEntry, nodes)
	seq := make([]uint64, g.fwdLen, 2*g.fwdLen)

	for i, list := range adj {
		src := uint64(i) + 1
		for r, y := range list {
			if y == 0 || y > nodes {
				return nil, fmt.Errorf("%w: node %d lists %d", ErrInvalidNeighbor, src, y)
			}

			seq[uint64(i)*maxK+uint64(r)] = y
			inv[y-1] = append(inv[y-1], invEntry{rank: uint64(r) + 1, id: src})
			g.edges++
		}
	}

	b := roaring.New()
	pos := uint32(0)

	for _, entries := range inv {
		slices.SortFunc(entries, func(a, b invEntry) int {
			if a.rank != b.rank {
				return cmpUint(a.rank, b.rank)
			}

			return cmpUint(a.id, b.id)
		})

		prev := uint64(0)
		for _, e := range entries {
			b.AddRange(uint64(pos), uint64(pos)+e.rank-prev)
			pos += uint32(e.rank - prev)
			pos++ // zero for this entry
			prev = e.rank
			seq = append(seq, e.id)
		}

		b.AddRange(uint64(pos), uint64(pos)+maxK-prev)
		pos += uint32(maxK - prev)
	}

	b.Add(pos)
	b.RunOptimize()

	m, err := wavelet.New(seq)
	if err != nil {
		return nil, errors.Join(ErrTooLarge, err)
	}

	g.seq = m
	g.inverse = b

	return g, nil
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Nodes returns the number of nodes.
func (g *Graph) Nodes() uint64 { return g.nodes }

// MaxK returns the largest rank stored per node.
func (g *Graph) MaxK() uint64 { return g.maxK }

// Edges returns the number of stored (node, neighbour) entries.
func (g *Graph) Edges() uint64 { return g.edges }

// SizeInBytes approximates the memory used by the succinct structures.
func (g *Graph) SizeInBytes() uint64 {
	return g.seq.SizeInBytes() + g.inverse.GetSizeInBytes()
}

func (g *Graph) valid(x, k uint64) bool {
	return x >= 1 && x <= g.nodes && k >= 1 && k <= g.maxK
}

// RangeInG returns the 1-based inclusive positions of the top-k forward list
// of x. ok is false for out-of-range requests.
func (g *Graph) RangeInG(x, k uint64) (lo, hi uint64, ok bool) {
	if !g.valid(x, k) {
		return 0, 0, false
	}

	base := (x - 1) * g.maxK

	return base + 1, base + k, true
}

// p returns the 1-based offset in the inverse sequence of the first inverse
// entry of x with rank >= k. k may be maxK+1.
func (g *Graph) p(x, k uint64) uint64 {
	j := (x-1)*g.maxK + k

	sel, err := g.inverse.Select(uint32(j - 1))
	if err != nil {
		// Unreachable for valid (x, k): B always holds nodes*maxK+1 ones.
		panic(fmt.Sprintf("knn: select1(%d) failed: %v", j, err))
	}

	return uint64(sel) + 1 - j + 1
}

// RangeInInvG returns the 1-based inclusive positions, inside the inverse
// sequence, of the nodes listing x within their top k. The range is empty
// when hi < lo.
func (g *Graph) RangeInInvG(x, k uint64) (lo, hi uint64, ok bool) {
	if !g.valid(x, k) {
		return 0, 0, false
	}

	return g.p(x, 1), g.p(x, k+1) - 1, true
}

func (g *Graph) forward(x, k uint64) wavelet.Range {
	lo, hi, ok := g.RangeInG(x, k)
	if !ok {
		return wavelet.Empty()
	}

	return wavelet.NewRange(g.seq, lo-1, hi)
}

func (g *Graph) backward(x, k uint64) wavelet.Range {
	lo, hi, ok := g.RangeInInvG(x, k)
	if !ok || hi < lo {
		return wavelet.Empty()
	}

	return wavelet.NewRange(g.seq, g.fwdLen+lo-1, g.fwdLen+hi)
}

// RangeHelper returns the ordered set of nodes similar to x within rank k.
// With subject set, x is the subject and the set holds its top-k neighbours;
// otherwise x is the object and the set holds the nodes listing x.
func (g *Graph) RangeHelper(x, k uint64, subject bool) wavelet.Set {
	if subject {
		return g.forward(x, k)
	}

	return g.backward(x, k)
}

// IntersectionHelper returns the nodes that are in the top-k1 of x and that
// list x within their top k2.
func (g *Graph) IntersectionHelper(x, k1, k2 uint64) wavelet.Set {
	f, b := g.forward(x, k1), g.backward(x, k2)
	if f.Hi <= f.Lo || b.Hi <= b.Lo {
		return wavelet.Empty()
	}

	return wavelet.NewIntersection(g.seq, f, b)
}

// RangeIter is the single-pass form of RangeHelper.
func (g *Graph) RangeIter(x, k uint64, subject bool) *wavelet.Cursor {
	return wavelet.NewCursor(g.RangeHelper(x, k, subject))
}

// IntersectionIter is the single-pass form of IntersectionHelper.
func (g *Graph) IntersectionIter(x, k1, k2 uint64) *wavelet.Cursor {
	return wavelet.NewCursor(g.IntersectionHelper(x, k1, k2))
}

// Exists reports whether o is among the top-k neighbours of s.
func (g *Graph) Exists(s, k, o uint64) bool {
	if o == 0 {
		return false
	}

	return g.forward(s, k).Next(o) == o
}

// ExpandFixed returns the top-k neighbours of s in rank order.
func (g *Graph) ExpandFixed(k, s uint64) []uint64 {
	lo, hi, ok := g.RangeInG(s, k)
	if !ok {
		return nil
	}

	out := make([]uint64, 0, k)
	for i := lo - 1; i < hi; i++ {
		v := g.seq.Access(i)
		if v == 0 {
			break
		}

		out = append(out, v)
	}

	return out
}

// InvExpandFixed returns the nodes listing o within their top k, ordered by
// rank then id.
func (g *Graph) InvExpandFixed(k, o uint64) []uint64 {
	lo, hi, ok := g.RangeInInvG(o, k)
	if !ok || hi < lo {
		return nil
	}

	out := make([]uint64, 0, hi-lo+1)
	for i := lo - 1; i < hi; i++ {
		out = append(out, g.seq.Access(g.fwdLen+i))
	}

	return out
}

// InvExpand returns every (s, o) pair with o among the top-k of s, ordered
// by s then rank.
func (g *Graph) InvExpand(k uint64) []Pair {
	if k == 0 || k > g.maxK {
		return nil
	}

	var out []Pair

	for s := uint64(1); s <= g.nodes; s++ {
		for _, o := range g.ExpandFixed(k, s) {
			out = append(out, Pair{S: s, O: o})
		}
	}

	return out
}

// Neighbors returns the full ranked list of x.
func (g *Graph) Neighbors(x uint64) []uint64 {
	if g.maxK == 0 {
		return nil
	}

	return g.ExpandFixed(g.maxK, x)
}

// Adjacency reconstructs the ranked lists the graph was built from.
func (g *Graph) Adjacency() [][]uint64 {
	adj := make([][]uint64, g.nodes)
	for x := uint64(1); x <= g.nodes; x++ {
		adj[x-1] = g.Neighbors(x)
	}

	return adj
}
