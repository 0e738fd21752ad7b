package wavelet

import (
	"errors"
	"math"
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrTooLarge is returned when a sequence does not fit 32-bit positions.
var ErrTooLarge = errors.New("wavelet: sequence longer than 2^32-1 symbols")

type level struct {
	ones  *roaring.Bitmap
	zeros uint64
}

// Matrix is an immutable wavelet matrix. It is safe for concurrent readers.
type Matrix struct {
	n      uint64
	width  uint
	levels []level
}

// New builds a wavelet matrix over seq.
func New(seq []uint64) (*Matrix, error) {
	if uint64(len(seq)) > math.MaxUint32 {
		return nil, ErrTooLarge
	}

	var maxSym uint64
	for _, v := range seq {
		maxSym = max(maxSym, v)
	}

	width := max(uint(bits.Len64(maxSym)), 1)

	m := &Matrix{
		n:      uint64(len(seq)),
		width:  width,
		levels: make([]level, width),
	}

	cur := make([]uint64, len(seq))
	copy(cur, seq)
	next := make([]uint64, len(seq))

	for l := uint(0); l < width; l++ {
		shift := width - 1 - l
		ones := roaring.New()

		var zeros uint64
		for i, v := range cur {
			if (v>>shift)&1 == 1 {
				ones.Add(uint32(i))
			} else {
				zeros++
			}
		}

		z, o := uint64(0), zeros
		for _, v := range cur {
			if (v>>shift)&1 == 1 {
				next[o] = v
				o++
			} else {
				next[z] = v
				z++
			}
		}

		ones.RunOptimize()
		m.levels[l] = level{ones: ones, zeros: zeros}
		cur, next = next, cur
	}

	return m, nil
}

// Len returns the length of the sequence.
func (m *Matrix) Len() uint64 { return m.n }

// Width returns the number of bits per symbol.
func (m *Matrix) Width() uint { return m.width }

// SizeInBytes reports the serialized size of the level bitmaps.
func (m *Matrix) SizeInBytes() uint64 {
	var total uint64
	for _, lv := range m.levels {
		total += lv.ones.GetSizeInBytes()
	}

	return total
}

func (lv *level) rank1(i uint64) uint64 {
	if i == 0 {
		return 0
	}

	return lv.ones.Rank(uint32(i - 1))
}

// Access returns the symbol at position i.
func (m *Matrix) Access(i uint64) uint64 {
	var v uint64

	for l := range m.levels {
		lv := &m.levels[l]
		if lv.ones.Contains(uint32(i)) {
			v = v<<1 | 1
			i = lv.zeros + lv.rank1(i)
		} else {
			v <<= 1
			i -= lv.rank1(i)
		}
	}

	return v
}

// NextGE returns the smallest symbol >= c in positions [lo, hi).
func (m *Matrix) NextGE(lo, hi, c uint64) (uint64, bool) {
	hi = min(hi, m.n)
	if lo >= hi || c > m.maxSymbol() {
		return 0, false
	}

	return m.nextGE(0, lo, hi, 0, c, true)
}

func (m *Matrix) maxSymbol() uint64 {
	if m.width >= 64 {
		return math.MaxUint64
	}

	return (uint64(1) << m.width) - 1
}

func (m *Matrix) nextGE(l uint, lo, hi, prefix, c uint64, tight bool) (uint64, bool) {
	if lo >= hi {
		return 0, false
	}

	if l == m.width {
		return prefix, true
	}

	lv := &m.levels[l]
	bit := (c >> (m.width - 1 - l)) & 1
	rlo, rhi := lv.rank1(lo), lv.rank1(hi)

	if !tight || bit == 0 {
		if v, ok := m.nextGE(l+1, lo-rlo, hi-rhi, prefix<<1, c, tight); ok {
			return v, true
		}
	}

	return m.nextGE(l+1, lv.zeros+rlo, lv.zeros+rhi, prefix<<1|1, c, tight && bit == 1)
}

// IntersectGE returns the smallest symbol >= c present both in [lo1, hi1)
// and in [lo2, hi2).
func (m *Matrix) IntersectGE(lo1, hi1, lo2, hi2, c uint64) (uint64, bool) {
	hi1, hi2 = min(hi1, m.n), min(hi2, m.n)
	if lo1 >= hi1 || lo2 >= hi2 || c > m.maxSymbol() {
		return 0, false
	}

	return m.intersectGE(0, lo1, hi1, lo2, hi2, 0, c, true)
}

func (m *Matrix) intersectGE(l uint, lo1, hi1, lo2, hi2, prefix, c uint64, tight bool) (uint64, bool) {
	if lo1 >= hi1 || lo2 >= hi2 {
		return 0, false
	}

	if l == m.width {
		return prefix, true
	}

	lv := &m.levels[l]
	bit := (c >> (m.width - 1 - l)) & 1
	rlo1, rhi1 := lv.rank1(lo1), lv.rank1(hi1)
	rlo2, rhi2 := lv.rank1(lo2), lv.rank1(hi2)

	if !tight || bit == 0 {
		if v, ok := m.intersectGE(l+1, lo1-rlo1, hi1-rhi1, lo2-rlo2, hi2-rhi2, prefix<<1, c, tight); ok {
			return v, true
		}
	}

	return m.intersectGE(l+1,
		lv.zeros+rlo1, lv.zeros+rhi1,
		lv.zeros+rlo2, lv.zeros+rhi2,
		prefix<<1|1, c, tight && bit == 1)
}

// Distinct counts the distinct non-zero symbols in [lo, hi).
func (m *Matrix) Distinct(lo, hi uint64) uint64 {
	hi = min(hi, m.n)
	if lo >= hi {
		return 0
	}

	return m.distinct(0, lo, hi, 0)
}

func (m *Matrix) distinct(l uint, lo, hi, prefix uint64) uint64 {
	if lo >= hi {
		return 0
	}

	if l == m.width {
		if prefix == 0 {
			return 0
		}

		return 1
	}

	lv := &m.levels[l]
	rlo, rhi := lv.rank1(lo), lv.rank1(hi)

	return m.distinct(l+1, lo-rlo, hi-rhi, prefix<<1) +
		m.distinct(l+1, lv.zeros+rlo, lv.zeros+rhi, prefix<<1|1)
}

// DistinctIntersect counts the distinct non-zero symbols present in both
// [lo1, hi1) and [lo2, hi2).
func (m *Matrix) DistinctIntersect(lo1, hi1, lo2, hi2 uint64) uint64 {
	hi1, hi2 = min(hi1, m.n), min(hi2, m.n)
	if lo1 >= hi1 || lo2 >= hi2 {
		return 0
	}

	return m.distinctIntersect(0, lo1, hi1, lo2, hi2, 0)
}

func (m *Matrix) distinctIntersect(l uint, lo1, hi1, lo2, hi2, prefix uint64) uint64 {
	if lo1 >= hi1 || lo2 >= hi2 {
		return 0
	}

	if l == m.width {
		if prefix == 0 {
			return 0
		}

		return 1
	}

	lv := &m.levels[l]
	rlo1, rhi1 := lv.rank1(lo1), lv.rank1(hi1)
	rlo2, rhi2 := lv.rank1(lo2), lv.rank1(hi2)

	return m.distinctIntersect(l+1, lo1-rlo1, hi1-rhi1, lo2-rlo2, hi2-rhi2, prefix<<1) +
		m.distinctIntersect(l+1,
			lv.zeros+rlo1, lv.zeros+rhi1,
			lv.zeros+rlo2, lv.zeros+rhi2,
			prefix<<1|1)
}
