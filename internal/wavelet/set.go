package wavelet

// Set is an ordered view of the non-zero symbols of one or two ranges.
type Set interface {
	// Next returns the smallest symbol >= c, or 0 when there is none.
	// A c of 0 is read as 1.
	Next(c uint64) uint64
	// Distinct returns the number of distinct symbols in the view.
	Distinct() uint64
	// IsEmpty reports whether the view contains no symbol.
	IsEmpty() bool
}

// Range is the set of symbols stored at positions [Lo, Hi).
type Range struct {
	m      *Matrix
	Lo, Hi uint64
}

// NewRange returns a view over [lo, hi). A nil matrix yields an empty view.
func NewRange(m *Matrix, lo, hi uint64) Range {
	return Range{m: m, Lo: lo, Hi: hi}
}

// Empty returns a view that contains nothing.
func Empty() Range { return Range{} }

func (r Range) Next(c uint64) uint64 {
	if r.m == nil {
		return 0
	}

	v, ok := r.m.NextGE(r.Lo, r.Hi, max(c, 1))
	if !ok {
		return 0
	}

	return v
}

func (r Range) Distinct() uint64 {
	if r.m == nil {
		return 0
	}

	return r.m.Distinct(r.Lo, r.Hi)
}

func (r Range) IsEmpty() bool { return r.Next(1) == 0 }

// Intersection is the set of symbols present in two ranges of one matrix.
type Intersection struct {
	m    *Matrix
	A, B Range
}

// NewIntersection returns the intersection view of a and b, which must be
// ranges over m.
func NewIntersection(m *Matrix, a, b Range) Intersection {
	return Intersection{m: m, A: a, B: b}
}

func (x Intersection) Next(c uint64) uint64 {
	if x.m == nil {
		return 0
	}

	v, ok := x.m.IntersectGE(x.A.Lo, x.A.Hi, x.B.Lo, x.B.Hi, max(c, 1))
	if !ok {
		return 0
	}

	return v
}

func (x Intersection) Distinct() uint64 {
	if x.m == nil {
		return 0
	}

	return x.m.DistinctIntersect(x.A.Lo, x.A.Hi, x.B.Lo, x.B.Hi)
}

func (x Intersection) IsEmpty() bool { return x.Next(1) == 0 }

// Cursor enumerates a Set once, in ascending order.
type Cursor struct {
	set  Set
	cur  uint64
	done bool
}

// NewCursor returns a cursor positioned before the first symbol of s.
func NewCursor(s Set) *Cursor {
	return &Cursor{set: s}
}

// Next returns the following symbol, or 0 once the set is exhausted.
func (c *Cursor) Next() uint64 {
	if c.done {
		return 0
	}

	v := c.set.Next(c.cur + 1)
	if v == 0 {
		c.done = true
	}

	c.cur = v

	return v
}
