package gao

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/simring/internal/iterator"
	"github.com/hupe1980/simring/query"
)

// Strategy selects how much of the adaptive heuristic is used.
type Strategy uint8

const (
	// Adaptive re-estimates weights on every descent and breaks weight ties
	// by pending similarity edges.
	Adaptive Strategy = iota
	// AdaptiveNoSimilarity re-estimates weights but ignores similarity edges.
	AdaptiveNoSimilarity
	// Static orders by the weights estimated at construction only.
	Static
)

func (s Strategy) String() string {
	switch s {
	case Adaptive:
		return "adaptive"
	case AdaptiveNoSimilarity:
		return "adaptive-nosim"
	case Static:
		return "static"
	default:
		return "unknown"
	}
}

// SetID names the four disjoint variable sets.
type SetID uint8

const (
	Mand SetID = iota
	Ready
	Sim
	Lonely
	numSets
)

type varInfo struct {
	weight  uint64
	linked  *bitset.BitSet
	simCnt  uint64
	simTgts []query.Var
	isBound bool
}

type setOp uint8

const (
	opInsert setOp = iota
	opErase
)

type setUpdate struct {
	v   query.Var
	set SetID
	op  setOp
}

type setFrame struct {
	updates []setUpdate
	decs    []query.Var
}

type weightUpdate struct {
	v query.Var
	w uint64
}

// GAO is the variable-order state of one join. It is not safe for
// concurrent use.
type GAO struct {
	strategy Strategy
	iters    []iterator.Iterator
	varIters [][]int
	nodes    uint64

	info   []varInfo
	sets   [numSets]*bitset.BitSet
	bound  []query.Var
	active int

	weightLog [][]weightUpdate
	setLog    []setFrame
}

// New builds the order state. varIters[v] lists the indices into iters of
// the iterators containing v; nodes is the k-NN graph size used as the
// estimate of an unrestricted similarity side. Variables without iterators
// take no part in the order.
func New(iters []iterator.Iterator, varIters [][]int, nodes uint64, strategy Strategy) *GAO {
	n := uint(len(varIters))

	g := &GAO{
		strategy: strategy,
		iters:    iters,
		varIters: varIters,
		nodes:    nodes,
		info:     make([]varInfo, n),
	}

	for i := range g.sets {
		g.sets[i] = bitset.New(n)
	}

	for v := range g.info {
		g.info[v] = varInfo{weight: math.MaxUint64, linked: bitset.New(n)}
	}

	nonLonely := func(v query.Var) bool { return len(varIters[v]) > 1 }

	for _, it := range iters {
		vars := it.Vars()
		for _, v := range vars {
			g.info[v].weight = min(g.info[v].weight, g.estimate(it))
		}

		for i, v := range vars {
			for _, w := range vars[i+1:] {
				if nonLonely(v) && nonLonely(w) {
					g.info[v].linked.Set(uint(w))
					g.info[w].linked.Set(uint(v))
				}
			}
		}

		if it.Kind() == iterator.KindExact || len(vars) != 2 {
			continue
		}

		var s, o query.Var
		if it.HasSubject(vars[0]) {
			s, o = vars[0], vars[1]
		} else {
			s, o = vars[1], vars[0]
		}

		g.addSimEdge(s, o)
		if it.Kind() == iterator.KindBiSimilarity {
			g.addSimEdge(o, s)
		}
	}

	for v := range g.info {
		switch len(varIters[v]) {
		case 0:
			continue
		case 1:
			g.sets[Lonely].Set(uint(v))
		default:
			g.sets[Ready].Set(uint(v))
		}

		g.active++
	}

	return g
}

func (g *GAO) addSimEdge(src, tgt query.Var) {
	g.info[src].simTgts = append(g.info[src].simTgts, tgt)
	g.info[tgt].simCnt++
}

// estimate returns the binding-set estimate of the open variables of it.
func (g *GAO) estimate(it iterator.Iterator) uint64 {
	switch it.Kind() {
	case iterator.KindExact:
		return it.(*iterator.Exact).IntervalLength()
	case iterator.KindUniSimilarity:
		if it.InLastLevel() {
			return it.(*iterator.UniSimilarity).Distinct()
		}
	case iterator.KindBiSimilarity:
		if it.InLastLevel() {
			return it.(*iterator.BiSimilarity).Distinct()
		}
	}

	return g.nodes
}

// Size returns the number of variables taking part in the order.
func (g *GAO) Size() int { return g.active }

// Depth returns the number of variables currently bound.
func (g *GAO) Depth() int { return len(g.bound) }

// Weight returns the current weight of v.
func (g *GAO) Weight(v query.Var) uint64 { return g.info[v].weight }

// IsLonely reports whether v is waiting in the lonely set.
func (g *GAO) IsLonely(v query.Var) bool { return g.sets[Lonely].Test(uint(v)) }

// Next chooses, removes and returns the next variable to bind.
func (g *GAO) Next() query.Var {
	var frame setFrame

	var r query.Var

	if g.sets[Ready].None() {
		i, _ := g.sets[Lonely].NextSet(0)
		r = query.Var(i)
		g.sets[Lonely].Clear(i)
		frame.updates = append(frame.updates, setUpdate{v: r, set: Lonely, op: opErase})
	} else {
		r = g.argmin()
		g.sets[Ready].Clear(uint(r))
		frame.updates = append(frame.updates, setUpdate{v: r, set: Ready, op: opErase})

		for _, tgt := range g.info[r].simTgts {
			if !g.IsLonely(tgt) && !g.info[tgt].isBound {
				g.info[tgt].simCnt--
				frame.decs = append(frame.decs, tgt)
			}
		}
	}

	g.bound = append(g.bound, r)
	g.info[r].isBound = true
	g.setLog = append(g.setLog, frame)

	return r
}

func (g *GAO) argmin() query.Var {
	var (
		r      query.Var
		minW   uint64 = math.MaxUint64
		minCnt uint64
		found  bool
	)

	for i, ok := g.sets[Ready].NextSet(0); ok; i, ok = g.sets[Ready].NextSet(i + 1) {
		info := &g.info[i]

		switch {
		case !found || info.weight < minW:
		case info.weight == minW && g.strategy == Adaptive && info.simCnt < minCnt:
		default:
			continue
		}

		r, minW, minCnt, found = query.Var(i), info.weight, info.simCnt, true
	}

	return r
}

// Down re-estimates the unbound variables linked to the variable bound
// last, keeping strict improvements.
func (g *GAO) Down() {
	var frame []weightUpdate

	if g.strategy != Static && len(g.bound) > 0 {
		v := g.bound[len(g.bound)-1]
		linked := g.info[v].linked

		for i, ok := linked.NextSet(0); ok; i, ok = linked.NextSet(i + 1) {
			link := &g.info[i]
			if link.isBound {
				continue
			}

			w := link.weight
			for _, idx := range g.varIters[i] {
				w = min(w, g.estimate(g.iters[idx]))
			}

			if w < link.weight {
				frame = append(frame, weightUpdate{v: query.Var(i), w: link.weight})
				link.weight = w
			}
		}
	}

	g.weightLog = append(g.weightLog, frame)
}

// Up restores the weights changed by the matching Down.
func (g *GAO) Up() {
	if len(g.weightLog) == 0 {
		return
	}

	frame := g.weightLog[len(g.weightLog)-1]
	g.weightLog = g.weightLog[:len(g.weightLog)-1]

	for i := len(frame) - 1; i >= 0; i-- {
		g.info[frame[i].v].weight = frame[i].w
	}
}

// Done releases the variable returned by the matching Next.
func (g *GAO) Done() {
	if len(g.bound) == 0 {
		return
	}

	v := g.bound[len(g.bound)-1]
	g.bound = g.bound[:len(g.bound)-1]

	frame := g.setLog[len(g.setLog)-1]
	g.setLog = g.setLog[:len(g.setLog)-1]

	for i := len(frame.updates) - 1; i >= 0; i-- {
		u := frame.updates[i]
		if u.op == opErase {
			g.sets[u.set].Set(uint(u.v))
		} else {
			g.sets[u.set].Clear(uint(u.v))
		}
	}

	for _, tgt := range frame.decs {
		g.info[tgt].simCnt++
	}

	g.info[v].isBound = false
}

// State is a deep copy of the order state, used to check reversibility.
type State struct {
	Weights []uint64
	SimCnt  []uint64
	IsBound []bool
	Sets    [numSets][]query.Var
	Bound   []query.Var
}

// State snapshots the current state.
func (g *GAO) State() State {
	s := State{
		Weights: make([]uint64, len(g.info)),
		SimCnt:  make([]uint64, len(g.info)),
		IsBound: make([]bool, len(g.info)),
		Bound:   append([]query.Var(nil), g.bound...),
	}

	for i, info := range g.info {
		s.Weights[i] = info.weight
		s.SimCnt[i] = info.simCnt
		s.IsBound[i] = info.isBound
	}

	for id, set := range g.sets {
		for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
			s.Sets[id] = append(s.Sets[id], query.Var(i))
		}
	}

	return s
}
