package query

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxVariables is the largest number of distinct variables in one query.
const MaxVariables = 256

// Var identifies a variable inside one query.
type Var uint8

// Term is a pattern component: a variable or a constant id.
type Term struct {
	Value uint64
	IsVar bool
}

// Variable returns a variable term.
func Variable(v Var) Term { return Term{Value: uint64(v), IsVar: true} }

// Const returns a constant term.
func Const(c uint64) Term { return Term{Value: c} }

// Var returns the variable id of a variable term.
func (t Term) Var() Var { return Var(t.Value) }

// Is reports whether t is the variable v.
func (t Term) Is(v Var) bool { return t.IsVar && Var(t.Value) == v }

func (t Term) String() string {
	if t.IsVar {
		return "?" + strconv.FormatUint(t.Value, 10)
	}

	return strconv.FormatUint(t.Value, 10)
}

// Kind distinguishes ordinary from similarity patterns.
type Kind uint8

const (
	KindExact Kind = iota
	KindSimilar
	KindBest
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindSimilar:
		return "similar"
	case KindBest:
		return "best"
	default:
		return "unknown"
	}
}

// TriplePattern is one atom of a query.
type TriplePattern struct {
	s, p, o Term
	kind    Kind
	k       uint64
	kBest   uint64
}

// Exact returns an ordinary pattern.
func Exact(s, p, o Term) TriplePattern {
	return TriplePattern{s: s, p: p, o: o, kind: KindExact}
}

// Similar returns a pattern stating that o is among the top-k neighbours of s.
func Similar(s Term, k uint64, o Term) TriplePattern {
	return TriplePattern{s: s, o: o, kind: KindSimilar, k: k}
}

// Best returns a similarity pattern on the nearest neighbour annotated with
// best-k.
func Best(s Term, k uint64, o Term) TriplePattern {
	return TriplePattern{s: s, o: o, kind: KindBest, k: 1, kBest: k}
}

// S returns the subject term.
func (tp TriplePattern) S() Term { return tp.s }

// P returns the predicate term. It is the zero Term for similarity patterns.
func (tp TriplePattern) P() Term { return tp.p }

// O returns the object term.
func (tp TriplePattern) O() Term { return tp.o }

// Kind returns the pattern kind.
func (tp TriplePattern) Kind() Kind { return tp.kind }

// IsSimilarity reports whether the pattern is a similarity relation.
func (tp TriplePattern) IsSimilarity() bool { return tp.kind != KindExact }

// IsBest reports whether the pattern is a best pattern.
func (tp TriplePattern) IsBest() bool { return tp.kind == KindBest }

// K returns the similarity rank bound (0 for ordinary patterns).
func (tp TriplePattern) K() uint64 { return tp.k }

// KBest returns the best-k annotation (0 unless IsBest).
func (tp TriplePattern) KBest() uint64 { return tp.kBest }

// Terms returns the subject, predicate and object terms. The predicate of a
// similarity pattern is the zero Term.
func (tp TriplePattern) Terms() [3]Term { return [3]Term{tp.s, tp.p, tp.o} }

// Vars returns the distinct variables of the pattern in S, P, O order.
func (tp TriplePattern) Vars() []Var {
	var out []Var

	for i, t := range tp.Terms() {
		if !t.IsVar || (i == 1 && tp.IsSimilarity()) {
			continue
		}

		dup := false
		for _, v := range out {
			if v == t.Var() {
				dup = true
			}
		}

		if !dup {
			out = append(out, t.Var())
		}
	}

	return out
}

// Contains reports whether v occurs in the pattern.
func (tp TriplePattern) Contains(v Var) bool {
	return tp.s.Is(v) || tp.o.Is(v) || (!tp.IsSimilarity() && tp.p.Is(v))
}

func (tp TriplePattern) String() string {
	var mid string

	switch tp.kind {
	case KindSimilar:
		mid = "k" + strconv.FormatUint(tp.k, 10)
	case KindBest:
		mid = "b" + strconv.FormatUint(tp.kBest, 10)
	default:
		mid = tp.p.String()
	}

	return fmt.Sprintf("%s %s %s", tp.s, mid, tp.o)
}

// Format renders the pattern with variable names.
func (tp TriplePattern) Format(names []string) string {
	term := func(t Term) string {
		if t.IsVar && int(t.Value) < len(names) {
			return "?" + names[t.Value]
		}

		return t.String()
	}

	var b strings.Builder
	b.WriteString(term(tp.s))
	b.WriteByte(' ')

	switch tp.kind {
	case KindSimilar:
		b.WriteString("k" + strconv.FormatUint(tp.k, 10))
	case KindBest:
		b.WriteString("b" + strconv.FormatUint(tp.kBest, 10))
	default:
		b.WriteString(term(tp.p))
	}

	b.WriteByte(' ')
	b.WriteString(term(tp.o))

	return b.String()
}
