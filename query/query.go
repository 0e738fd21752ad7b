package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrTooManyVariables is returned when a query uses more than MaxVariables.
	ErrTooManyVariables = errors.New("query: too many variables")

	// ErrSelfSimilarity is returned for a similarity pattern whose subject and
	// object are the same term.
	ErrSelfSimilarity = errors.New("query: similarity pattern relates a term to itself")

	// ErrZeroK is returned for a similarity pattern with k = 0.
	ErrZeroK = errors.New("query: similarity rank must be >= 1")

	// ErrZeroConstant is returned for a constant equal to the reserved id 0.
	ErrZeroConstant = errors.New("query: constants must be >= 1")

	// ErrUnknownVariable is returned when a pattern references a variable
	// without a name.
	ErrUnknownVariable = errors.New("query: variable id out of range")

	// ErrUnusedVariable is returned when a named variable occurs in no pattern.
	ErrUnusedVariable = errors.New("query: variable occurs in no pattern")

	// ErrInconsistentBest is returned when best patterns disagree on best-k.
	ErrInconsistentBest = errors.New("query: best patterns use different k")

	// ErrEmptyQuery is returned for a query without patterns.
	ErrEmptyQuery = errors.New("query: no patterns")

	// ErrSyntax is wrapped by every ParseError.
	ErrSyntax = errors.New("query: syntax error")
)

// PatternError reports an invalid pattern.
type PatternError struct {
	Index int
	Err   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %d: %v", e.Index, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// ParseError reports a malformed pattern in query text.
type ParseError struct {
	Pattern int
	Token   string
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("query: pattern %d: %s", e.Pattern, e.Reason)
	}

	return fmt.Sprintf("query: pattern %d: %s: %q", e.Pattern, e.Reason, e.Token)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

// Query is a conjunction of triple patterns. Variable v is named Names[v].
type Query struct {
	Patterns []TriplePattern
	Names    []string
}

// New returns a query over the given variable names.
func New(names []string, patterns ...TriplePattern) *Query {
	return &Query{Patterns: patterns, Names: names}
}

// NumVars returns the number of variables.
func (q *Query) NumVars() int { return len(q.Names) }

// Exact returns the ordinary patterns in query order.
func (q *Query) Exact() []TriplePattern {
	var out []TriplePattern

	for _, tp := range q.Patterns {
		if !tp.IsSimilarity() {
			out = append(out, tp)
		}
	}

	return out
}

// Similarity returns the similarity patterns in query order.
func (q *Query) Similarity() []TriplePattern {
	var out []TriplePattern

	for _, tp := range q.Patterns {
		if tp.IsSimilarity() {
			out = append(out, tp)
		}
	}

	return out
}

// BestK returns the common best-k of the query's best patterns, or 0.
func (q *Query) BestK() uint64 {
	for _, tp := range q.Patterns {
		if tp.IsBest() {
			return tp.KBest()
		}
	}

	return 0
}

// Validate checks the structural rules every evaluator relies on.
func (q *Query) Validate() error {
	if len(q.Patterns) == 0 {
		return ErrEmptyQuery
	}

	if len(q.Names) > MaxVariables {
		return fmt.Errorf("%w: %d", ErrTooManyVariables, len(q.Names))
	}

	used := make([]bool, len(q.Names))
	bestK := uint64(0)

	for i, tp := range q.Patterns {
		for j, t := range tp.Terms() {
			if j == 1 && tp.IsSimilarity() {
				continue
			}

			if t.IsVar {
				if int(t.Value) >= len(q.Names) {
					return &PatternError{Index: i, Err: ErrUnknownVariable}
				}

				used[t.Value] = true
			} else if t.Value == 0 {
				return &PatternError{Index: i, Err: ErrZeroConstant}
			}
		}

		if !tp.IsSimilarity() {
			continue
		}

		if tp.K() == 0 || (tp.IsBest() && tp.KBest() == 0) {
			return &PatternError{Index: i, Err: ErrZeroK}
		}

		if tp.S() == tp.O() {
			return &PatternError{Index: i, Err: ErrSelfSimilarity}
		}

		if tp.IsBest() {
			if bestK != 0 && bestK != tp.KBest() {
				return &PatternError{Index: i, Err: ErrInconsistentBest}
			}

			bestK = tp.KBest()
		}
	}

	for v, ok := range used {
		if !ok {
			return fmt.Errorf("%w: ?%s", ErrUnusedVariable, q.Names[v])
		}
	}

	return nil
}

func (q *Query) String() string {
	parts := make([]string, len(q.Patterns))
	for i, tp := range q.Patterns {
		parts[i] = tp.Format(q.Names)
	}

	return strings.Join(parts, " . ")
}

// Parse reads a query in text form. Variables receive ids in order of first
// appearance.
func Parse(text string) (*Query, error) {
	q := &Query{}
	ids := make(map[string]Var)

	variable := func(idx int, tok string) (Term, error) {
		name := tok[1:]
		if name == "" {
			return Term{}, &ParseError{Pattern: idx, Token: tok, Reason: "empty variable name"}
		}

		if v, ok := ids[name]; ok {
			return Variable(v), nil
		}

		if len(q.Names) == MaxVariables {
			return Term{}, ErrTooManyVariables
		}

		v := Var(len(q.Names))
		ids[name] = v
		q.Names = append(q.Names, name)

		return Variable(v), nil
	}

	term := func(idx int, tok string) (Term, error) {
		if strings.HasPrefix(tok, "?") {
			return variable(idx, tok)
		}

		c, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return Term{}, &ParseError{Pattern: idx, Token: tok, Reason: "invalid constant"}
		}

		return Const(c), nil
	}

	idx := 0

	for _, raw := range strings.Split(text, ".") {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 3 {
			return nil, &ParseError{Pattern: idx, Token: strings.TrimSpace(raw), Reason: "expected three terms"}
		}

		s, err := term(idx, fields[0])
		if err != nil {
			return nil, err
		}

		var tp TriplePattern

		mid := fields[1]
		switch {
		case strings.HasPrefix(mid, "k") || strings.HasPrefix(mid, "b"):
			k, perr := strconv.ParseUint(mid[1:], 10, 64)
			if perr != nil {
				return nil, &ParseError{Pattern: idx, Token: mid, Reason: "invalid rank"}
			}

			o, err := term(idx, fields[2])
			if err != nil {
				return nil, err
			}

			if mid[0] == 'k' {
				tp = Similar(s, k, o)
			} else {
				tp = Best(s, k, o)
			}
		default:
			p, err := term(idx, mid)
			if err != nil {
				return nil, err
			}

			o, err := term(idx, fields[2])
			if err != nil {
				return nil, err
			}

			tp = Exact(s, p, o)
		}

		q.Patterns = append(q.Patterns, tp)
		idx++
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	return q, nil
}
