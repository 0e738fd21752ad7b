package query

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	q, err := Parse("?x 7 ?y . ?y k3 ?z . ?z b2 5 .")
	require.NoError(t, err)

	require.Equal(t, []string{"x", "y", "z"}, q.Names)
	require.Len(t, q.Patterns, 3)

	p0 := q.Patterns[0]
	assert.Equal(t, KindExact, p0.Kind())
	assert.Equal(t, Variable(0), p0.S())
	assert.Equal(t, Const(7), p0.P())
	assert.Equal(t, Variable(1), p0.O())

	p1 := q.Patterns[1]
	assert.True(t, p1.IsSimilarity())
	assert.False(t, p1.IsBest())
	assert.Equal(t, uint64(3), p1.K())
	assert.Equal(t, Term{}, p1.P())

	p2 := q.Patterns[2]
	assert.True(t, p2.IsSimilarity())
	assert.True(t, p2.IsBest())
	assert.Equal(t, uint64(1), p2.K())
	assert.Equal(t, uint64(2), p2.KBest())
	assert.Equal(t, uint64(2), q.BestK())

	assert.Len(t, q.Exact(), 1)
	assert.Len(t, q.Similarity(), 2)
	assert.Equal(t, "?x 7 ?y . ?y k3 ?z . ?z b2 5", q.String())
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		err  error
	}{
		{"two terms", "?x 7", ErrSyntax},
		{"bad constant", "?x 7 abc", ErrSyntax},
		{"bad rank", "?x kx ?y", ErrSyntax},
		{"empty variable", "? 7 ?y", ErrSyntax},
		{"self similarity", "?x k2 ?x", ErrSelfSimilarity},
		{"zero k", "?x k0 ?y", ErrZeroK},
		{"zero constant", "0 7 ?y", ErrZeroConstant},
		{"inconsistent best", "?x b2 ?y . ?y b3 ?z", ErrInconsistentBest},
		{"empty", " . ", ErrEmptyQuery},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestParseTooManyVariables(t *testing.T) {
	var parts []string
	for i := 0; i < MaxVariables+1; i++ {
		parts = append(parts, fmt.Sprintf("?a%d 1 ?b", i))
	}

	_, err := Parse(strings.Join(parts, " . "))
	require.ErrorIs(t, err, ErrTooManyVariables)
}

func TestValidate(t *testing.T) {
	q := New([]string{"x", "unused"}, Exact(Variable(0), Const(1), Const(2)))
	require.ErrorIs(t, q.Validate(), ErrUnusedVariable)

	q = New([]string{"x"}, Exact(Variable(0), Const(1), Variable(3)))
	err := q.Validate()
	require.ErrorIs(t, err, ErrUnknownVariable)

	var perr *PatternError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, perr.Index)
}

func TestPatternVars(t *testing.T) {
	tp := Exact(Variable(2), Variable(0), Variable(2))
	assert.Equal(t, []Var{2, 0}, tp.Vars())
	assert.True(t, tp.Contains(0))
	assert.False(t, tp.Contains(1))

	sim := Similar(Const(4), 3, Variable(1))
	assert.Equal(t, []Var{1}, sim.Vars())
	assert.Equal(t, "4 k3 ?1", sim.String())
}
