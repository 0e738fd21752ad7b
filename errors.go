package simring

import (
	"errors"
	"fmt"

	"github.com/hupe1980/simring/internal/resource"
	"github.com/hupe1980/simring/query"
)

var (
	// ErrInvalidQuery is wrapped by every query validation error.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrTooManyVariables is returned when a query exceeds query.MaxVariables.
	ErrTooManyVariables = query.ErrTooManyVariables

	// ErrInconsistentBest is returned when best patterns disagree on best-k.
	ErrInconsistentBest = query.ErrInconsistentBest

	// ErrIndexNotBuilt is returned when querying a nil or closed DB.
	ErrIndexNotBuilt = errors.New("index not built")

	// ErrUnknownVariable is returned by WithDistinct for a name the query
	// does not use.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrMemoryLimitExceeded is returned when the indexes do not fit the
	// configured memory budget.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// ErrInvalidPattern reports which pattern of a query is invalid.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidPattern struct {
	Index  int
	Reason error
}

func (e *ErrInvalidPattern) Error() string {
	return fmt.Sprintf("invalid pattern %d: %v", e.Index, e.Reason)
}

func (e *ErrInvalidPattern) Unwrap() error { return e.Reason }

// translateQueryError maps query package errors to the public ones.
func translateQueryError(err error) error {
	var pe *query.PatternError
	if errors.As(err, &pe) {
		err = &ErrInvalidPattern{Index: pe.Index, Reason: pe.Err}
	}

	return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
}
