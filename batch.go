package simring

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/simring/query"
)

// QueryBatch evaluates qs concurrently, bounded by WithMaxConcurrentQueries
// and paced by WithQueryRate. Results are returned in input order. The first
// error cancels the remaining queries.
func (db *DB) QueryBatch(ctx context.Context, qs []*query.Query, optFns ...QueryOption) ([]*Result, error) {
	if !db.ready() {
		return nil, ErrIndexNotBuilt
	}

	results := make([]*Result, len(qs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(db.rc.MaxConcurrentQueries()))

	for i, q := range qs {
		g.Go(func() error {
			res, err := db.Query(gctx, q, optFns...)
			if err != nil {
				return err
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
