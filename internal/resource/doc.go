// Package resource bounds the resources consumed by query evaluation.
//
// A Controller manages three limits:
//
//   - Memory: a budget for loaded indexes (non-blocking, fail-fast)
//   - Concurrency: the number of queries evaluated at once (weighted semaphore)
//   - Rate: the number of queries started per second (token bucket)
//
// A nil *Controller imposes no limits, so callers never need to check for
// one:
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentQueries: 4,
//	    QueriesPerSecond:     100,
//	})
//
//	if err := rc.AcquireQuery(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseQuery()
package resource
