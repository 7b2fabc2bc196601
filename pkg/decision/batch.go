package decision

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"mercator-hq/metricguard/pkg/guard"
)

// BatchItem is the result of one request in a batch.
type BatchItem struct {
	Index   int      `json:"index"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Err     error    `json:"-"`
}

// EvaluateBatch evaluates requests concurrently, at most concurrency at a
// time (GOMAXPROCS when non-positive). Items are returned in input order and
// carry their own errors; one failing request does not stop the others.
// The returned error is non-nil only if ctx was cancelled.
func (l *Lifecycle) EvaluateBatch(ctx context.Context, reqs []*guard.DecisionRequest, concurrency int) ([]BatchItem, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	items := make([]BatchItem, len(reqs))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, req := range reqs {
		items[i].Index = i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			out, err := l.Evaluate(ctx, req)
			items[i].Outcome = out
			items[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	l.logger.Debug("batch evaluated", "count", len(reqs), "concurrency", concurrency)

	return items, ctx.Err()
}
