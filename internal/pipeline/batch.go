package pipeline

import (
	"context"
	"sync"
)

// Outcome pairs a request with its result or error.
type Outcome struct {
	Request Request
	Result  Result
	Err     error
}

// RunMany processes reqs with up to jobs runs in flight. Runs are
// independent: one failure does not stop the others. Outcomes are returned
// in request order. Cancelling ctx stops runs that have not started; their
// outcomes carry ctx.Err() wrapped in a *StageError.
func (o *Orchestrator) RunMany(ctx context.Context, reqs []Request, jobs int) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	for i, req := range reqs {
		outcomes[i].Request = req
	}
	if len(reqs) == 0 {
		return outcomes
	}
	if jobs < 1 {
		jobs = 1
	}
	if jobs > len(reqs) {
		jobs = len(reqs)
	}

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				res, err := o.Run(ctx, reqs[idx])
				outcomes[idx].Result = res
				outcomes[idx].Err = err
			}
		}()
	}

	next := 0
feed:
	for ; next < len(reqs); next++ {
		select {
		case queue <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	for idx := next; idx < len(reqs); idx++ {
		outcomes[idx].Err = newStageError(StageExtract, ctx.Err())
	}
	return outcomes
}
