package pool

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/utkarsh5026/lazypool/internal/metrics"
)

// workerPool is the execution capability behind a Runner. A pool is acquired
// for exactly one run and released before the run returns.
type workerPool[T any, R any] interface {
	// dispatch maps j.fn over j.tasks. Completions are sent in whatever order
	// workers finish; the channel is closed once every worker has stopped.
	// After a failed completion no task with a higher index is started. Tasks
	// below it still run and are reported.
	dispatch(ctx context.Context, j *job[T, R]) <-chan Result[R]

	// release tears the pool down: gracefully when failed is false, forcibly
	// otherwise. It returns the first error that stopped a worker, if any.
	// release is idempotent.
	release(failed bool) error
}

// poolDeps are the runner-owned collaborators every pool reports to.
type poolDeps struct {
	conf    *runnerConfig
	workers int
	log     *zap.Logger
	metrics *metrics.Collectors
}

// acquirePool starts a pool of the configured strategy with deps.workers workers.
func acquirePool[T, R any](ctx context.Context, deps poolDeps) (workerPool[T, R], error) {
	switch deps.conf.strategy {
	case StrategyProcess:
		return startProcessPool[T, R](ctx, deps)
	case StrategyThread:
		return newThreadPool[T, R](deps), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrConfiguration, int(deps.conf.strategy))
	}
}

var (
	_ workerPool[int, int] = (*threadPool[int, int])(nil)
	_ workerPool[int, int] = (*processPool[int, int])(nil)
)
