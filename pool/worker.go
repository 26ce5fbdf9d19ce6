package pool

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/lazypool/internal/cpu"
)

// threadPool runs tasks on worker goroutines that share one task channel.
type threadPool[T any, R any] struct {
	deps   poolDeps
	mark   *failureMark
	cancel context.CancelFunc // cancels the context every task runs with
	done   chan struct{}      // closed when every worker and the feeder have returned
	err    error              // first worker error; written before done is closed
}

func newThreadPool[T, R any](deps poolDeps) *threadPool[T, R] {
	return &threadPool[T, R]{deps: deps}
}

func (p *threadPool[T, R]) dispatch(ctx context.Context, j *job[T, R]) <-chan Result[R] {
	out := make(chan Result[R], len(j.tasks))
	taskChan := make(chan indexedTask[T], p.deps.conf.taskBuffer)
	p.mark = newFailureMark()
	p.done = make(chan struct{})

	ctx, p.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	for id := range p.deps.workers {
		g.Go(func() error {
			return p.worker(gctx, id, taskChan, out, j)
		})
	}

	g.Go(func() error {
		return feed(gctx, j.tasks, p.deps.conf.rateLimiter, p.mark, taskChan)
	})

	go func() {
		p.err = g.Wait()
		close(out)
		close(p.done)
	}()

	return out
}

// release waits for the workers to return. Goroutines cannot be killed, so a
// forced release cancels the context of in-flight tasks and still waits for
// them.
func (p *threadPool[T, R]) release(failed bool) error {
	if p.done == nil {
		return nil
	}
	if failed {
		p.cancel()
	}
	<-p.done
	p.cancel()
	return p.err
}

// worker is the core worker function that processes tasks from the task channel.
// It includes panic recovery to prevent a single task from crashing the entire pool.
func (p *threadPool[T, R]) worker(
	ctx context.Context,
	id int,
	taskChan <-chan indexedTask[T],
	out chan<- Result[R],
	j *job[T, R],
) error {
	spawnedWorkers.Add(1)
	liveWorkers.Add(1)
	gauge := p.deps.metrics.LiveWorkers.WithLabelValues(StrategyThread.String())
	gauge.Inc()
	defer func() {
		gauge.Dec()
		liveWorkers.Add(-1)
	}()

	if p.deps.conf.affinity {
		defer cpu.SetupWorkerAffinity(id)()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case t, ok := <-taskChan:
			if !ok {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if p.mark.after(t.index) {
				continue
			}

			start := time.Now()
			value, err := processWithRecovery(ctx, t.task, j.fn)
			if err != nil && ctx.Err() != nil && isCancellation(err) {
				// Aborted by the caller or by a forced release, not a task result.
				return err
			}
			if err != nil {
				p.mark.set(t.index)
				p.deps.log.Debug("task failed", zap.Int("index", t.index), zap.Int("worker", id), zap.Error(err))
			}

			out <- Result[R]{Value: value, Error: err, Index: t.index, WorkerID: id, Busy: time.Since(start)}
		}
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
