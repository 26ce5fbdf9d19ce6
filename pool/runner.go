package pool

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/utkarsh5026/lazypool/internal/eta"
	"github.com/utkarsh5026/lazypool/internal/metrics"
	"github.com/utkarsh5026/lazypool/internal/ordered"
)

// Runner applies a function to every element of a slice on a pool of workers
// and returns the results in input order.
//
// A Runner holds configuration only. Each run acquires its own pool and
// releases it before returning, so a Runner can be reused and can serve
// concurrent runs.
//
// Type parameters:
//   - T: The input task type
//   - R: The result type
type Runner[T any, R any] struct {
	fn      ProcessFunc[T, R]
	symbol  string
	name    string
	tasks   []T
	conf    *runnerConfig
	metrics *metrics.Collectors
}

// Invocation overrides a Runner's defaults for one run. Zero fields fall
// back to the Runner's configuration.
type Invocation[T any, R any] struct {
	// Func replaces the runner's function.
	Func ProcessFunc[T, R]
	// Name replaces the function name shown in progress output.
	Name string
	// Tasks replaces the runner's input slice. A non-nil empty slice is a
	// valid input of zero tasks.
	Tasks []T
	// Quiet suppresses progress output for this run.
	Quiet bool
}

// NewRunner creates a Runner for fn. tasks is the default input slice and may
// be nil, in which case every run must supply its own.
//
// Default configuration:
//   - strategy: StrategyThread
//   - workers: number of logical CPUs, read once here
//   - taskBuffer: equal to the worker count
//   - progress: NewAutoSink(os.Stderr)
//
// Returns an error wrapping ErrConfiguration if the worker count is below 1,
// another option is invalid, fn is nil, or the strategy is StrategyProcess
// and fn was not registered with Register.
//
// Example:
//
//	runner, err := pool.NewRunner(fetch, urls, pool.WithWorkerCount(16))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pages, err := runner.Run(ctx)
func NewRunner[T any, R any](fn ProcessFunc[T, R], tasks []T, opts ...Option) (*Runner[T, R], error) {
	cfg := createConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if fn == nil {
		return nil, fmt.Errorf("%w: function is nil", ErrConfiguration)
	}

	symbol := symbolName(fn)
	if err := checkRegistered(cfg.strategy, symbol); err != nil {
		return nil, err
	}

	m, err := metrics.New(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("%w: register metrics: %v", ErrConfiguration, err)
	}

	name := cfg.name
	if name == "" {
		name = displayName(symbol)
	}

	return &Runner[T, R]{
		fn:      fn,
		symbol:  symbol,
		name:    name,
		tasks:   tasks,
		conf:    cfg,
		metrics: m,
	}, nil
}

// Workers returns the configured worker count.
func (r *Runner[T, R]) Workers() int {
	return r.conf.workerCount
}

// Strategy returns the configured execution strategy.
func (r *Runner[T, R]) Strategy() Strategy {
	return r.conf.strategy
}

// Run executes the runner's function over its default tasks.
// It is RunWith with an empty Invocation.
func (r *Runner[T, R]) Run(ctx context.Context) ([]R, error) {
	return r.RunWith(ctx, Invocation[T, R]{})
}

// RunWith executes a function over a slice on a fresh pool and returns one
// result per task, in input order.
//
// If any task fails, no results are returned and the error of the failed
// task with the lowest index is returned once the pool has been released.
// After a failure no task with a higher index is started, while tasks below
// it still run to completion so that an earlier failure takes precedence.
// With StrategyThread the error is the function's own error value; with
// StrategyProcess it is a *TaskError. No task is retried and a task that
// never returns stalls the run.
//
// Returns ErrMissingInput, before any worker is created, when neither inv
// nor the runner provides tasks.
func (r *Runner[T, R]) RunWith(ctx context.Context, inv Invocation[T, R]) ([]R, error) {
	fn, symbol, name := r.fn, r.symbol, r.name
	if inv.Func != nil {
		fn = inv.Func
		symbol = symbolName(inv.Func)
		name = displayName(symbol)
	}
	if inv.Name != "" {
		name = inv.Name
	}

	tasks := inv.Tasks
	if tasks == nil {
		tasks = r.tasks
	}
	if tasks == nil {
		return nil, ErrMissingInput
	}

	if err := checkRegistered(r.conf.strategy, symbol); err != nil {
		return nil, err
	}

	var sink ProgressSink
	if !inv.Quiet && !r.conf.quiet {
		sink = r.conf.sink
	}

	info := RunInfo{
		RunID:    uuid.NewString(),
		FuncName: name,
		Strategy: r.conf.strategy,
		Workers:  max(min(r.conf.workerCount, len(tasks)), 1),
		Tasks:    len(tasks),
	}

	log := r.conf.logger.With(
		zap.String("run_id", info.RunID),
		zap.String("func", name),
		zap.Stringer("strategy", info.Strategy),
	)
	log.Debug("run started", zap.Int("workers", info.Workers), zap.Int("tasks", info.Tasks))

	if sink != nil {
		sink.Start(info)
	}

	start := time.Now()
	results, sum, err := r.execute(ctx, info, &job[T, R]{fn: fn, symbol: symbol, tasks: tasks}, start, sink, log)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	r.metrics.RunsTotal.WithLabelValues(info.Strategy.String(), outcome).Inc()

	if err != nil {
		log.Debug("run failed", zap.Duration("after", time.Since(start)), zap.Error(err))
		return nil, err
	}

	log.Debug("run finished", zap.Duration("elapsed", sum.Elapsed))
	if sink != nil {
		sink.Finish(sum)
	}
	return results, nil
}

// execute acquires a pool, collects completions through the ordered buffer
// and releases the pool. Progress is reported per completion in input order.
func (r *Runner[T, R]) execute(
	ctx context.Context,
	info RunInfo,
	j *job[T, R],
	start time.Time,
	sink ProgressSink,
	log *zap.Logger,
) ([]R, Summary, error) {
	results := make([]R, len(j.tasks))
	sum := Summary{RunID: info.RunID, Tasks: len(j.tasks)}
	if len(j.tasks) == 0 {
		return results, sum, nil
	}

	p, err := acquirePool[T, R](ctx, poolDeps{
		conf:    r.conf,
		workers: info.Workers,
		log:     log,
		metrics: r.metrics,
	})
	if err != nil {
		return nil, sum, err
	}

	strategy := info.Strategy.String()
	tracker := eta.NewTracker(len(j.tasks), start)
	buf := ordered.NewBuffer[Result[R]](len(j.tasks))
	stats := make(map[int]*WorkerStat, info.Workers)

	var firstErr error
	firstErrIdx := len(j.tasks)

	for res := range p.dispatch(ctx, j) {
		r.metrics.TaskDuration.WithLabelValues(strategy).Observe(res.Busy.Seconds())

		if res.Error != nil {
			r.metrics.TasksTotal.WithLabelValues(strategy, metrics.OutcomeFailure).Inc()
			if res.Index < firstErrIdx {
				firstErr, firstErrIdx = res.Error, res.Index
			}
		} else {
			r.metrics.TasksTotal.WithLabelValues(strategy, metrics.OutcomeSuccess).Inc()

			ws, ok := stats[res.WorkerID]
			if !ok {
				ws = &WorkerStat{ID: res.WorkerID}
				stats[res.WorkerID] = ws
			}
			ws.Tasks++
			ws.Busy += res.Busy

			for _, item := range buf.Push(res.Index, res) {
				results[item.Index] = item.Value.Value
				tracker.Observe(time.Now())
				if sink != nil {
					sink.Update(sampleOf(tracker, item.Value.WorkerID))
				}
			}
		}

		// Every task before the failed one succeeded, so no other failure
		// can take precedence and the rest of the pool can be torn down.
		if firstErr != nil && buf.Next() == firstErrIdx {
			break
		}
	}

	relErr := p.release(firstErr != nil)

	if firstErr != nil {
		log.Debug("task failed", zap.Int("index", firstErrIdx), zap.Int("delivered", buf.Next()))
		return nil, sum, firstErr
	}
	if relErr != nil {
		return nil, sum, relErr
	}
	if tracker.Completed() != len(j.tasks) || buf.Pending() != 0 {
		return nil, sum, fmt.Errorf("run ended after %d of %d tasks", tracker.Completed(), len(j.tasks))
	}

	sum.Elapsed = tracker.Elapsed()
	sum.Workers = make([]WorkerStat, 0, len(stats))
	for _, ws := range stats {
		sum.Workers = append(sum.Workers, *ws)
	}
	slices.SortFunc(sum.Workers, func(a, b WorkerStat) int { return a.ID - b.ID })

	return results, sum, nil
}

func sampleOf(t *eta.Tracker, workerID int) Sample {
	remaining, ok := t.ETA()
	return Sample{
		Completed: t.Completed(),
		Total:     t.Total(),
		Percent:   t.Percent(),
		ETA:       remaining,
		HasETA:    ok,
		Elapsed:   t.Elapsed(),
		WorkerID:  workerID,
	}
}

// checkRegistered rejects process-strategy functions unknown to the registry.
func checkRegistered(s Strategy, symbol string) error {
	if s != StrategyProcess {
		return nil
	}
	if _, ok := lookup(symbol); !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredFunc, displayName(symbol))
	}
	return nil
}
