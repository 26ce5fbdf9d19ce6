// Package pool maps a function over a slice on a pool of workers and returns
// the results in input order, with optional progress and ETA reporting.
//
// The primary type is Runner[T, R]. A Runner holds a function, an optional
// default input slice and configuration. Every run acquires a fresh pool,
// feeds it the tasks, reassembles the results by index and releases the pool
// before returning.
//
// # Basic Usage
//
//	ctx := context.Background()
//	square := func(ctx context.Context, n int) (int, error) { return n * n, nil }
//	runner, err := pool.NewRunner(square, []int{1, 2, 3, 4}, pool.WithWorkerCount(4))
//	if err != nil {
//	    return err
//	}
//	results, err := runner.Run(ctx) // [1 4 9 16]
//
// # Strategies
//
// StrategyThread (the default) runs tasks on worker goroutines. StrategyProcess
// runs them in child processes that re-execute the current binary; tasks and
// results are exchanged as JSON, so both types must round-trip through
// encoding/json and the function must be registered at package level:
//
//	func square(ctx context.Context, n int) (int, error) { return n * n, nil }
//
//	var _ = pool.Register(square)
//
//	func main() {
//	    if pool.ServeWorker() {
//	        return
//	    }
//	    runner, _ := pool.NewRunner(square, nil, pool.WithProcesses())
//	    results, err := runner.RunWith(ctx, pool.Invocation[int, int]{Tasks: inputs})
//	    ...
//	}
//
// # Progress
//
// Unless WithQuiet or Invocation.Quiet is set, a run reports to a
// ProgressSink. The default sink draws a progress bar when its writer is a
// terminal and prints lines otherwise:
//
//	Running main.square in parallel on 4 threads.
//	Number of tasks: 16
//	[025%] 4/16   eta 3 s
//	...
//	Time elapsed: 12 s
//
// The ETA is the mean interval between completions multiplied by the number
// of tasks remaining. Progress counts results in input order, so a slow task
// holds the counter back until it completes.
//
// # Configuration Options
//
//   - WithWorkerCount(n): Number of workers (default: logical CPUs)
//   - WithStrategy(s), WithProcesses(), WithThreads(): Execution strategy
//   - WithTaskBuffer(n): Task channel buffer size (default: worker count)
//   - WithRateLimit(tasksPerSecond, burst): Pace task dispatch
//   - WithProgress(sink), WithOutput(w), WithQuiet(): Progress reporting
//   - WithLogger(l): zap logger for lifecycle events
//   - WithMetrics(reg): Prometheus collectors
//   - WithCPUAffinity(): Pin workers to cores
//   - WithShutdownTimeout(d): Grace period for worker processes
//
// # Error Handling
//
// Runs are fail-fast: after a task fails no task with a higher index is
// started. Tasks below it finish, the pool is torn down and the error of the
// lowest-indexed failed task is returned with no partial results. Panics are converted to errors with stack
// traces. Invalid configuration is reported by NewRunner as ErrConfiguration;
// a run without input returns ErrMissingInput before any worker starts.
package pool
