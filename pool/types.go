package pool

import (
	"context"
	"time"
)

// ProcessFunc is a function type that defines how individual tasks are processed by a Runner.
// It takes a context and a task of type T, returning a result of type R.
// A returned error fails the whole run; no other task result is returned to the caller.
//
// Type parameters:
//   - T: The type of input task to be processed
//   - R: The type of result produced after processing
type ProcessFunc[T any, R any] func(ctx context.Context, task T) (R, error)

// Result is the completion of a single task as reported by a worker.
// Completions arrive in any order; Index restores the input order.
//
// Fields:
//   - Value: The result produced by processing the task (only valid if Error is nil)
//   - Error: Any error that occurred during task processing (nil if successful)
//   - Index: The original position of the task in the input slice
//   - WorkerID: The worker goroutine or process that ran the task
//   - Busy: Time spent inside the task function
type Result[R any] struct {
	Value    R
	Error    error
	Index    int
	WorkerID int
	Busy     time.Duration
}

// Strategy selects how a Runner executes tasks.
type Strategy int

const (
	// StrategyThread runs tasks on worker goroutines sharing the caller's
	// memory. Goroutines are scheduled over GOMAXPROCS OS threads, so both
	// CPU-bound and blocking work run in parallel.
	StrategyThread Strategy = iota

	// StrategyProcess runs tasks in worker OS processes that re-execute the
	// current binary. Tasks and results cross the process boundary as JSON
	// and the function must be registered with Register.
	StrategyProcess
)

// String returns "thread" or "process".
func (s Strategy) String() string {
	switch s {
	case StrategyThread:
		return "thread"
	case StrategyProcess:
		return "process"
	default:
		return "unknown"
	}
}

// workerNoun names the strategy's workers in console output.
func (s Strategy) workerNoun(n int) string {
	noun := "thread"
	if s == StrategyProcess {
		noun = "process"
	}
	if n == 1 {
		return noun
	}
	if s == StrategyProcess {
		return noun + "es"
	}
	return noun + "s"
}

// indexedTask wraps a task with its original index
type indexedTask[T any] struct {
	index int
	task  T
}

// job is everything a pool needs to map one function over one slice.
type job[T any, R any] struct {
	fn     ProcessFunc[T, R]
	symbol string // registry key, used by the process strategy
	tasks  []T
}
