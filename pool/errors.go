package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by every error NewRunner returns.
	ErrConfiguration = errors.New("invalid runner configuration")

	// ErrUnregisteredFunc reports a process-strategy function that was never
	// passed to Register and therefore cannot be found by worker processes.
	ErrUnregisteredFunc = fmt.Errorf("%w: function is not registered for worker processes", ErrConfiguration)

	// ErrMissingInput is returned by Run when neither the runner nor the call
	// provides an input slice.
	ErrMissingInput = errors.New("no input sequence found, please provide one")

	// ErrWorkerExited reports a worker process that stopped answering.
	ErrWorkerExited = errors.New("worker process exited unexpectedly")

	// ErrShutdownTimeout is logged when worker processes do not exit within
	// the configured shutdown timeout and are killed instead.
	ErrShutdownTimeout = errors.New("error in shutting down: timeout reached")
)

// TaskError is a task failure reported by a worker process. The original
// error value cannot cross the process boundary; its message is kept.
type TaskError struct {
	Func     string
	Index    int
	WorkerID int
	Message  string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s) failed in worker process %d: %s", e.Index, e.Func, e.WorkerID, e.Message)
}
