package pool

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Worker accounting across all runners in the process. Tests use these to
// assert that no worker is created or leaked.
var (
	spawnedWorkers atomic.Int64
	liveWorkers    atomic.Int64
)

// processWithRecovery executes a task with panic recovery.
// If a panic occurs, it's converted to an error to prevent crashing the worker.
func processWithRecovery[T, R any](
	ctx context.Context,
	task T,
	processFn ProcessFunc[T, R],
) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("worker panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	return processFn(ctx, task)
}

// failureMark holds the lowest index of a failed task in one dispatch.
// Tasks above the mark are never started; tasks below it still run.
type failureMark struct {
	index   atomic.Int64
	once    sync.Once
	tripped chan struct{} // closed on the first failure
}

func newFailureMark() *failureMark {
	m := &failureMark{tripped: make(chan struct{})}
	m.index.Store(math.MaxInt64)
	return m
}

// set lowers the mark to idx if idx is below it.
func (m *failureMark) set(idx int) {
	for {
		cur := m.index.Load()
		if int64(idx) >= cur || m.index.CompareAndSwap(cur, int64(idx)) {
			break
		}
	}
	m.once.Do(func() { close(m.tripped) })
}

// after reports whether idx lies above the lowest failure.
func (m *failureMark) after(idx int) bool {
	return int64(idx) > m.index.Load()
}

// feed hands every task, tagged with its index, to the workers through out
// and closes out when done. The limiter, if any, paces the hand-off.
// Feeding stops at the first failure: tasks are fed in index order, so every
// task still unfed lies above the mark.
func feed[T any](
	ctx context.Context,
	tasks []T,
	limiter *rate.Limiter,
	mark *failureMark,
	out chan<- indexedTask[T],
) error {
	defer close(out)

	for idx, task := range tasks {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		select {
		case <-mark.tripped:
			return nil
		default:
		}

		select {
		case out <- indexedTask[T]{index: idx, task: task}:
		case <-mark.tripped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// symbolName returns the linker symbol of fn, e.g.
// "github.com/acme/app/jobs.resize" or "main.init.func1". It is identical in
// every process running the same binary, which makes it the registry key.
func symbolName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return f.Name()
}

// displayName shortens a symbol to its last path element, e.g. "jobs.resize".
func displayName(symbol string) string {
	if i := strings.LastIndexByte(symbol, '/'); i >= 0 {
		symbol = symbol[i+1:]
	}
	if symbol == "" {
		return "<anonymous>"
	}
	return symbol
}

// waitUntil blocks until either the done channel is closed or the timeout is reached.
// It is used during graceful shutdown to wait for workers to complete their tasks.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}

	select {
	case <-d:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
