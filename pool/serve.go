package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/utkarsh5026/lazypool/internal/cpu"
	"github.com/utkarsh5026/lazypool/internal/wire"
)

// handler is a registered function with its task and result types erased.
type handler func(ctx context.Context, task json.RawMessage) (json.RawMessage, error)

var registry = struct {
	sync.RWMutex
	handlers map[string]handler
}{handlers: make(map[string]handler)}

// Register makes fn available to worker processes and returns it unchanged.
// T and R must round-trip through encoding/json.
//
// Registration must happen in every process running the binary, before
// ServeWorker is called, which in practice means a package-level variable:
//
//	var resize = pool.Register(func(ctx context.Context, path string) (Thumb, error) {
//	    ...
//	})
//
// Functions are keyed by their symbol name, so registering a closure created
// at run time registers its code, not its captured variables.
func Register[T, R any](fn ProcessFunc[T, R]) ProcessFunc[T, R] {
	symbol := symbolName(fn)
	if symbol == "" {
		panic("pool.Register: nil function")
	}

	h := func(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
		var task T
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}

		value, err := processWithRecovery(ctx, task, fn)
		if err != nil {
			return nil, err
		}

		out, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return out, nil
	}

	registry.Lock()
	registry.handlers[symbol] = h
	registry.Unlock()

	return fn
}

func lookup(symbol string) (handler, bool) {
	registry.RLock()
	defer registry.RUnlock()
	h, ok := registry.handlers[symbol]
	return h, ok
}

// IsWorker reports whether this process was started as a pool worker.
func IsWorker() bool {
	return wire.IsWorker()
}

// ServeWorker turns the current process into a pool worker when it was started
// by a process-strategy Runner, and reports whether it did. It returns once
// the parent closes the worker's input; the caller should then exit.
//
// Programs using StrategyProcess call it first thing in main:
//
//	func main() {
//	    if pool.ServeWorker() {
//	        return
//	    }
//	    ...
//	}
//
// Test binaries call it from TestMain.
func ServeWorker() bool {
	if !wire.IsWorker() {
		return false
	}

	if wire.AffinityRequested() {
		defer cpu.SetupWorkerAffinity(wire.WorkerID())()
	}

	// Task output written to stdout would corrupt the protocol.
	proto := os.Stdout
	os.Stdout = os.Stderr
	defer func() { os.Stdout = proto }()

	if err := serveLoop(context.Background(), os.Stdin, proto); err != nil {
		fmt.Fprintf(os.Stderr, "lazypool worker %d: %v\n", wire.WorkerID(), err)
		os.Exit(1)
	}
	return true
}

// serveLoop answers requests read from in until in reaches EOF.
func serveLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	r := wire.NewReader(in)
	w := wire.NewWriter(out)

	for {
		req, err := r.ReadRequest()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := w.WriteResponse(handle(ctx, req)); err != nil {
			return err
		}
	}
}

func handle(ctx context.Context, req *wire.Request) *wire.Response {
	resp := &wire.Response{Index: req.Index}

	h, ok := lookup(req.Func)
	if !ok {
		resp.Error = fmt.Sprintf("function %q is not registered in the worker", req.Func)
		return resp
	}

	start := time.Now()
	value, err := h(ctx, req.Task)
	resp.BusyNS = int64(time.Since(start))

	if err != nil {
		resp.Error = err.Error()
		if resp.Error == "" {
			resp.Error = "task failed"
		}
		return resp
	}
	resp.Value = value
	return resp
}
