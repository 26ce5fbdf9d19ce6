package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/utkarsh5026/lazypool/internal/wire"
)

func TestServeLoop(t *testing.T) {
	var in bytes.Buffer
	w := wire.NewWriter(&in)

	requests := []*wire.Request{
		{Func: symbolName(runProbe), Index: 0, Task: json.RawMessage(`{"n":7}`)},
		{Func: symbolName(runProbe), Index: 1, Task: json.RawMessage(`{"n":2,"fail":true}`)},
		{Func: "nowhere.missing", Index: 2, Task: json.RawMessage(`{}`)},
		{Func: symbolName(double), Index: 3, Task: json.RawMessage(`"not a number"`)},
	}
	for _, req := range requests {
		if err := w.WriteRequest(req); err != nil {
			t.Fatalf("write request: %v", err)
		}
	}

	var out bytes.Buffer
	if err := serveLoop(context.Background(), &in, &out); err != nil {
		t.Fatalf("serveLoop: %v", err)
	}

	r := wire.NewReader(&out)
	var responses []*wire.Response
	for {
		resp, err := r.ReadResponse()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		responses = append(responses, resp)
	}

	if len(responses) != len(requests) {
		t.Fatalf("expected %d responses, got %d", len(requests), len(responses))
	}

	if responses[0].Failed() || string(responses[0].Value) != "49" {
		t.Errorf("expected value 49, got %+v", responses[0])
	}
	if responses[1].Error != "probe 2 failed" {
		t.Errorf("expected 'probe 2 failed', got %q", responses[1].Error)
	}
	if !strings.Contains(responses[2].Error, "not registered") {
		t.Errorf("expected unregistered error, got %q", responses[2].Error)
	}
	if !strings.Contains(responses[3].Error, "decode task") {
		t.Errorf("expected decode error, got %q", responses[3].Error)
	}
	for i, resp := range responses {
		if resp.Index != i {
			t.Errorf("response %d carries index %d", i, resp.Index)
		}
	}
}

func TestServeLoop_MalformedRequest(t *testing.T) {
	in := strings.NewReader("{not json}\n")
	if err := serveLoop(context.Background(), in, io.Discard); err == nil {
		t.Error("expected error for a malformed request")
	}
}

func blankError(context.Context, int) (int, error) {
	return 0, errors.New("")
}

func TestHandle_EmptyErrorMessage(t *testing.T) {
	Register(blankError)

	resp := handle(context.Background(), &wire.Request{Func: symbolName(blankError), Index: 4, Task: json.RawMessage(`1`)})
	if !resp.Failed() || resp.Error != "task failed" {
		t.Errorf("expected a failed response with a placeholder message, got %+v", resp)
	}
}

func TestRegister_NilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Register(nil) to panic")
		}
	}()
	Register[int, int](nil)
}

func TestServeWorker_NotAWorker(t *testing.T) {
	if IsWorker() {
		t.Skip("running inside a worker process")
	}
	if ServeWorker() {
		t.Error("ServeWorker served outside a worker process")
	}
}

func TestSymbolNames(t *testing.T) {
	symbol := symbolName(runProbe)
	if !strings.HasSuffix(symbol, "/pool.runProbe") {
		t.Errorf("unexpected symbol %q", symbol)
	}
	if got := displayName(symbol); got != "pool.runProbe" {
		t.Errorf("displayName(%q) = %q", symbol, got)
	}
	if got := displayName(""); got != "<anonymous>" {
		t.Errorf("displayName(\"\") = %q", got)
	}
	if got := symbolName(nil); got != "" {
		t.Errorf("symbolName(nil) = %q", got)
	}
}

func TestProcessStrategy_TaskError(t *testing.T) {
	tasks := probes(3)
	tasks[2].Fail = true

	runner, err := NewRunner(runProbe, tasks, WithProcesses(), WithWorkerCount(1), WithQuiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = runner.Run(context.Background())
	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected *TaskError, got %v", err)
	}
	if taskErr.Func != "pool.runProbe" || taskErr.WorkerID != 0 || taskErr.Index != 2 {
		t.Errorf("unexpected task error %+v", taskErr)
	}
	assertNoLiveWorkers(t)
}

func TestProcessStrategy_UnencodableResult(t *testing.T) {
	runner, err := NewRunner(unencodable, []int{1}, WithProcesses(), WithWorkerCount(1), WithQuiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "encode result") {
		t.Errorf("expected an encode error, got %v", err)
	}
	assertNoLiveWorkers(t)
}

func unencodable(context.Context, int) (chan int, error) {
	return make(chan int), nil
}

var _ = Register(unencodable)
