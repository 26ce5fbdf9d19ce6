// Package wire defines the line-delimited JSON protocol spoken between a pool
// and its worker processes.
//
// The parent writes one Request per line on the child's stdin and reads one
// Response per line from the child's stdout. A child serves requests strictly
// one at a time and exits when its stdin reaches EOF.
package wire

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Environment variables that turn a re-executed binary into a worker.
const (
	EnvWorker   = "LAZYPOOL_WORKER"
	EnvWorkerID = "LAZYPOOL_WORKER_ID"
	EnvAffinity = "LAZYPOOL_AFFINITY"
)

// Request asks a worker to run the registered function Func on Task.
type Request struct {
	Func  string          `json:"func"`
	Index int             `json:"index"`
	Task  json.RawMessage `json:"task"`
}

// Response carries the outcome of one Request. Error is set when the
// function failed; Value is only meaningful when Error is empty.
type Response struct {
	Index  int             `json:"index"`
	Value  json.RawMessage `json:"value,omitempty"`
	Error  string          `json:"error,omitempty"`
	BusyNS int64           `json:"busy_ns"`
}

// Busy returns the time the worker spent inside the function.
func (r *Response) Busy() time.Duration {
	return time.Duration(r.BusyNS)
}

// Failed reports whether the function returned an error or panicked.
func (r *Response) Failed() bool {
	return r.Error != ""
}

// Writer encodes protocol messages, one per line.
type Writer struct {
	enc *json.Encoder
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// WriteRequest encodes r.
func (w *Writer) WriteRequest(r *Request) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("write request %d: %w", r.Index, err)
	}
	return nil
}

// WriteResponse encodes r.
func (w *Writer) WriteResponse(r *Response) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("write response %d: %w", r.Index, err)
	}
	return nil
}

// Reader decodes protocol messages. io.EOF is returned unwrapped so callers
// can tell a clean hang-up from a broken stream.
type Reader struct {
	dec *json.Decoder
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// ReadRequest decodes the next Request.
func (r *Reader) ReadRequest() (*Request, error) {
	var req Request
	if err := r.dec.Decode(&req); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, fmt.Errorf("read request: %w", err)
	}
	return &req, nil
}

// ReadResponse decodes the next Response.
func (r *Reader) ReadResponse() (*Response, error) {
	var resp Response
	if err := r.dec.Decode(&resp); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &resp, nil
}

// WorkerEnv returns the environment entries that mark a child as worker id.
func WorkerEnv(id int, affinity bool) []string {
	env := []string{
		EnvWorker + "=1",
		EnvWorkerID + "=" + strconv.Itoa(id),
	}
	if affinity {
		env = append(env, EnvAffinity+"=1")
	}
	return env
}

// IsWorker reports whether the current process was started by a pool.
func IsWorker() bool {
	return os.Getenv(EnvWorker) == "1"
}

// WorkerID returns the ID assigned by the parent, or -1 when unset.
func WorkerID() int {
	id, err := strconv.Atoi(os.Getenv(EnvWorkerID))
	if err != nil {
		return -1
	}
	return id
}

// AffinityRequested reports whether the parent asked the worker to pin itself.
func AffinityRequested() bool {
	return os.Getenv(EnvAffinity) == "1"
}
