package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/lazypool/internal/cpu"
	"github.com/utkarsh5026/lazypool/internal/wire"
)

// procWorker is one child process and the pipes used to talk to it.
type procWorker struct {
	id     int
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *wire.Writer
	reader *wire.Reader
	exited chan struct{} // closed once cmd.Wait has returned
}

// processPool runs tasks in child processes of the current executable. Each
// child is driven by one dispatcher goroutine that sends a request and waits
// for its response before taking the next task.
type processPool[T any, R any] struct {
	deps    poolDeps
	workers []*procWorker
	ctx     context.Context    // parent of every child; done once they are being killed
	cancel  context.CancelFunc // kills every child still running
	mark    *failureMark

	done chan struct{} // closed when every dispatcher and the feeder have returned
	err  error

	once   sync.Once
	relErr error
}

// startProcessPool starts deps.workers children. If any child fails to
// start, the ones already running are killed.
func startProcessPool[T, R any](ctx context.Context, deps poolDeps) (*processPool[T, R], error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable for worker processes: %w", err)
	}

	pctx, cancel := context.WithCancel(ctx)
	p := &processPool[T, R]{
		deps:   deps,
		ctx:    pctx,
		cancel: cancel,
	}

	for id := range deps.workers {
		w, err := p.spawn(pctx, exe, id)
		if err != nil {
			_ = p.release(true)
			return nil, err
		}
		p.workers = append(p.workers, w)
	}

	return p, nil
}

func (p *processPool[T, R]) spawn(ctx context.Context, exe string, id int) (*procWorker, error) {
	cmd := exec.CommandContext(ctx, exe)
	cmd.Env = append(os.Environ(), wire.WorkerEnv(id, p.deps.conf.affinity)...)
	cmd.Stderr = os.Stderr
	cpu.BindToParent(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %d stdin: %w", id, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %d stdout: %w", id, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %d: %w", id, err)
	}

	spawnedWorkers.Add(1)
	liveWorkers.Add(1)
	p.deps.metrics.LiveWorkers.WithLabelValues(StrategyProcess.String()).Inc()
	p.deps.log.Debug("worker process started", zap.Int("worker", id), zap.Int("pid", cmd.Process.Pid))

	return &procWorker{
		id:     id,
		cmd:    cmd,
		stdin:  stdin,
		writer: wire.NewWriter(stdin),
		reader: wire.NewReader(stdout),
		exited: make(chan struct{}),
	}, nil
}

func (p *processPool[T, R]) dispatch(ctx context.Context, j *job[T, R]) <-chan Result[R] {
	out := make(chan Result[R], len(j.tasks))
	taskChan := make(chan indexedTask[T], p.deps.conf.taskBuffer)
	p.mark = newFailureMark()
	p.done = make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)

	for _, w := range p.workers {
		g.Go(func() error {
			return p.serve(gctx, w, taskChan, out, j)
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

// serve forwards tasks to one child until the task channel is drained.
// A failed task marks the run and the child keeps serving tasks below the
// mark. A child that dies mid-task reports that task as failed and stops its
// dispatcher, unless the pool itself or the caller killed it.
func (p *processPool[T, R]) serve(
	ctx context.Context,
	w *procWorker,
	taskChan <-chan indexedTask[T],
	out chan<- Result[R],
	j *job[T, R],
) error {
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

			res, err := p.roundTrip(w, t, j)
			if err != nil {
				if cerr := p.ctx.Err(); cerr != nil {
					return cerr
				}
				res.Error = err
			}

			if res.Error != nil {
				p.mark.set(t.index)
				p.deps.log.Debug("task failed",
					zap.Int("index", t.index), zap.Int("worker", w.id), zap.Error(res.Error))
			}
			out <- res

			if err != nil {
				return nil
			}
		}
	}
}

// roundTrip runs one task on w. A non-nil error means the child is unusable;
// task-level failures are reported in Result.Error instead.
func (p *processPool[T, R]) roundTrip(w *procWorker, t indexedTask[T], j *job[T, R]) (Result[R], error) {
	res := Result[R]{Index: t.index, WorkerID: w.id}

	payload, err := json.Marshal(t.task)
	if err != nil {
		res.Error = fmt.Errorf("encode task %d: %w", t.index, err)
		return res, nil
	}

	req := &wire.Request{Func: j.symbol, Index: t.index, Task: payload}
	if err := w.writer.WriteRequest(req); err != nil {
		return res, fmt.Errorf("%w: worker %d: %v", ErrWorkerExited, w.id, err)
	}

	resp, err := w.reader.ReadResponse()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, fmt.Errorf("%w: worker %d closed its output", ErrWorkerExited, w.id)
		}
		return res, fmt.Errorf("%w: worker %d: %v", ErrWorkerExited, w.id, err)
	}
	if resp.Index != t.index {
		return res, fmt.Errorf("worker %d answered task %d while running task %d", w.id, resp.Index, t.index)
	}

	res.Busy = resp.Busy()
	if resp.Failed() {
		res.Error = &TaskError{
			Func:     displayName(j.symbol),
			Index:    t.index,
			WorkerID: w.id,
			Message:  resp.Error,
		}
		return res, nil
	}

	if err := json.Unmarshal(resp.Value, &res.Value); err != nil {
		res.Error = fmt.Errorf("decode result %d: %w", t.index, err)
	}
	return res, nil
}

// release waits for the dispatchers, then closes every child's stdin and
// waits for it to exit. A forced release, or a child that outlives the
// shutdown timeout, is killed instead.
func (p *processPool[T, R]) release(failed bool) error {
	p.once.Do(func() {
		if failed {
			p.cancel()
		}

		if p.done != nil {
			<-p.done
			p.relErr = p.err
		}

		for _, w := range p.workers {
			_ = w.stdin.Close()
			go func() {
				err := w.cmd.Wait()
				if err != nil && !failed {
					p.deps.log.Warn("worker process exited with error", zap.Int("worker", w.id), zap.Error(err))
				}
				close(w.exited)
			}()
		}

		for _, w := range p.workers {
			if err := waitUntil(w.exited, p.deps.conf.shutdownTimeout); err != nil {
				p.deps.log.Warn("killing worker process", zap.Int("worker", w.id), zap.Error(err))
				p.cancel()
				<-w.exited
			}

			liveWorkers.Add(-1)
			p.deps.metrics.LiveWorkers.WithLabelValues(StrategyProcess.String()).Dec()
			p.deps.log.Debug("worker process exited", zap.Int("worker", w.id))
		}

		p.cancel()
	})

	return p.relErr
}
