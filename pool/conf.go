package pool

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/lazypool/internal/cpu"
)

// shutdownGrace is the default time worker processes get to exit after their
// input is closed on a successful run.
const shutdownGrace = 10 * time.Second

// Option is a functional option for configuring a Runner.
type Option func(*runnerConfig)

type runnerConfig struct {
	workerCount     int
	strategy        Strategy
	taskBuffer      int
	taskBufferSet   bool
	tasksPerSecond  float64
	burst           int
	rateLimitSet    bool
	rateLimiter     *rate.Limiter
	sink            ProgressSink
	output          io.Writer
	quiet           bool
	logger          *zap.Logger
	registerer      prometheus.Registerer
	affinity        bool
	name            string
	shutdownTimeout time.Duration
}

// WithWorkerCount sets the number of worker goroutines or processes.
// If not specified, defaults to the number of logical CPUs, read once when
// the Runner is created. A count below 1 makes NewRunner fail.
func WithWorkerCount(count int) Option {
	return func(cfg *runnerConfig) {
		cfg.workerCount = count
	}
}

// WithStrategy selects process- or goroutine-based execution.
// If not specified, StrategyThread is used.
func WithStrategy(s Strategy) Option {
	return func(cfg *runnerConfig) {
		cfg.strategy = s
	}
}

// WithProcesses is shorthand for WithStrategy(StrategyProcess).
func WithProcesses() Option {
	return WithStrategy(StrategyProcess)
}

// WithThreads is shorthand for WithStrategy(StrategyThread).
func WithThreads() Option {
	return WithStrategy(StrategyThread)
}

// WithTaskBuffer sets the buffer size of the channel feeding workers.
// If not specified, defaults to the number of workers.
func WithTaskBuffer(size int) Option {
	return func(cfg *runnerConfig) {
		cfg.taskBuffer = size
		cfg.taskBufferSet = true
	}
}

// WithRateLimit caps how fast tasks are handed to workers.
// tasksPerSecond specifies the maximum number of tasks dispatched per second.
// burst specifies the maximum number of tasks that can be dispatched in a burst.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *runnerConfig) {
		cfg.rateLimitSet = true
		cfg.tasksPerSecond = tasksPerSecond
		cfg.burst = burst
	}
}

// WithProgress replaces the default progress sink used when a run is verbose.
func WithProgress(sink ProgressSink) Option {
	return func(cfg *runnerConfig) {
		cfg.sink = sink
	}
}

// WithOutput sets the writer of the default progress sink. Defaults to os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(cfg *runnerConfig) {
		cfg.output = w
	}
}

// WithQuiet disables progress output for every run of the Runner.
func WithQuiet() Option {
	return func(cfg *runnerConfig) {
		cfg.quiet = true
	}
}

// WithLogger sets the structured logger for pool lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *runnerConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithMetrics registers the runner's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(cfg *runnerConfig) {
		cfg.registerer = reg
	}
}

// WithCPUAffinity pins each worker to a CPU core derived from its worker ID.
// Pinning is best effort and a no-op where the platform lacks support.
func WithCPUAffinity() Option {
	return func(cfg *runnerConfig) {
		cfg.affinity = true
	}
}

// WithName overrides the function name shown in progress output.
func WithName(name string) Option {
	return func(cfg *runnerConfig) {
		cfg.name = name
	}
}

// WithShutdownTimeout bounds how long a successful run waits for worker
// processes to exit after their input is closed before killing them.
// Zero waits forever.
func WithShutdownTimeout(d time.Duration) Option {
	return func(cfg *runnerConfig) {
		if d >= 0 {
			cfg.shutdownTimeout = d
		}
	}
}

func createConfig(opts ...Option) *runnerConfig {
	cfg := &runnerConfig{
		workerCount:     cpu.NumCPU(),
		strategy:        StrategyThread,
		output:          os.Stderr,
		logger:          defaultLogger(),
		shutdownTimeout: shutdownGrace,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// validate checks the collected options and fills in derived defaults.
func (cfg *runnerConfig) validate() error {
	if cfg.workerCount < 1 {
		return fmt.Errorf("%w: worker count must be at least 1, got %d", ErrConfiguration, cfg.workerCount)
	}

	switch cfg.strategy {
	case StrategyThread, StrategyProcess:
	default:
		return fmt.Errorf("%w: unknown strategy %d", ErrConfiguration, int(cfg.strategy))
	}

	if !cfg.taskBufferSet {
		cfg.taskBuffer = cfg.workerCount
	}
	if cfg.taskBuffer < 0 {
		return fmt.Errorf("%w: task buffer must not be negative, got %d", ErrConfiguration, cfg.taskBuffer)
	}

	if cfg.rateLimitSet {
		if cfg.tasksPerSecond <= 0 || cfg.burst <= 0 {
			return fmt.Errorf("%w: rate limit needs positive rate and burst, got %v/%d",
				ErrConfiguration, cfg.tasksPerSecond, cfg.burst)
		}
		cfg.rateLimiter = rate.NewLimiter(rate.Limit(cfg.tasksPerSecond), cfg.burst)
	}

	if cfg.sink == nil && !cfg.quiet {
		if cfg.output == nil {
			cfg.output = io.Discard
		}
		cfg.sink = NewAutoSink(cfg.output)
	}

	return nil
}
