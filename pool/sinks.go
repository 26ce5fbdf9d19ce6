package pool

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
)

// SinkOption configures the sinks built by NewTerminalSink, NewLineSink and NewAutoSink.
type SinkOption func(*sinkConfig)

type sinkConfig struct {
	interval    time.Duration
	workerTable bool
}

// WithInterval sets the minimum time between two lines of a LineSink. The
// final line is always written. Zero writes a line per completed task.
// Defaults to one second.
func WithInterval(d time.Duration) SinkOption {
	return func(cfg *sinkConfig) {
		if d >= 0 {
			cfg.interval = d
		}
	}
}

// WithWorkerTable prints a per-worker table of completed tasks and busy time
// after the elapsed time.
func WithWorkerTable() SinkOption {
	return func(cfg *sinkConfig) {
		cfg.workerTable = true
	}
}

func newSinkConfig(opts ...SinkOption) sinkConfig {
	cfg := sinkConfig{interval: time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewAutoSink returns a TerminalSink when w is an interactive terminal and a
// LineSink otherwise.
func NewAutoSink(w io.Writer, opts ...SinkOption) ProgressSink {
	if isTerminal(w) {
		return NewTerminalSink(w, opts...)
	}
	return NewLineSink(w, opts...)
}

// TerminalSink redraws a single progress line in place.
type TerminalSink struct {
	w    io.Writer
	conf sinkConfig
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
}

// NewTerminalSink returns a sink that draws on w.
func NewTerminalSink(w io.Writer, opts ...SinkOption) *TerminalSink {
	return &TerminalSink{w: w, conf: newSinkConfig(opts...)}
}

func (s *TerminalSink) Start(info RunInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = bold.Fprintln(s.w, headerLine(info))
	_, _ = fmt.Fprintln(s.w, tasksLine(info))

	s.bar = nil
	if info.Tasks == 0 {
		return
	}

	s.bar = progressbar.NewOptions(info.Tasks,
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSetWidth(barWidth(s.w)),
		progressbar.OptionSetDescription("eta -"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
	)
}

func (s *TerminalSink) Update(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar == nil {
		return
	}
	s.bar.Describe(etaText(sample))
	_ = s.bar.Set(sample.Completed)
}

func (s *TerminalSink) Finish(sum Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil {
		_ = s.bar.Finish()
		_, _ = fmt.Fprintln(s.w)
		s.bar = nil
	}

	_, _ = green.Fprintln(s.w, elapsedLine(sum))
	if s.conf.workerTable {
		renderWorkerTable(s.w, sum)
	}
}

// LineSink writes discrete progress lines, for logs and pipes.
type LineSink struct {
	w    io.Writer
	conf sinkConfig
	mu   sync.Mutex
	last time.Time
}

// NewLineSink returns a sink that appends lines to w.
func NewLineSink(w io.Writer, opts ...SinkOption) *LineSink {
	return &LineSink{w: w, conf: newSinkConfig(opts...)}
}

func (s *LineSink) Start(info RunInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = time.Time{}
	_, _ = fmt.Fprintln(s.w, headerLine(info))
	_, _ = fmt.Fprintln(s.w, tasksLine(info))
}

func (s *LineSink) Update(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if sample.Completed < sample.Total && !s.last.IsZero() && now.Sub(s.last) < s.conf.interval {
		return
	}
	s.last = now
	_, _ = fmt.Fprintln(s.w, progressLine(sample))
}

func (s *LineSink) Finish(sum Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintln(s.w, elapsedLine(sum))
	if s.conf.workerTable {
		renderWorkerTable(s.w, sum)
	}
}

func renderWorkerTable(w io.Writer, sum Summary) {
	if len(sum.Workers) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Worker", "Tasks", "Share", "Busy")

	for _, ws := range sum.Workers {
		share := 0.0
		if sum.Tasks > 0 {
			share = float64(ws.Tasks) / float64(sum.Tasks) * 100
		}
		_ = table.Append(
			strconv.Itoa(ws.ID),
			strconv.Itoa(ws.Tasks),
			fmt.Sprintf("%.1f%%", share),
			FormatElapsed(ws.Busy, 2).Text,
		)
	}

	_ = table.Render()
}

var (
	_ ProgressSink = (*TerminalSink)(nil)
	_ ProgressSink = (*LineSink)(nil)
)
