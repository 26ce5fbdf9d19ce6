package pool

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStrategy_String(t *testing.T) {
	tests := []struct {
		s    Strategy
		want string
		one  string
		many string
	}{
		{StrategyThread, "thread", "thread", "threads"},
		{StrategyProcess, "process", "process", "processes"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if got := tt.s.workerNoun(1); got != tt.one {
			t.Errorf("workerNoun(1) = %q, want %q", got, tt.one)
		}
		if got := tt.s.workerNoun(3); got != tt.many {
			t.Errorf("workerNoun(3) = %q, want %q", got, tt.many)
		}
	}

	if got := Strategy(9).String(); got != "unknown" {
		t.Errorf("String() of an unknown strategy = %q", got)
	}
}

func TestCreateConfig_Options(t *testing.T) {
	cfg := createConfig(
		WithWorkerCount(3),
		WithShutdownTimeout(time.Second),
		WithShutdownTimeout(-1),
		WithLogger(nil),
		WithName("job"),
		WithCPUAffinity(),
	)
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.workerCount != 3 || cfg.taskBuffer != 3 {
		t.Errorf("expected 3 workers and a buffer of 3, got %d/%d", cfg.workerCount, cfg.taskBuffer)
	}
	if cfg.shutdownTimeout != time.Second {
		t.Errorf("negative shutdown timeout should be ignored, got %v", cfg.shutdownTimeout)
	}
	if cfg.logger == nil {
		t.Error("nil logger should keep the default")
	}
	if cfg.sink == nil {
		t.Error("expected a default progress sink")
	}
	if cfg.rateLimiter != nil {
		t.Error("expected no rate limiter by default")
	}
	if !cfg.affinity || cfg.name != "job" {
		t.Errorf("options not applied: %+v", cfg)
	}
}

func TestRunner_CPUAffinity(t *testing.T) {
	runStrategyTest(t, func(t *testing.T, s strategyConfig) {
		runner, err := NewRunner(double, []int{1, 2, 3, 4}, s.opts...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		results, err := runner.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[3] != 8 {
			t.Errorf("expected 8, got %d", results[3])
		}
	}, 2, WithCPUAffinity())
}

func TestRunner_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	runner, err := NewRunner(double, []int{1, 2}, WithQuiet(), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	started := logs.FilterMessage("run started").All()
	if len(started) != 1 {
		t.Fatalf("expected one 'run started' entry, got %d", len(started))
	}
	fields := started[0].ContextMap()
	if fields["func"] != "pool.double" || fields["strategy"] != "thread" || fields["run_id"] == "" {
		t.Errorf("unexpected fields %v", fields)
	}
	if logs.FilterMessage("run finished").Len() != 1 {
		t.Error("expected a 'run finished' entry")
	}
}
