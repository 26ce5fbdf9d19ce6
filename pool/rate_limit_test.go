package pool

import (
	"context"
	"testing"
	"time"
)

func TestRunner_RateLimit_BasicThroughput(t *testing.T) {
	runStrategyTest(t, func(t *testing.T, s strategyConfig) {
		// 15 tasks at 10 tasks/sec with a burst of 5: the first 5 are
		// dispatched at once, the remaining 10 take about one second.
		numTasks := 15

		runner, err := NewRunner(runProbe, probes(numTasks), s.opts...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		start := time.Now()
		results, err := runner.Run(context.Background())
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != numTasks {
			t.Fatalf("expected %d results, got %d", numTasks, len(results))
		}

		if expectedMinDuration := 900 * time.Millisecond; elapsed < expectedMinDuration {
			t.Errorf("expected at least %v, got %v (rate limiting not working properly)", expectedMinDuration, elapsed)
		}
		if expectedMaxDuration := 5 * time.Second; elapsed > expectedMaxDuration {
			t.Errorf("took too long: %v (expected less than %v)", elapsed, expectedMaxDuration)
		}
	}, 5, WithRateLimit(10, 5))
}

func TestRunner_RateLimit_BurstBehavior(t *testing.T) {
	runner, err := NewRunner(double, make([]int, 10), WithWorkerCount(10), WithRateLimit(5, 10), WithQuiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The whole input fits in the burst.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("expected burst to dispatch immediately, took %v", elapsed)
	}
}

func TestRunner_RateLimit_WithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	runner, err := NewRunner(double, make([]int, 50), WithWorkerCount(4), WithRateLimit(5, 1), WithQuiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = runner.Run(ctx)
	if err == nil {
		t.Fatal("expected an error once the context expires")
	}
	assertNoLiveWorkers(t)
}
