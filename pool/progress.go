package pool

import (
	"fmt"
	"time"
)

// ProgressSink receives the progress of verbose runs. Start is called once
// before any task is dispatched, Update once per completed task in input
// order, and Finish once after the last task when the run succeeded. A run
// that fails reports only the tasks before the failed one and never calls
// Finish.
//
// A sink shared by a Runner sees the calls of every run of that Runner;
// implementations used with concurrent runs must synchronise themselves.
type ProgressSink interface {
	Start(info RunInfo)
	Update(s Sample)
	Finish(sum Summary)
}

// RunInfo describes a run that is about to start.
type RunInfo struct {
	RunID    string
	FuncName string
	Strategy Strategy
	Workers  int
	Tasks    int
}

// Sample is the progress after one more task completed in input order.
type Sample struct {
	Completed int
	Total     int
	Percent   float64       // Completed / Total * 100
	ETA       time.Duration // mean completion interval * tasks remaining
	HasETA    bool
	Elapsed   time.Duration // run start to this completion
	WorkerID  int           // worker that ran the task
}

// WorkerStat summarises the tasks one worker completed.
type WorkerStat struct {
	ID    int
	Tasks int
	Busy  time.Duration
}

// Summary describes a finished run.
type Summary struct {
	RunID   string
	Tasks   int
	Elapsed time.Duration // run start to last completion
	Workers []WorkerStat
}

func headerLine(info RunInfo) string {
	return fmt.Sprintf("Running %s in parallel on %d %s.",
		info.FuncName, info.Workers, info.Strategy.workerNoun(info.Workers))
}

func tasksLine(info RunInfo) string {
	return fmt.Sprintf("Number of tasks: %d", info.Tasks)
}

func etaText(s Sample) string {
	if !s.HasETA {
		return "eta -"
	}
	return "eta " + FormatElapsed(s.ETA, 0).Text
}

func progressLine(s Sample) string {
	return fmt.Sprintf("[%03.0f%%] %d/%d   %s", s.Percent, s.Completed, s.Total, etaText(s))
}

func elapsedLine(sum Summary) string {
	return "Time elapsed: " + FormatElapsed(sum.Elapsed, 0).Text
}
