// Package eta estimates the time remaining for a fixed number of tasks from the
// timestamps at which they complete.
package eta

import "time"

// Sample is a single completion observation.
type Sample struct {
	Completed int       // 1-based completion index
	At        time.Time // wall-clock time of the completion
}

// Tracker accumulates completion timestamps for one run. The mean interval
// is taken over the full history since start, never a sliding window.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	total   int
	start   time.Time
	history []Sample
	sum     time.Duration // sum of all inter-completion intervals
}

// NewTracker returns a Tracker for total tasks whose clock starts at start.
func NewTracker(total int, start time.Time) *Tracker {
	return &Tracker{
		total:   max(total, 0),
		start:   start,
		history: make([]Sample, 0, max(total, 0)),
	}
}

// Observe records one completion at now and returns it.
func (t *Tracker) Observe(now time.Time) Sample {
	prev := t.start
	if n := len(t.history); n > 0 {
		prev = t.history[n-1].At
	}

	t.sum += now.Sub(prev)
	s := Sample{Completed: len(t.history) + 1, At: now}
	t.history = append(t.history, s)
	return s
}

// Completed returns the number of observed completions.
func (t *Tracker) Completed() int {
	return len(t.history)
}

// Total returns the number of tasks the tracker was created for.
func (t *Tracker) Total() int {
	return t.total
}

// Percent returns completed/total*100. A tracker for zero tasks is always
// complete.
func (t *Tracker) Percent() float64 {
	if t.total == 0 {
		return 100
	}
	return float64(len(t.history)) / float64(t.total) * 100
}

// Mean returns the mean inter-completion interval. The first interval runs
// from start to the first completion. ok is false before any completion.
func (t *Tracker) Mean() (mean time.Duration, ok bool) {
	n := len(t.history)
	if n == 0 {
		return 0, false
	}
	return t.sum / time.Duration(n), true
}

// ETA returns Mean() multiplied by the number of tasks still outstanding.
func (t *Tracker) ETA() (time.Duration, bool) {
	mean, ok := t.Mean()
	if !ok {
		return 0, false
	}
	remaining := max(t.total-len(t.history), 0)
	return mean * time.Duration(remaining), true
}

// Elapsed returns the time from start to the most recent completion, or zero
// when nothing has completed.
func (t *Tracker) Elapsed() time.Duration {
	n := len(t.history)
	if n == 0 {
		return 0
	}
	return t.history[n-1].At.Sub(t.start)
}
