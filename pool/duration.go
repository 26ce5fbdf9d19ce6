package pool

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxDurationSeconds is the largest value FormatDuration renders; larger
// inputs, including +Inf, are clamped to it.
const MaxDurationSeconds = math.MaxInt32 * 3600

// Duration is a number of seconds split into whole hours, whole minutes and
// the remaining seconds, plus its rendering.
type Duration struct {
	Hours   int
	Minutes int
	Seconds float64
	Text    string
}

// String returns d.Text.
func (d Duration) String() string {
	return d.Text
}

// FormatDuration decomposes totalSeconds and renders it as e.g. "1 h 1 min 1 s ".
// The hours and minutes segments are omitted when zero; the seconds segment is
// always present and carries precision fractional digits. Every segment ends
// with a space. Negative values and NaN render as zero; values above
// MaxDurationSeconds render as MaxDurationSeconds.
//
//	FormatDuration(0, 0).Text    // "0 s "
//	FormatDuration(3661, 0).Text // "1 h 1 min 1 s "
//	FormatDuration(75.5, 1).Text // "1 min 15.5 s "
func FormatDuration(totalSeconds float64, precision int) Duration {
	switch {
	case math.IsNaN(totalSeconds) || totalSeconds < 0:
		totalSeconds = 0
	case totalSeconds > MaxDurationSeconds:
		totalSeconds = MaxDurationSeconds
	}
	precision = max(precision, 0)

	hours := math.Floor(totalSeconds / 3600)
	rest := totalSeconds - hours*3600
	minutes := math.Floor(rest / 60)
	seconds := math.Mod(rest, 60)

	var b strings.Builder
	if hours != 0 {
		fmt.Fprintf(&b, "%.0f h ", hours)
	}
	if minutes != 0 {
		fmt.Fprintf(&b, "%.0f min ", minutes)
	}
	fmt.Fprintf(&b, "%.*f s ", precision, seconds)

	return Duration{
		Hours:   int(hours),
		Minutes: int(minutes),
		Seconds: seconds,
		Text:    b.String(),
	}
}

// FormatElapsed is FormatDuration for a time.Duration.
func FormatElapsed(d time.Duration, precision int) Duration {
	return FormatDuration(d.Seconds(), precision)
}
