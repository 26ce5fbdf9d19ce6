package pool

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name      string
		seconds   float64
		precision int
		want      string
		hours     int
		minutes   int
	}{
		{"Zero", 0, 0, "0 s ", 0, 0},
		{"SecondsOnly", 42, 0, "42 s ", 0, 0},
		{"HourMinuteSecond", 3661, 0, "1 h 1 min 1 s ", 1, 1},
		{"HourNoMinutes", 3605, 0, "1 h 5 s ", 1, 0},
		{"ExactMinute", 60, 0, "1 min 0 s ", 0, 1},
		{"Fraction", 75.5, 1, "1 min 15.5 s ", 0, 1},
		{"Precision", 1.23456, 3, "1.235 s ", 0, 0},
		{"ManyHours", 90061, 0, "25 h 1 min 1 s ", 25, 1},
		{"Negative", -5, 0, "0 s ", 0, 0},
		{"NaN", math.NaN(), 0, "0 s ", 0, 0},
		{"NegativeInf", math.Inf(-1), 0, "0 s ", 0, 0},
		{"Inf", math.Inf(1), 0, "2147483647 h 0 s ", math.MaxInt32, 0},
		{"Huge", 1e300, 0, "2147483647 h 0 s ", math.MaxInt32, 0},
		{"AtLimit", MaxDurationSeconds, 0, "2147483647 h 0 s ", math.MaxInt32, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDuration(tt.seconds, tt.precision)
			if got.Text != tt.want {
				t.Errorf("FormatDuration(%v, %d) = %q, want %q", tt.seconds, tt.precision, got.Text, tt.want)
			}
			if got.Hours != tt.hours || got.Minutes != tt.minutes {
				t.Errorf("expected %dh %dmin, got %dh %dmin", tt.hours, tt.minutes, got.Hours, got.Minutes)
			}
			if got.String() != got.Text {
				t.Errorf("String() = %q, want %q", got.String(), got.Text)
			}
		})
	}
}

func TestFormatDuration_Components(t *testing.T) {
	d := FormatDuration(3723.25, 2)
	if d.Hours != 1 || d.Minutes != 2 || math.Abs(d.Seconds-3.25) > 1e-9 {
		t.Errorf("unexpected decomposition %+v", d)
	}

	total := float64(d.Hours)*3600 + float64(d.Minutes)*60 + d.Seconds
	if math.Abs(total-3723.25) > 1e-9 {
		t.Errorf("components sum to %v, want 3723.25", total)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := FormatElapsed(90*time.Second, 0).Text; got != "1 min 30 s " {
		t.Errorf("FormatElapsed(90s) = %q", got)
	}
	if got := FormatElapsed(1500*time.Millisecond, 1).Text; got != "1.5 s " {
		t.Errorf("FormatElapsed(1.5s) = %q", got)
	}
}
