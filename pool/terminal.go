package pool

import (
	"io"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// defaultBarWidth is the progress bar width when the terminal size is unknown.
const defaultBarWidth = 40

// fder is implemented by writers backed by a file descriptor, such as *os.File.
type fder interface {
	Fd() uintptr
}

// isTerminal reports whether w is an interactive terminal.
// This is a variable to allow mocking in tests.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// barWidth sizes the progress bar to leave room for the percentage, count and
// ETA on one terminal line.
func barWidth(w io.Writer) int {
	f, ok := w.(fder)
	if !ok || !isTerminal(w) {
		return defaultBarWidth
	}

	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return defaultBarWidth
	}

	return min(max(cols-50, 10), defaultBarWidth)
}
