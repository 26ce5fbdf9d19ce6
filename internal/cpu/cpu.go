// Package cpu exposes host CPU information and per-worker placement helpers.
package cpu

import "runtime"

// NumCPU returns the number of logical CPUs usable by the current process.
// Callers that need a stable value should read it once and keep it.
func NumCPU() int {
	return max(runtime.NumCPU(), 1)
}

// coreFor maps a worker ID onto a core index in [0, NumCPU()-1].
func coreFor(workerID int) int {
	n := NumCPU()
	if workerID < 0 {
		workerID = -workerID
	}
	return workerID % n
}
