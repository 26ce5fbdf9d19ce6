//go:build !linux && !windows

package cpu

import (
	"os/exec"
	"runtime"
)

// SetupWorkerAffinity only wires the goroutine to an OS thread here; there is
// no portable per-thread CPU mask on macOS or the BSDs, so workerID is unused.
func SetupWorkerAffinity(int) func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}

// BindToParent does nothing without a parent-death signal. Orphaned children
// still exit once their stdin reaches EOF.
func BindToParent(*exec.Cmd) {}
