//go:build linux

package cpu

import (
	"os/exec"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

// SetupWorkerAffinity locks the goroutine to an OS thread and pins it to the
// core derived from workerID. The cleanup restores the thread's previous
// mask before unlocking it, since the thread goes back to the scheduler.
func SetupWorkerAffinity(workerID int) func() {
	runtime.LockOSThread()

	var prev unix.CPUSet
	saved := unix.SchedGetaffinity(0, &prev) == nil // 0 = current thread

	var mask unix.CPUSet
	mask.Set(coreFor(workerID))
	pinned := unix.SchedSetaffinity(0, &mask) == nil

	return func() {
		if pinned && saved {
			_ = unix.SchedSetaffinity(0, &prev)
		}
		runtime.UnlockOSThread()
	}
}

// BindToParent makes the child of cmd receive SIGKILL when the parent thread
// that started it dies, so worker processes never outlive the pool.
func BindToParent(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Pdeathsig = unix.SIGKILL
}
