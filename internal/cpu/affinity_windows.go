//go:build windows

package cpu

import (
	"os/exec"
	"runtime"

	"golang.org/x/sys/windows"
)

var setThreadAffinityMask = windows.NewLazySystemDLL("kernel32.dll").NewProc("SetThreadAffinityMask")

// setMask applies mask to the calling OS thread and returns the mask it
// replaced, or 0 on failure.
func setMask(mask uintptr) uintptr {
	prev, _, _ := setThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	return prev
}

// SetupWorkerAffinity locks the goroutine to an OS thread and pins it to the
// core derived from workerID. The cleanup restores the thread's previous mask
// before unlocking it.
func SetupWorkerAffinity(workerID int) func() {
	runtime.LockOSThread()

	// Bit N = CPU N. Masks only cover the first 64 cores of a processor group.
	core := coreFor(workerID) % 64
	prev := setMask(uintptr(1) << core)

	return func() {
		if prev != 0 {
			setMask(prev)
		}
		runtime.UnlockOSThread()
	}
}

// BindToParent is a no-op on Windows; children exit when their stdin closes.
func BindToParent(*exec.Cmd) {}
