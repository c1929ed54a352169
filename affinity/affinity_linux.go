//go:build linux

package affinity

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// platformPin pins the calling OS thread to cpuID using sched_setaffinity.
// The caller must not have yielded the goroutine to another OS thread since
// entering its worker loop; LockOSThread is re-asserted defensively.
func platformPin(cpuID int) error {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)

	// pid 0 means "the calling thread" for SchedSetaffinity.
	return unix.SchedSetaffinity(0, &set)
}

func platformNumCPU() int {
	return runtime.NumCPU()
}

// threadNameMax is PR_SET_NAME's limit, including the trailing NUL, per
// prctl(2).
const threadNameMax = 16

// platformSetThreadName assigns the calling thread's comm field via
// prctl(PR_SET_NAME, ...).
func platformSetThreadName(name string) error {
	if len(name) >= threadNameMax {
		name = name[:threadNameMax-1]
	}
	b := append([]byte(name), 0)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}
