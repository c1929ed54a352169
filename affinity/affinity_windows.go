//go:build windows

package affinity

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = modkernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread      = modkernel32.NewProc("GetCurrentThread")
	procSetThreadDescription  = modkernel32.NewProc("SetThreadDescription")
)

// platformPin pins the calling OS thread to cpuID via SetThreadAffinityMask.
func platformPin(cpuID int) error {
	runtime.LockOSThread()

	handle, _, _ := procGetCurrentThread.Call()
	mask := uintptr(1) << uint(cpuID)
	old, _, err := procSetThreadAffinityMask.Call(handle, mask)
	if old == 0 {
		return fmt.Errorf("affinity: SetThreadAffinityMask: %w", err)
	}
	return nil
}

func platformNumCPU() int {
	return runtime.NumCPU()
}

// platformSetThreadName assigns the calling thread's description via
// SetThreadDescription (available since Windows 10 1607; on older Windows
// the lazy-bound proc resolves to a failing call, which the caller treats
// as a non-fatal warning like any other naming failure).
func platformSetThreadName(name string) error {
	handle, _, _ := procGetCurrentThread.Call()
	utf16Name, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return fmt.Errorf("affinity: SetThreadDescription: %w", err)
	}
	hr, _, _ := procSetThreadDescription.Call(handle, uintptr(unsafe.Pointer(utf16Name)))
	if hr&0x80000000 != 0 {
		return fmt.Errorf("affinity: SetThreadDescription: HRESULT 0x%x", hr)
	}
	return nil
}
