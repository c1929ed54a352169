// Package affinity pins OS threads to logical CPUs.
//
// The worker pool uses this package to bind a worker's native thread to
// whichever CPU its currently-assigned logical processor owns, and to move
// that binding when the worker migrates to a different logical processor.
// Platform-specific pinning lives in affinity_linux.go / affinity_windows.go;
// everything else falls back to the no-op in affinity_stub.go.
package affinity

// Unset marks a logical processor with no assigned CPU, or a worker that
// hasn't been pinned yet.
const Unset = -1

// Pin binds the calling OS thread to newCPU. oldCPU lets Pin skip the
// syscall when newCPU == oldCPU; it carries no other meaning. Pin is a no-op (never an error) on platforms
// without affinity support, and whenever newCPU is Unset.
func Pin(newCPU, oldCPU int) error {
	if newCPU == Unset {
		return nil
	}
	if newCPU == oldCPU {
		return nil
	}
	return platformPin(newCPU)
}

// NumCPU returns the number of logical CPUs visible to this process, used to
// size the default logical-processor-to-CPU map.
func NumCPU() int {
	return platformNumCPU()
}

// SetThreadName assigns a debug name to the calling OS thread, truncated to
// whatever length the platform allows. Failure is never fatal — callers
// should log it as a warning, per the worker pool's error-handling policy
// for this operation — and it is a no-op on platforms without a naming
// syscall.
func SetThreadName(name string) error {
	return platformSetThreadName(name)
}
