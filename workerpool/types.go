package workerpool

import (
	"context"
	"math"
)

// SimulationTime is nanoseconds since simulation start.
type SimulationTime uint64

const (
	// SimTimeMax is the sentinel meaning "no event": it compares greater
	// than every real simulation time.
	SimTimeMax SimulationTime = math.MaxUint64

	// SimTimeInvalid distinguishes "outside an event" from any real time,
	// including zero.
	SimTimeInvalid SimulationTime = math.MaxUint64 - 1

	// SimTimeOneMillisecond is one millisecond expressed in SimulationTime
	// units (nanoseconds).
	SimTimeOneMillisecond SimulationTime = 1_000_000
)

// EmulatedTime is SimulationTime shifted so that t=0 lands on the Unix
// timestamp of 2000-01-01T00:00:00Z, so application code that assumes the
// world is in a relatively recent time sees a plausible wall-clock value.
type EmulatedTime uint64

// EmulatedTimeOffset is 2000-01-01T00:00:00Z expressed in nanoseconds since
// the Unix epoch.
const EmulatedTimeOffset EmulatedTime = 946684800 * 1_000_000_000

// ToEmulatedTime converts a SimulationTime to the corresponding EmulatedTime.
func ToEmulatedTime(t SimulationTime) EmulatedTime {
	return EmulatedTime(t) + EmulatedTimeOffset
}

// TaskFn is a unit of work dispatched to every logical processor once per
// round. It is responsible for draining whatever unit of work it was given
// from the external scheduler; the pool does not dictate granularity.
//
// ctx carries the calling goroutine's *Worker (see WithWorker/FromContext)
// so the Worker API surface functions in this package can be called from
// within it.
type TaskFn func(ctx context.Context, data any)
