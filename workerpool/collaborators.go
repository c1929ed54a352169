package workerpool

// This file declares the external collaborators the worker pool and its
// Worker API surface depend on. The pool does not own or construct these
// objects; package simcollab provides concrete implementations usable both
// in tests and in a hosting CLI.

// Host is a simulated machine. A Worker executes at most one Host's event
// at a time and tracks which Host is currently "active" on the calling
// goroutine.
type Host interface {
	ID() uint32
	Boot()
	Shutdown()
	FreeAllApplications()
	ContinueExecutionTimer()
	StopExecutionTimer()
	// Random returns a source of randomness scoped to this host, used e.g.
	// to decide whether a packet is dropped.
	Random() RandomSource
	// UpstreamRouter returns the router that owns delivery for destination
	// IP ip.
	UpstreamRouter(ip uint32) Router
}

// Router delivers packets to a host's simulated network stack.
type Router interface {
	Enqueue(host Host, packet Packet)
}

// RandomSource draws uniform doubles in [0, 1), scoped to a single host so
// results are reproducible given a fixed seed.
type RandomSource interface {
	NextDouble() float64
}

// DeliveryStatus records what happened to a packet handed to SendPacket.
type DeliveryStatus int

const (
	// PDSInetSent means the packet was scheduled for delivery.
	PDSInetSent DeliveryStatus = iota
	// PDSInetDropped means topology reliability forced a drop.
	PDSInetDropped
)

// Packet is a reference-counted unit of simulated network payload.
type Packet interface {
	SourceIP() uint32
	DestinationIP() uint32
	PayloadLength() int
	AddDeliveryStatus(status DeliveryStatus)
	// Copy returns a new reference-counted handle for the duplicate that
	// travels to the destination host's timeline while the source keeps its
	// original. The new handle may share the original's underlying state.
	Copy() Packet
	// Release drops this handle's reference. Safe to call exactly once per
	// handle obtained from Copy or from the caller of SendPacket.
	Release()
}

// Address is a resolved network address.
type Address interface {
	ID() uint32
}

// DNS resolves hosts by IP or name.
type DNS interface {
	ResolveIPToAddress(ip uint32) (Address, bool)
	ResolveNameToAddress(name string) (Address, bool)
}

// Topology supplies path properties between two resolved addresses.
type Topology interface {
	// Reliability returns the probability, in [0,1], that a packet sent
	// from src to dst arrives.
	Reliability(src, dst Address) float64
	// LatencyMillis returns the one-way latency, in milliseconds, from src
	// to dst.
	LatencyMillis(src, dst Address) float64
	IncrementPathPacketCounter(src, dst Address)
}

// Event is a (time, handler, host) triple managed by the external
// scheduler. Execute runs the handler; the Worker clears its own clock
// state around the call.
type Event interface {
	Time() SimulationTime
	Execute()
}

// Task is a unit of deferred work that can be wrapped into an Event and
// pushed onto the Scheduler.
type Task interface {
	Run(host Host)
}

// Scheduler orders events across hosts and LPs. Push returns false if the
// scheduler has stopped accepting work.
type Scheduler interface {
	Push(event Event, srcHost, dstHost Host) bool
	Host(hostID uint32) (Host, bool)
}

// Logger is the minimal logging surface the Worker API surface forwards to,
// used by IsFiltered and by the pool's warnings (Warnf). This package reports
// fatal errors by panicking; it does not call Fatalf itself.
type Logger interface {
	LevelEnabled(level LogLevel) bool
	Warnf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// LogLevel mirrors the small set of severities worker.c's logger supports.
type LogLevel int

const (
	LogError LogLevel = iota
	LogWarning
	LogInfo
	LogDebug
	LogTrace
)

// Counters aggregates per-worker allocation/deallocation/syscall counts
// handed off at shutdown, and supplies the process-wide fallback counters
// used when a counter increment happens outside any worker (the "soft
// counter" fallback).
type Counters interface {
	AddAllocObjectCounts(counts map[string]int64)
	AddDeallocObjectCounts(counts map[string]int64)
	AddSyscallCounts(counts map[string]int64)
	IncrementGlobalAllocObjectCounter(name string)
	IncrementGlobalDeallocObjectCounter(name string)
	AddGlobalSyscallCounts(counts map[string]int64)
}

// ConfigOptions is the read-only view of the simulation's dynamic
// configuration registry that GetConfig forwards, covering the
// useObjectCounters/parallelism/workers options spec.md §6 names plus
// whatever else a hosting CLI has registered.
type ConfigOptions interface {
	Bool(key string, def bool) bool
	Int(key string, def int) int
	GetSnapshot() map[string]any
}

// Manager is the cross-process aggregation layer and the source of
// configuration the Worker API surface forwards to.
type Manager interface {
	DNS() DNS
	Topology() Topology
	Logger() Logger
	Counters() Counters
	Config() ConfigOptions

	BootstrapEndTime() SimulationTime
	SchedulerIsRunning() bool

	NodeBandwidthUp(nodeID uint32, ip uint32) uint32
	NodeBandwidthDown(nodeID uint32, ip uint32) uint32
	Latency(srcNodeID, dstNodeID uint32) float64
	UpdateMinTimeJump(minPathLatencyMillis float64)
	IncrementPluginError()

	// UseObjectCounters reports the live value of the useObjectCounters
	// config option.
	UseObjectCounters() bool
}
