// This file is the Worker API surface: free functions callable from event
// handlers and simulation code running inside a TaskFn. Every function here
// requires ctx to carry an active *Worker (see WithWorker); calling one
// without an active worker is a precondition violation and panics, except
// for the counter increment functions, which fall back to a process-wide
// manager counter instead.
package workerpool

import (
	"context"
	"math"
)

// RunEvent executes event on behalf of the worker carried by ctx, updating
// its clock state around the call.
func RunEvent(ctx context.Context, event Event) {
	w := mustWorker(ctx)
	w.setCurrentTime(event.Time())
	w.closeBootstrapWindowIfElapsed(w.currentTime)
	event.Execute()
	w.lastEventTime = w.currentTime
	w.setCurrentTime(SimTimeInvalid)
}

// ScheduleTask constructs an event running task on host at
// currentTime+nanoDelay and pushes it onto the scheduler. It returns false,
// without scheduling anything, if the scheduler is not currently running.
func ScheduleTask(ctx context.Context, task Task, host Host, nanoDelay SimulationTime) bool {
	w := mustWorker(ctx)
	if !w.pool.manager.SchedulerIsRunning() {
		return false
	}
	if w.currentTime == SimTimeInvalid {
		panic("workerpool: ScheduleTask called outside event execution")
	}
	event := newTaskEvent(task, w.currentTime+nanoDelay, host)
	return w.pool.scheduler.Push(event, host, host)
}

// SendPacket resolves packet's source and destination addresses, applies
// the topology's reliability check (bypassed during bootstrap, for
// zero-length control packets, and whenever the random draw lands within
// reliability), and either schedules delivery or marks the packet dropped.
// Delivery time is currentTime + ceil(latencyMillis * 1e6) nanoseconds.
//
// SendPacket panics (a fatal error, not a recoverable one) if either
// address is unresolvable.
func SendPacket(ctx context.Context, srcHost Host, packet Packet) {
	w := mustWorker(ctx)
	mgr := w.pool.manager
	if !mgr.SchedulerIsRunning() {
		return
	}

	dns := mgr.DNS()
	srcAddr, ok := dns.ResolveIPToAddress(packet.SourceIP())
	if !ok {
		panic("workerpool: SendPacket: unable to resolve source address")
	}
	dstAddr, ok := dns.ResolveIPToAddress(packet.DestinationIP())
	if !ok {
		panic("workerpool: SendPacket: unable to resolve destination address")
	}

	topo := mgr.Topology()
	reliability := topo.Reliability(srcAddr, dstAddr)
	chance := srcHost.Random().NextDouble()

	if w.bootstrapActive || chance <= reliability || packet.PayloadLength() == 0 {
		latencyMillis := topo.LatencyMillis(srcAddr, dstAddr)
		delay := SimulationTime(math.Ceil(latencyMillis * float64(SimTimeOneMillisecond)))
		deliverTime := w.currentTime + delay

		topo.IncrementPathPacketCounter(srcAddr, dstAddr)

		dstHost, ok := w.pool.scheduler.Host(dstAddr.ID())
		if !ok {
			panic("workerpool: SendPacket: destination host not found in scheduler")
		}

		packet.AddDeliveryStatus(PDSInetSent)

		packetCopy := packet.Copy()
		deliverTask := deliverPacketTask(packetCopy)
		event := newTaskEvent(deliverTask, deliverTime, dstHost)
		w.pool.scheduler.Push(event, srcHost, dstHost)
	} else {
		packet.AddDeliveryStatus(PDSInetDropped)
	}
}

// deliverPacketTask adapts a packet delivery into a Task whose Run releases
// the packet's reference once the delivery event executes.
func deliverPacketTask(packet Packet) Task {
	return taskFunc(func(host Host) {
		defer packet.Release()
		router := host.UpstreamRouter(packet.DestinationIP())
		router.Enqueue(host, packet)
	})
}

// taskFunc adapts a plain function into a Task.
type taskFunc func(host Host)

func (f taskFunc) Run(host Host) { f(host) }

// taskEvent adapts a Task into an Event fired at a fixed time against a
// fixed host.
type taskEvent struct {
	task Task
	t    SimulationTime
	host Host
}

func newTaskEvent(task Task, t SimulationTime, host Host) *taskEvent {
	return &taskEvent{task: task, t: t, host: host}
}

func (e *taskEvent) Time() SimulationTime { return e.t }
func (e *taskEvent) Execute()             { e.task.Run(e.host) }

// BootHosts boots each host in order: sets it as the active host, runs its
// execution timer around Boot, then clears the active host.
func BootHosts(ctx context.Context, hosts []Host) {
	w := mustWorker(ctx)
	for _, h := range hosts {
		w.setActiveHost(h)
		w.setCurrentTime(0)
		h.ContinueExecutionTimer()
		h.Boot()
		h.StopExecutionTimer()
		w.setCurrentTime(SimTimeInvalid)
		w.setActiveHost(nil)
	}
}

// Finish frees every host's applications, shuts each host down, and hands
// this worker's accumulated counters off to the manager.
func Finish(ctx context.Context, hosts []Host) {
	w := mustWorker(ctx)
	for _, h := range hosts {
		w.setActiveHost(h)
		h.ContinueExecutionTimer()
		h.FreeAllApplications()
		h.StopExecutionTimer()
		w.setActiveHost(nil)
	}
	for _, h := range hosts {
		w.setActiveHost(h)
		h.Shutdown()
		w.setActiveHost(nil)
	}

	counters := w.pool.manager.Counters()
	counters.AddAllocObjectCounts(w.allocCounter)
	counters.AddDeallocObjectCounts(w.deallocCounter)
	counters.AddSyscallCounts(w.syscallCounter)
}

// ResolveIPToAddress forwards to the manager's DNS.
func ResolveIPToAddress(ctx context.Context, ip uint32) (Address, bool) {
	return mustWorker(ctx).pool.manager.DNS().ResolveIPToAddress(ip)
}

// ResolveNameToAddress forwards to the manager's DNS.
func ResolveNameToAddress(ctx context.Context, name string) (Address, bool) {
	return mustWorker(ctx).pool.manager.DNS().ResolveNameToAddress(name)
}

// GetTopology forwards to the manager.
func GetTopology(ctx context.Context) Topology {
	return mustWorker(ctx).pool.manager.Topology()
}

// GetConfig forwards to the manager's configuration registry.
func GetConfig(ctx context.Context) ConfigOptions {
	return mustWorker(ctx).pool.manager.Config()
}

// UseObjectCounters reports whether object counting is currently enabled,
// per the useObjectCounters config option.
func UseObjectCounters(ctx context.Context) bool {
	return mustWorker(ctx).pool.manager.UseObjectCounters()
}

// GetAffinity returns the CPU the calling worker's current logical
// processor is pinned to.
func GetAffinity(ctx context.Context) int {
	w := mustWorker(ctx)
	lpi := w.pool.lpIndexOf(w.threadID)
	return w.pool.lps.CPUID(lpi)
}

// GetEmulatedTime returns the calling worker's current simulated time
// shifted to the emulated-time epoch.
func GetEmulatedTime(ctx context.Context) EmulatedTime {
	return ToEmulatedTime(mustWorker(ctx).currentTime)
}

// GetNodeBandwidthUp forwards to the manager.
func GetNodeBandwidthUp(ctx context.Context, nodeID, ip uint32) uint32 {
	return mustWorker(ctx).pool.manager.NodeBandwidthUp(nodeID, ip)
}

// GetNodeBandwidthDown forwards to the manager.
func GetNodeBandwidthDown(ctx context.Context, nodeID, ip uint32) uint32 {
	return mustWorker(ctx).pool.manager.NodeBandwidthDown(nodeID, ip)
}

// GetLatency forwards to the manager.
func GetLatency(ctx context.Context, srcNodeID, dstNodeID uint32) float64 {
	return mustWorker(ctx).pool.manager.Latency(srcNodeID, dstNodeID)
}

// UpdateMinTimeJump forwards to the manager.
func UpdateMinTimeJump(ctx context.Context, minPathLatencyMillis float64) {
	mustWorker(ctx).pool.manager.UpdateMinTimeJump(minPathLatencyMillis)
}

// IsFiltered reports whether level is disabled by the manager's logger.
func IsFiltered(ctx context.Context, level LogLevel) bool {
	return !mustWorker(ctx).pool.manager.Logger().LevelEnabled(level)
}

// SetMinEventTimeNextRound records t as a candidate global-next-event time
// for the following round, unless t falls within the current round (t <
// RoundEndTime), in which case it is ignored because the event will run
// this round. Safe without locking: by logical-processor exclusivity, at
// most one worker writes to a given logical processor's slot at a time.
func SetMinEventTimeNextRound(ctx context.Context, t SimulationTime) {
	w := mustWorker(ctx)
	if t < w.roundEndTime {
		return
	}
	lpi := w.pool.lpIndexOf(w.threadID)
	if t < w.pool.minEventTimes[lpi] {
		w.pool.minEventTimes[lpi] = t
	}
}

// IncrementPluginError forwards to the manager.
func IncrementPluginError(ctx context.Context) {
	mustWorker(ctx).pool.manager.IncrementPluginError()
}

// IncrementObjectAllocCounter increments the calling worker's per-object
// allocation counter for name, unless object counting is disabled via the
// useObjectCounters config option, in which case the counter is never
// created and the call is a no-op. Called outside any worker, it falls
// back to mgr's global counter instead of failing.
func IncrementObjectAllocCounter(ctx context.Context, mgr Manager, name string) {
	if !mgr.UseObjectCounters() {
		return
	}
	if w, ok := FromContext(ctx); ok {
		w.incrementAlloc(name)
		return
	}
	mgr.Counters().IncrementGlobalAllocObjectCounter(name)
}

// IncrementObjectDeallocCounter is IncrementObjectAllocCounter's
// deallocation counterpart.
func IncrementObjectDeallocCounter(ctx context.Context, mgr Manager, name string) {
	if !mgr.UseObjectCounters() {
		return
	}
	if w, ok := FromContext(ctx); ok {
		w.incrementDealloc(name)
		return
	}
	mgr.Counters().IncrementGlobalDeallocObjectCounter(name)
}

// AddSyscallCounts merges counts into the calling worker's syscall
// counters, falling back to the manager's global counter when called
// outside any worker.
func AddSyscallCounts(ctx context.Context, mgr Manager, counts map[string]int64) {
	if w, ok := FromContext(ctx); ok {
		w.addSyscallCounts(counts)
		return
	}
	mgr.Counters().AddGlobalSyscallCounts(counts)
}
