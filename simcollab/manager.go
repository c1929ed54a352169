package simcollab

import (
	"sync/atomic"

	"github.com/flowsim/workerpool/workerpool"
)

// Manager is the cross-process aggregation layer: it owns the DNS,
// topology, logger, and counters, plus the small set of config options and
// scheduler-lifecycle state the Worker API surface reads.
type Manager struct {
	dns       *DNS
	topology  *Topology
	logger    *Logger
	counters  *Counters
	config    *ConfigStore
	scheduler *Scheduler

	bootstrapEnd workerpool.SimulationTime

	pluginErrors int64

	bandwidthUp   map[uint32]uint32
	bandwidthDown map[uint32]uint32
}

// NewManager wires together a fresh DNS, Topology, Logger, Counters, and
// ConfigStore around scheduler, with no bootstrap period and object
// counting enabled by default, per spec.md §6's useObjectCounters default.
func NewManager(scheduler *Scheduler, logLevel workerpool.LogLevel) *Manager {
	cfg := NewConfigStore()
	cfg.SetConfig(map[string]any{"useObjectCounters": true})
	return &Manager{
		dns:           NewDNS(),
		topology:      NewTopology(1.0),
		logger:        NewLogger(logLevel),
		counters:      NewCounters(),
		config:        cfg,
		scheduler:     scheduler,
		bandwidthUp:   make(map[uint32]uint32),
		bandwidthDown: make(map[uint32]uint32),
	}
}

// DNS implements workerpool.Manager.
func (m *Manager) DNS() workerpool.DNS { return m.dns }

// Topology implements workerpool.Manager.
func (m *Manager) Topology() workerpool.Topology { return m.topology }

// Logger implements workerpool.Manager.
func (m *Manager) Logger() workerpool.Logger { return m.logger }

// Counters implements workerpool.Manager.
func (m *Manager) Counters() workerpool.Counters { return m.counters }

// BootstrapEndTime implements workerpool.Manager.
func (m *Manager) BootstrapEndTime() workerpool.SimulationTime { return m.bootstrapEnd }

// SetBootstrapEndTime configures the simulation time before which
// SendPacket bypasses the reliability check.
func (m *Manager) SetBootstrapEndTime(t workerpool.SimulationTime) { m.bootstrapEnd = t }

// SchedulerIsRunning implements workerpool.Manager.
func (m *Manager) SchedulerIsRunning() bool { return m.scheduler.Running() }

// SetNodeBandwidth configures the up/down bandwidth, in bytes/sec, reported
// for nodeID.
func (m *Manager) SetNodeBandwidth(nodeID uint32, up, down uint32) {
	m.bandwidthUp[nodeID] = up
	m.bandwidthDown[nodeID] = down
}

// NodeBandwidthUp implements workerpool.Manager.
func (m *Manager) NodeBandwidthUp(nodeID uint32, ip uint32) uint32 {
	return m.bandwidthUp[nodeID]
}

// NodeBandwidthDown implements workerpool.Manager.
func (m *Manager) NodeBandwidthDown(nodeID uint32, ip uint32) uint32 {
	return m.bandwidthDown[nodeID]
}

// Latency implements workerpool.Manager by looking up the path between the
// addresses registered for srcNodeID and dstNodeID in the topology.
func (m *Manager) Latency(srcNodeID, dstNodeID uint32) float64 {
	src, srcOK := m.dns.ResolveIPToAddress(srcNodeID)
	dst, dstOK := m.dns.ResolveIPToAddress(dstNodeID)
	if !srcOK || !dstOK {
		return 0
	}
	return m.topology.LatencyMillis(src, dst)
}

// UpdateMinTimeJump implements workerpool.Manager. This manager doesn't
// track a minimum path latency for bootstrap tuning, so it's a no-op; a
// hosting CLI that cares can replace this Manager with one that does.
func (m *Manager) UpdateMinTimeJump(minPathLatencyMillis float64) {}

// IncrementPluginError implements workerpool.Manager.
func (m *Manager) IncrementPluginError() {
	atomic.AddInt64(&m.pluginErrors, 1)
}

// PluginErrorCount reports the number of IncrementPluginError calls so far,
// for tests.
func (m *Manager) PluginErrorCount() int64 {
	return atomic.LoadInt64(&m.pluginErrors)
}

// UseObjectCounters implements workerpool.Manager.
func (m *Manager) UseObjectCounters() bool {
	return m.config.UseObjectCounters()
}

// Config implements workerpool.Manager.
func (m *Manager) Config() workerpool.ConfigOptions { return m.config }

// ConfigStore exposes the underlying *ConfigStore so callers can flip
// useObjectCounters, parallelism, and workers at runtime, beyond the
// read-only workerpool.ConfigOptions view Config returns.
func (m *Manager) ConfigStore() *ConfigStore { return m.config }

// SchedulerImpl exposes the concrete Scheduler backing this manager, for
// callers that need PopNext/PeekNextTime/Stop beyond the
// workerpool.Scheduler interface.
func (m *Manager) SchedulerImpl() *Scheduler { return m.scheduler }
