package simcollab

import (
	"sync"

	"github.com/flowsim/workerpool/workerpool"
)

type pathKey struct {
	src, dst uint32
}

// PathProperties configures the reliability and latency of one directed
// path between two addresses.
type PathProperties struct {
	// Reliability is the probability, in [0,1], a sent packet arrives.
	Reliability float64
	// LatencyMillis is the one-way latency in milliseconds.
	LatencyMillis float64
}

// Topology is an in-memory table of path properties between addresses,
// plus a per-path delivered-packet counter.
type Topology struct {
	mu       sync.Mutex
	paths    map[pathKey]PathProperties
	counters map[pathKey]int64
	// Default is used for any path not explicitly configured via SetPath.
	Default PathProperties
}

// NewTopology creates a Topology where every unconfigured path is fully
// reliable with defaultLatencyMillis latency, matching a reasonable LAN
// default for tests that don't care about drop/latency behavior.
func NewTopology(defaultLatencyMillis float64) *Topology {
	return &Topology{
		paths:    make(map[pathKey]PathProperties),
		counters: make(map[pathKey]int64),
		Default:  PathProperties{Reliability: 1.0, LatencyMillis: defaultLatencyMillis},
	}
}

// SetPath configures the reliability and latency from src to dst.
func (t *Topology) SetPath(src, dst workerpool.Address, props PathProperties) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths[pathKey{src.ID(), dst.ID()}] = props
}

func (t *Topology) propsFor(src, dst workerpool.Address) PathProperties {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.paths[pathKey{src.ID(), dst.ID()}]; ok {
		return p
	}
	return t.Default
}

// Reliability implements workerpool.Topology.
func (t *Topology) Reliability(src, dst workerpool.Address) float64 {
	return t.propsFor(src, dst).Reliability
}

// LatencyMillis implements workerpool.Topology.
func (t *Topology) LatencyMillis(src, dst workerpool.Address) float64 {
	return t.propsFor(src, dst).LatencyMillis
}

// IncrementPathPacketCounter implements workerpool.Topology.
func (t *Topology) IncrementPathPacketCounter(src, dst workerpool.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[pathKey{src.ID(), dst.ID()}]++
}

// PathPacketCount reports how many packets IncrementPathPacketCounter has
// recorded for the path from src to dst, for tests.
func (t *Topology) PathPacketCount(src, dst workerpool.Address) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters[pathKey{src.ID(), dst.ID()}]
}
