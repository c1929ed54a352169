package simcollab

import (
	"sync"

	"github.com/flowsim/workerpool/workerpool"
)

// packetState is the shared, reference-counted payload behind every Packet
// handle returned by Copy. Only the byte count travels — the simulator
// never looks at packet contents.
type packetState struct {
	mu            sync.Mutex
	refs          int
	srcIP, dstIP  uint32
	payloadLength int
	statuses      []workerpool.DeliveryStatus
}

// Packet is a reference-counted handle onto a packetState. NewPacket
// returns the first handle with one reference; Copy adds another.
type Packet struct {
	state *packetState
}

// NewPacket creates a fresh packet with one reference, addressed from
// srcIP to dstIP and carrying payloadLength bytes.
func NewPacket(srcIP, dstIP uint32, payloadLength int) Packet {
	return Packet{state: &packetState{
		refs:          1,
		srcIP:         srcIP,
		dstIP:         dstIP,
		payloadLength: payloadLength,
	}}
}

// SourceIP implements workerpool.Packet.
func (p Packet) SourceIP() uint32 { return p.state.srcIP }

// DestinationIP implements workerpool.Packet.
func (p Packet) DestinationIP() uint32 { return p.state.dstIP }

// PayloadLength implements workerpool.Packet.
func (p Packet) PayloadLength() int { return p.state.payloadLength }

// AddDeliveryStatus implements workerpool.Packet.
func (p Packet) AddDeliveryStatus(status workerpool.DeliveryStatus) {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	p.state.statuses = append(p.state.statuses, status)
}

// Statuses returns a snapshot of every delivery status recorded so far, for
// tests.
func (p Packet) Statuses() []workerpool.DeliveryStatus {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	out := make([]workerpool.DeliveryStatus, len(p.state.statuses))
	copy(out, p.state.statuses)
	return out
}

// Copy implements workerpool.Packet: it returns a new handle onto the same
// underlying state, bumping the reference count.
func (p Packet) Copy() workerpool.Packet {
	p.state.mu.Lock()
	p.state.refs++
	p.state.mu.Unlock()
	return Packet{state: p.state}
}

// Release implements workerpool.Packet. It panics if called more times than
// handles were ever issued for this packet, matching the C original's
// refcount-underflow assertion.
func (p Packet) Release() {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	if p.state.refs <= 0 {
		panic("simcollab: Packet released more times than it was referenced")
	}
	p.state.refs--
}

// RefCount reports the current reference count, for tests.
func (p Packet) RefCount() int {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	return p.state.refs
}
