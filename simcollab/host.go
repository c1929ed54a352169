package simcollab

import (
	"sync"
	"time"

	"github.com/flowsim/workerpool/workerpool"
)

// Host is a minimal simulated machine: enough state to exercise the worker
// pool's active-host tracking, execution timer, and packet delivery without
// modeling a process tree or network stack.
type Host struct {
	id     uint32
	rand   *RandomSource
	router *Router

	mu       sync.Mutex
	booted   bool
	inbox    []workerpool.Packet
	timerOn  bool
	runSince time.Time
	runTotal time.Duration
}

// NewHost creates a Host identified by id, using rng for packet-drop
// decisions and router to resolve where its outbound packets land.
func NewHost(id uint32, rng *RandomSource, router *Router) *Host {
	return &Host{id: id, rand: rng, router: router}
}

// ID implements workerpool.Host.
func (h *Host) ID() uint32 { return h.id }

// Boot implements workerpool.Host.
func (h *Host) Boot() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.booted = true
}

// Shutdown implements workerpool.Host.
func (h *Host) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.booted = false
}

// FreeAllApplications implements workerpool.Host. There are no applications
// to free in this minimal model; it exists so Host satisfies the interface
// the pool's shutdown path calls.
func (h *Host) FreeAllApplications() {}

// Booted reports whether Boot has been called more recently than Shutdown,
// for tests.
func (h *Host) Booted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.booted
}

// StopExecutionTimer implements workerpool.Host.
func (h *Host) StopExecutionTimer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timerOn {
		h.runTotal += time.Since(h.runSince)
		h.timerOn = false
	}
}

// ContinueExecutionTimer implements workerpool.Host.
func (h *Host) ContinueExecutionTimer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.timerOn {
		h.runSince = time.Now()
		h.timerOn = true
	}
}

// ExecutionTime reports the accumulated wall-clock time this host has spent
// active, for tests.
func (h *Host) ExecutionTime() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := h.runTotal
	if h.timerOn {
		total += time.Since(h.runSince)
	}
	return total
}

// Random implements workerpool.Host.
func (h *Host) Random() workerpool.RandomSource { return h.rand }

// UpstreamRouter implements workerpool.Host. It returns the router the host
// was created with, whatever ip is.
func (h *Host) UpstreamRouter(ip uint32) workerpool.Router { return h.router }

// deliver appends packet to the host's inbox. Only Router calls this.
func (h *Host) deliver(packet workerpool.Packet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbox = append(h.inbox, packet)
}

// Inbox returns every packet delivered to this host so far, for tests. It
// adds no references to the returned handles; a packet delivered by
// SendPacket's delivery task has already had its handle released.
func (h *Host) Inbox() []workerpool.Packet {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]workerpool.Packet, len(h.inbox))
	copy(out, h.inbox)
	return out
}

// Router enqueues delivered packets directly onto the destination host's
// inbox. A real simulator would model queueing delay and bandwidth
// contention here; this one assumes an unconstrained link since the
// scheduler is already responsible for delivery timing.
type Router struct{}

// NewRouter creates a Router.
func NewRouter() *Router { return &Router{} }

// Enqueue implements workerpool.Router.
func (r *Router) Enqueue(host workerpool.Host, packet workerpool.Packet) {
	if h, ok := host.(*Host); ok {
		h.deliver(packet)
		return
	}
	panic("simcollab: Router.Enqueue called with a non-simcollab Host")
}
