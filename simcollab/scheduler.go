package simcollab

import (
	"container/heap"
	"sync"

	"github.com/flowsim/workerpool/workerpool"
)

// eventEntry pairs a scheduled event with a monotonic sequence number, used
// as a deterministic tie-breaker between events sharing the same time.
type eventEntry struct {
	event workerpool.Event
	seq   uint64
}

// eventHeap implements container/heap.Interface ordered by (time, seq).
type eventHeap []eventEntry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].event.Time() != h[j].event.Time() {
		return h[i].event.Time() < h[j].event.Time()
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(eventEntry)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is a min-heap of pending events ordered by time, guarded by a
// mutex since multiple worker goroutines push onto it concurrently during a
// round.
type Scheduler struct {
	mu      sync.Mutex
	heap    eventHeap
	nextSeq uint64
	running bool
	hosts   map[uint32]workerpool.Host
}

// NewScheduler creates an empty, running Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{running: true, hosts: make(map[uint32]workerpool.Host)}
}

// RegisterHost makes host lookupable by ID via Host.
func (s *Scheduler) RegisterHost(host workerpool.Host) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[host.ID()] = host
}

// Host implements workerpool.Scheduler.
func (s *Scheduler) Host(hostID uint32) (workerpool.Host, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hosts[hostID]
	return h, ok
}

// Push implements workerpool.Scheduler. srcHost and dstHost are accepted to
// satisfy the interface; this scheduler doesn't partition events by host
// pair, so both are ignored.
func (s *Scheduler) Push(event workerpool.Event, srcHost, dstHost workerpool.Host) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	heap.Push(&s.heap, eventEntry{event: event, seq: s.nextSeq})
	s.nextSeq++
	return true
}

// PopNext removes and returns the earliest pending event, or nil if the
// heap is empty.
func (s *Scheduler) PopNext() workerpool.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heap.Len() == 0 {
		return nil
	}
	return heap.Pop(&s.heap).(eventEntry).event
}

// PeekNextTime returns the earliest pending event's time, or
// workerpool.SimTimeMax if the heap is empty.
func (s *Scheduler) PeekNextTime() workerpool.SimulationTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heap.Len() == 0 {
		return workerpool.SimTimeMax
	}
	return s.heap[0].event.Time()
}

// Len reports the number of pending events, for tests.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}

// Stop backs Manager.SchedulerIsRunning (which reads Running): once
// stopped, Push refuses new work.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Running reports whether Push currently accepts work.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
