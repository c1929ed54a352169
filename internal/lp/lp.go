// Package lp implements the logical-processor set that the worker pool
// dispatches workers onto: one ready/done queue pair per logical
// processor (LP), each LP optionally pinned to a CPU.
package lp

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/flowsim/workerpool/affinity"
)

// None is returned by PopWorkerToRunOn when no worker is available to run.
const None = -1

// LogicalProcessors is a fixed-size set of execution slots. Each slot runs
// at most one worker at a time and tracks which workers are ready to run on
// it and which just finished running on it.
//
// A given worker ID appears in at most one of (ready, done) across all LPs
// at any instant; callers are responsible for preserving that invariant by
// only ever calling ReadyPush/DonePush once per worker per transition.
type LogicalProcessors struct {
	mu    sync.Mutex
	ready []*queue.Queue
	done  []*queue.Queue
	cpu   []int

	idleSince [] /* zero time.Time means "not idle" */ time.Time
	idleTotal []time.Duration
}

// New allocates n LP slots, each pinned to CPU i%affinity.NumCPU() by
// default (cpuIDs may be overridden with SetCPUIDs before workers start).
func New(n int) *LogicalProcessors {
	if n < 1 {
		panic("lp: n must be >= 1")
	}
	lps := &LogicalProcessors{
		ready:     make([]*queue.Queue, n),
		done:      make([]*queue.Queue, n),
		cpu:       make([]int, n),
		idleSince: make([]time.Time, n),
		idleTotal: make([]time.Duration, n),
	}
	numCPU := affinity.NumCPU()
	for i := 0; i < n; i++ {
		lps.ready[i] = queue.New()
		lps.done[i] = queue.New()
		if numCPU > 0 {
			lps.cpu[i] = i % numCPU
		} else {
			lps.cpu[i] = affinity.Unset
		}
	}
	return lps
}

// N returns the number of logical processors.
func (l *LogicalProcessors) N() int {
	return len(l.ready)
}

// CPUID returns the CPU that LP i is pinned to, or affinity.Unset.
func (l *LogicalProcessors) CPUID(i int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cpu[i]
}

// SetCPUIDs overrides the default i%NumCPU CPU assignment, e.g. for tests
// that want to assert specific pinning behavior without depending on the
// host's core count.
func (l *LogicalProcessors) SetCPUIDs(cpus []int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(cpus) != len(l.cpu) {
		panic("lp: SetCPUIDs length mismatch")
	}
	copy(l.cpu, cpus)
}

// ReadyPush appends worker w to LP i's ready queue.
func (l *LogicalProcessors) ReadyPush(i, w int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready[i].Add(w)
}

// DonePush appends worker w to LP i's done queue.
func (l *LogicalProcessors) DonePush(i, w int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done[i].Add(w)
}

// PopWorkerToRunOn returns a worker ready to run on LP i: the head of LP
// i's own ready queue if non-empty, otherwise the head of the first
// non-empty ready queue found scanning i+1, i+2, ... (wrapping), i.e.
// round-robin stealing starting just past i. Returns None if every ready
// queue is empty.
func (l *LogicalProcessors) PopWorkerToRunOn(i int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if q := l.ready[i]; q.Length() > 0 {
		return q.Remove().(int)
	}
	n := len(l.ready)
	for step := 1; step < n; step++ {
		j := (i + step) % n
		if q := l.ready[j]; q.Length() > 0 {
			return q.Remove().(int)
		}
	}
	return None
}

// FinishTask moves every LP's done-queue contents onto its ready queue,
// in order, clearing done. Callers must ensure no worker is running when
// this is invoked (it is the coordinator's round-boundary rotation).
func (l *LogicalProcessors) FinishTask() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, doneQ := range l.done {
		readyQ := l.ready[i]
		for doneQ.Length() > 0 {
			readyQ.Add(doneQ.Remove())
		}
	}
}

// IdleTimerStop marks LP i as busy, ending any idle interval in progress.
func (l *LogicalProcessors) IdleTimerStop(i int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.idleSince[i].IsZero() {
		l.idleTotal[i] += time.Since(l.idleSince[i])
		l.idleSince[i] = time.Time{}
	}
}

// IdleTimerContinue marks LP i as idle starting now.
func (l *LogicalProcessors) IdleTimerContinue(i int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.idleSince[i] = time.Now()
}

// IdleDuration returns LP i's accumulated idle time, including any
// currently-open idle interval.
func (l *LogicalProcessors) IdleDuration(i int) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := l.idleTotal[i]
	if !l.idleSince[i].IsZero() {
		d += time.Since(l.idleSince[i])
	}
	return d
}
