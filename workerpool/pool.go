package workerpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/flowsim/workerpool/affinity"
	"github.com/flowsim/workerpool/internal/latch"
	"github.com/flowsim/workerpool/internal/lp"
)

// WorkerPool owns a fixed set of worker goroutines, dispatches a task
// function to one goroutine per logical processor every round, and
// reduces the per-round minimum next-event time across logical
// processors.
type WorkerPool struct {
	manager   Manager
	scheduler Scheduler

	nWorkers int
	lps      *lp.LogicalProcessors

	workerBeginSems []chan struct{}
	workerLPIdx     []int

	finishLatch *latch.CountDownLatch
	wg          sync.WaitGroup

	// taskFn/taskData are written only by the coordinator while every
	// worker is idle (between a call to Await and the next call to Start).
	taskFn   TaskFn
	taskData any

	minEventTimes []SimulationTime

	taskInFlight bool
	joined       bool
}

// New constructs a pool of nWorkers worker goroutines spread across
// min(nParallel, nWorkers) logical processors, and blocks until every
// worker goroutine has started and registered itself. Both nWorkers and
// nParallel must be >= 1.
func New(manager Manager, scheduler Scheduler, nWorkers, nParallel int) (*WorkerPool, error) {
	if nWorkers < 1 {
		return nil, fmt.Errorf("workerpool: nWorkers must be >= 1, got %d", nWorkers)
	}
	if nParallel < 1 {
		return nil, fmt.Errorf("workerpool: nParallel must be >= 1, got %d", nParallel)
	}

	nLPs := nParallel
	if nWorkers < nLPs {
		nLPs = nWorkers
	}

	p := &WorkerPool{
		manager:         manager,
		scheduler:       scheduler,
		nWorkers:        nWorkers,
		lps:             lp.New(nLPs),
		workerBeginSems: make([]chan struct{}, nWorkers),
		workerLPIdx:     make([]int, nWorkers),
		finishLatch:     latch.New(nWorkers),
		minEventTimes:   make([]SimulationTime, nLPs),
	}
	for i := range p.minEventTimes {
		p.minEventTimes[i] = SimTimeMax
	}
	for i := range p.workerLPIdx {
		p.workerLPIdx[i] = affinity.Unset
	}

	bootstrapEnd := SimulationTime(0)
	if manager != nil {
		bootstrapEnd = manager.BootstrapEndTime()
	}

	p.wg.Add(nWorkers)
	for threadID := 0; threadID < nWorkers; threadID++ {
		p.workerBeginSems[threadID] = make(chan struct{}, 1)
		go p.runWorker(threadID, bootstrapEnd)
	}

	// Wait for every worker to register, then hand out initial LP
	// assignments while all workers are still blocked on their
	// begin-semaphore.
	p.finishLatch.Await()
	p.finishLatch.Reset()

	for workerID := 0; workerID < nWorkers; workerID++ {
		lpi := workerID % nLPs
		p.lps.ReadyPush(lpi, workerID)
		p.workerLPIdx[workerID] = lpi
	}

	return p, nil
}

// NWorkers returns the number of worker goroutines.
func (p *WorkerPool) NWorkers() int { return p.nWorkers }

// NLPs returns the number of logical processors.
func (p *WorkerPool) NLPs() int { return p.lps.N() }

// Affinity returns the CPU logical processor i is pinned to.
func (p *WorkerPool) Affinity(lpi int) int { return p.lps.CPUID(lpi) }

// runWorker is the body of a single worker goroutine: register, then
// repeatedly wait for work, run it, hand off (or go idle), and signal
// completion, until it observes a nil task function.
func (p *WorkerPool) runWorker(threadID int, bootstrapEnd SimulationTime) {
	defer p.wg.Done()

	// Keep this goroutine on one OS thread so thread naming and CPU pinning
	// apply to the thread that runs every later task.
	runtime.LockOSThread()

	w := newWorker(p, threadID, bootstrapEnd)
	pinnedCPU := affinity.Unset

	if err := affinity.SetThreadName(fmt.Sprintf("worker-%d", threadID)); err != nil {
		p.warnf("workerpool: worker %d: set thread name failed: %v", threadID, err)
	}

	// Signal the coordinator that this worker has started.
	p.finishLatch.CountDown()

	for {
		<-p.workerBeginSems[threadID]

		lpi := p.workerLPIdx[threadID]
		cpu := p.lps.CPUID(lpi)
		if cpu != pinnedCPU {
			if err := affinity.Pin(cpu, pinnedCPU); err != nil {
				p.warnf("workerpool: worker %d: pin to cpu %d failed: %v", threadID, cpu, err)
			}
			pinnedCPU = cpu
		}

		taskFn := p.taskFn
		if taskFn != nil {
			ctx := WithWorker(context.Background(), w)
			taskFn(ctx, p.taskData)
		}

		p.lps.DonePush(lpi, threadID)

		nextWorker := p.lps.PopWorkerToRunOn(lpi)
		if nextWorker != lp.None {
			p.workerLPIdx[nextWorker] = lpi
			p.workerBeginSems[nextWorker] <- struct{}{}
		} else {
			p.lps.IdleTimerContinue(lpi)
		}

		p.finishLatch.CountDown()

		if taskFn == nil {
			return
		}
	}
}

func (p *WorkerPool) warnf(format string, args ...any) {
	if p.manager == nil || p.manager.Logger() == nil {
		return
	}
	p.manager.Logger().Warnf(format, args...)
}

// startTaskFn is the internal dispatcher. A nil taskFn is the shutdown
// sentinel; callers that accept a nil taskFn must be internal to this
// package (JoinAll). The public StartTaskFn rejects nil.
func (p *WorkerPool) startTaskFn(taskFn TaskFn, data any) {
	if p.taskInFlight {
		panic(ErrTaskInFlight)
	}

	if p.nWorkers == 0 {
		if taskFn != nil {
			taskFn(context.Background(), data)
		}
		return
	}

	p.taskInFlight = true
	p.taskFn = taskFn
	p.taskData = data

	for i := 0; i < p.lps.N(); i++ {
		workerID := p.lps.PopWorkerToRunOn(i)
		if workerID == lp.None {
			break
		}
		p.workerLPIdx[workerID] = i
		p.lps.IdleTimerStop(i)
		p.workerBeginSems[workerID] <- struct{}{}
	}
}

// StartTaskFn installs taskFn as the current round's task and releases one
// worker per logical processor to begin running it. taskFn must be
// non-nil; a previous round's task must already have been awaited.
func (p *WorkerPool) StartTaskFn(taskFn TaskFn, data any) {
	if taskFn == nil {
		panic("workerpool: StartTaskFn requires a non-nil taskFn")
	}
	p.startTaskFn(taskFn, data)
}

// AwaitTaskFn blocks until every worker has finished the current round,
// then rotates each logical processor's done queue back onto its ready
// queue so the next round's dispatch can proceed.
func (p *WorkerPool) AwaitTaskFn() {
	if p.nWorkers == 0 {
		return
	}
	p.finishLatch.Await()
	p.finishLatch.Reset()
	p.taskFn = nil
	p.taskData = nil
	p.taskInFlight = false
	p.lps.FinishTask()
}

// GetGlobalNextEventTime returns the minimum of every contribution made via
// SetMinEventTimeNextRound since the previous call, and resets the
// per-logical-processor accumulators for the next round. Must only be
// called by the coordinator, between rounds.
func (p *WorkerPool) GetGlobalNextEventTime() SimulationTime {
	min := SimTimeMax
	for i, t := range p.minEventTimes {
		if t < min {
			min = t
		}
		p.minEventTimes[i] = SimTimeMax
	}
	return min
}

// JoinAll releases every worker with the shutdown sentinel, awaits their
// final round, and waits for every worker goroutine to actually exit.
// JoinAll may only be called once.
func (p *WorkerPool) JoinAll() {
	if p.joined {
		panic(ErrAlreadyJoined)
	}
	p.startTaskFn(nil, nil)
	p.AwaitTaskFn()
	p.wg.Wait()
	p.joined = true
}

// Free releases the pool's resources. JoinAll must have completed first.
func (p *WorkerPool) Free() {
	if !p.joined {
		panic(ErrAlreadyJoined)
	}
	p.workerBeginSems = nil
	p.workerLPIdx = nil
	p.minEventTimes = nil
}

func (p *WorkerPool) lpIndexOf(threadID int) int {
	return p.workerLPIdx[threadID]
}
