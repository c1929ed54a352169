package workerpool

import "context"

// Worker is a worker goroutine's thread-local context: the simulated clock
// state of whatever event it is currently running, plus its allocation/
// deallocation/syscall counters. Rather than implicit thread-local storage,
// a Worker is carried explicitly through a context.Context (see
// WithWorker/FromContext) for testability.
//
// A Worker is created once per worker goroutine, for that goroutine's
// entire lifetime, and is never touched by the coordinator directly.
type Worker struct {
	pool     *WorkerPool
	threadID int

	currentTime   SimulationTime
	lastEventTime SimulationTime
	roundEndTime  SimulationTime
	activeHost    Host

	bootstrapActive  bool
	bootstrapEndTime SimulationTime

	allocCounter   map[string]int64
	deallocCounter map[string]int64
	syscallCounter map[string]int64
}

func newWorker(pool *WorkerPool, threadID int, bootstrapEndTime SimulationTime) *Worker {
	return &Worker{
		pool:             pool,
		threadID:         threadID,
		currentTime:      SimTimeInvalid,
		lastEventTime:    0,
		roundEndTime:     0,
		bootstrapActive:  bootstrapEndTime > 0,
		bootstrapEndTime: bootstrapEndTime,
	}
}

// closeBootstrapWindowIfElapsed clears the bootstrap-phase flag once t has
// caught up to bootstrapEndTime, mirroring worker.c's bootstrap window
// closing partway through the simulation rather than only at worker
// creation. Called from RunEvent, where the worker's current event time is
// authoritative.
func (w *Worker) closeBootstrapWindowIfElapsed(t SimulationTime) {
	if w.bootstrapActive && t >= w.bootstrapEndTime {
		w.SetBootstrapActive(false)
	}
}

// ThreadID returns this worker's 0..nWorkers-1 index.
func (w *Worker) ThreadID() int { return w.threadID }

// CurrentTime returns the simulated time of the event currently executing,
// or SimTimeInvalid between events.
func (w *Worker) CurrentTime() SimulationTime { return w.currentTime }

func (w *Worker) setCurrentTime(t SimulationTime) { w.currentTime = t }

// LastEventTime returns the time of the most recently completed event.
func (w *Worker) LastEventTime() SimulationTime { return w.lastEventTime }

// RoundEndTime returns the upper exclusive bound for events executable this
// round.
func (w *Worker) RoundEndTime() SimulationTime { return w.roundEndTime }

// SetRoundEndTime is called by the task function at the start of a round to
// establish the window SetMinEventTimeNextRound judges contributions
// against.
func (w *Worker) SetRoundEndTime(t SimulationTime) { w.roundEndTime = t }

// ActiveHost returns the host whose event is executing, or nil.
func (w *Worker) ActiveHost() Host { return w.activeHost }

func (w *Worker) setActiveHost(h Host) { w.activeHost = h }

// IsBootstrapActive reports whether the simulation is still in its
// bootstrap phase, during which packet drops due to reliability are
// suppressed.
func (w *Worker) IsBootstrapActive() bool { return w.bootstrapActive }

// SetBootstrapActive updates the bootstrap-phase flag. RunEvent clears it
// itself once an event's time reaches the bootstrap end time.
func (w *Worker) SetBootstrapActive(active bool) { w.bootstrapActive = active }

func (w *Worker) incrementAlloc(name string) {
	if w.allocCounter == nil {
		w.allocCounter = make(map[string]int64)
	}
	w.allocCounter[name]++
}

func (w *Worker) incrementDealloc(name string) {
	if w.deallocCounter == nil {
		w.deallocCounter = make(map[string]int64)
	}
	w.deallocCounter[name]++
}

func (w *Worker) addSyscallCounts(counts map[string]int64) {
	if w.syscallCounter == nil {
		w.syscallCounter = make(map[string]int64, len(counts))
	}
	for k, v := range counts {
		w.syscallCounter[k] += v
	}
}

type ctxKeyWorker struct{}

// WithWorker returns a context carrying w, for use as the ctx passed to a
// TaskFn or to any of this package's Worker API surface functions.
func WithWorker(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, ctxKeyWorker{}, w)
}

// FromContext returns the Worker carried by ctx, if any.
func FromContext(ctx context.Context) (*Worker, bool) {
	w, ok := ctx.Value(ctxKeyWorker{}).(*Worker)
	return w, ok
}

// mustWorker fetches the active Worker from ctx or panics: every caller is
// an API surface function whose precondition is "requires an active Worker
// in the current thread" — a precondition violation is a fatal error, not
// a recoverable one.
func mustWorker(ctx context.Context) *Worker {
	w, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoWorkerInContext)
	}
	return w
}
