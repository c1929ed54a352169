package workerpool

import "errors"

var (
	// ErrNoWorkerInContext is returned by API surface functions that
	// require an active Worker bound to ctx via WithWorker.
	ErrNoWorkerInContext = errors.New("workerpool: no active worker in context")

	// ErrAlreadyJoined indicates Free was called on a pool that was never
	// joined, or JoinAll was called twice.
	ErrAlreadyJoined = errors.New("workerpool: pool already joined")

	// ErrTaskInFlight indicates StartTaskFn was called while a previous
	// task has not yet been awaited.
	ErrTaskInFlight = errors.New("workerpool: a task is already running")
)
