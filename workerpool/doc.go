// Package workerpool implements the round-synchronous worker pool that
// drives a discrete-event network simulator: a barrier-synchronized,
// CPU-affinity-aware set of worker goroutines that dequeue events from a
// shared Scheduler and execute them on behalf of simulated Hosts.
//
// A round begins with StartTaskFn, which releases one worker per logical
// processor to run the installed TaskFn; it ends with AwaitTaskFn, which
// blocks until every worker has finished and rotates each logical
// processor's completed workers back onto its ready queue for the next
// round. Between rounds, GetGlobalNextEventTime reduces the per-logical-
// processor minimum next-event time contributed via SetMinEventTimeNextRound.
package workerpool
