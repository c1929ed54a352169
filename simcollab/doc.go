// Package simcollab provides small, concrete implementations of the
// workerpool package's external collaborator interfaces (Scheduler,
// Manager, Topology, DNS, Host, Packet). A full network simulator's event
// scheduler, topology database, and host/process tree are out of scope
// here — but a worker pool with nothing to dispatch can't be exercised
// end-to-end, so this package gives tests (and any future CLI) a minimal,
// real implementation to drive.
package simcollab
