package workerpool_test

import (
	"context"
	"testing"

	"github.com/flowsim/workerpool/workerpool"
	"github.com/flowsim/workerpool/simcollab"
)

// newTestSim wires a Manager/Scheduler/two Hosts/Addresses together, the
// minimum collaborator set SendPacket needs to run end-to-end.
func newTestSim(t *testing.T) (*simcollab.Manager, *simcollab.Scheduler, *simcollab.Host, *simcollab.Host) {
	t.Helper()
	sched := simcollab.NewScheduler()
	mgr := simcollab.NewManager(sched, workerpool.LogWarning)

	srcAddr := simcollab.NewAddress(1)
	dstAddr := simcollab.NewAddress(2)

	dns := mustDNS(mgr)
	dns.Register(1, "src", srcAddr)
	dns.Register(2, "dst", dstAddr)

	srcHost := simcollab.NewHost(1, simcollab.NewMasterRandom(1, 1), simcollab.NewRouter())
	dstHost := simcollab.NewHost(2, simcollab.NewMasterRandom(1, 2), simcollab.NewRouter())
	sched.RegisterHost(srcHost)
	sched.RegisterHost(dstHost)

	return mgr, sched, srcHost, dstHost
}

func mustDNS(mgr *simcollab.Manager) *simcollab.DNS {
	return mgr.DNS().(*simcollab.DNS)
}

// funcEvent adapts a plain closure into a workerpool.Event firing at t,
// mirroring how a real handler reaches the Worker API surface: from inside
// Event.Execute, with ctx captured by the closure that built the event.
type funcEvent struct {
	t  workerpool.SimulationTime
	fn func()
}

func (e funcEvent) Time() workerpool.SimulationTime { return e.t }
func (e funcEvent) Execute()                        { e.fn() }

// S4a: reliability=1.0, latency=5ms: the packet is marked sent and an event
// lands on the scheduler at currentTime + 5ms worth of nanoseconds.
func TestSendPacketReliablePathSchedulesDelivery(t *testing.T) {
	mgr, sched, srcHost, _ := newTestSim(t)
	srcAddr, _ := mgr.DNS().ResolveIPToAddress(1)
	dstAddr, _ := mgr.DNS().ResolveIPToAddress(2)
	topo := mgr.Topology().(*simcollab.Topology)
	topo.SetPath(srcAddr, dstAddr, simcollab.PathProperties{Reliability: 1.0, LatencyMillis: 5})

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	packet := simcollab.NewPacket(1, 2, 128)

	pool.StartTaskFn(func(ctx context.Context, data any) {
		workerpool.RunEvent(ctx, funcEvent{t: 0, fn: func() {
			workerpool.SendPacket(ctx, srcHost, packet)
		}})
	}, nil)
	pool.AwaitTaskFn()

	statuses := packet.Statuses()
	if len(statuses) != 1 || statuses[0] != workerpool.PDSInetSent {
		t.Fatalf("Statuses() = %v, want [PDSInetSent]", statuses)
	}

	if got, want := sched.PeekNextTime(), workerpool.SimulationTime(5*workerpool.SimTimeOneMillisecond); got != want {
		t.Fatalf("scheduled event time = %d, want %d", got, want)
	}
}

// S4b: reliability=0.0 with a nonzero payload: dropped, nothing scheduled.
func TestSendPacketUnreliablePathDropsNonzeroPayload(t *testing.T) {
	mgr, sched, srcHost, _ := newTestSim(t)
	srcAddr, _ := mgr.DNS().ResolveIPToAddress(1)
	dstAddr, _ := mgr.DNS().ResolveIPToAddress(2)
	topo := mgr.Topology().(*simcollab.Topology)
	topo.SetPath(srcAddr, dstAddr, simcollab.PathProperties{Reliability: 0.0, LatencyMillis: 5})

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	packet := simcollab.NewPacket(1, 2, 128)

	pool.StartTaskFn(func(ctx context.Context, data any) {
		workerpool.RunEvent(ctx, funcEvent{t: 0, fn: func() {
			workerpool.SendPacket(ctx, srcHost, packet)
		}})
	}, nil)
	pool.AwaitTaskFn()

	statuses := packet.Statuses()
	if len(statuses) != 1 || statuses[0] != workerpool.PDSInetDropped {
		t.Fatalf("Statuses() = %v, want [PDSInetDropped]", statuses)
	}
	if sched.Len() != 0 {
		t.Fatalf("scheduler Len() = %d, want 0 (dropped packet must not be enqueued)", sched.Len())
	}
}

// S4c: reliability=0.0 but payload length 0 (a control packet): the drop
// check is bypassed and the event is still enqueued.
func TestSendPacketControlPacketBypassesDropCheck(t *testing.T) {
	mgr, sched, srcHost, _ := newTestSim(t)
	srcAddr, _ := mgr.DNS().ResolveIPToAddress(1)
	dstAddr, _ := mgr.DNS().ResolveIPToAddress(2)
	topo := mgr.Topology().(*simcollab.Topology)
	topo.SetPath(srcAddr, dstAddr, simcollab.PathProperties{Reliability: 0.0, LatencyMillis: 1})

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	packet := simcollab.NewPacket(1, 2, 0)

	pool.StartTaskFn(func(ctx context.Context, data any) {
		workerpool.RunEvent(ctx, funcEvent{t: 0, fn: func() {
			workerpool.SendPacket(ctx, srcHost, packet)
		}})
	}, nil)
	pool.AwaitTaskFn()

	statuses := packet.Statuses()
	if len(statuses) != 1 || statuses[0] != workerpool.PDSInetSent {
		t.Fatalf("Statuses() = %v, want [PDSInetSent] (control packets bypass the drop check)", statuses)
	}
	if sched.Len() != 1 {
		t.Fatalf("scheduler Len() = %d, want 1", sched.Len())
	}
}

// recordingTask is a workerpool.Task double that records the host it ran
// against, for ScheduleTask's end-to-end coverage.
type recordingTask struct {
	ran  bool
	host workerpool.Host
}

func (r *recordingTask) Run(host workerpool.Host) {
	r.ran = true
	r.host = host
}

// ScheduleTask must push an event at currentTime+nanoDelay (P6: never
// before currentTime) that, once popped and executed, runs the task
// against the given host.
func TestScheduleTaskPushesEventAtCurrentTimePlusDelay(t *testing.T) {
	mgr, sched, srcHost, _ := newTestSim(t)

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	task := &recordingTask{}
	var scheduled bool

	pool.StartTaskFn(func(ctx context.Context, data any) {
		workerpool.RunEvent(ctx, funcEvent{t: 1000, fn: func() {
			scheduled = workerpool.ScheduleTask(ctx, task, srcHost, 500)
		}})
	}, nil)
	pool.AwaitTaskFn()

	if !scheduled {
		t.Fatal("ScheduleTask returned false, want true")
	}
	if got, want := sched.PeekNextTime(), workerpool.SimulationTime(1500); got != want {
		t.Fatalf("scheduled event time = %d, want %d", got, want)
	}

	event := sched.PopNext()
	if event == nil {
		t.Fatal("PopNext() = nil, want the event ScheduleTask pushed")
	}
	event.Execute()
	if !task.ran {
		t.Fatal("popping and executing the scheduled event did not run the task")
	}
	if task.host != srcHost {
		t.Fatalf("task ran against host %v, want %v", task.host, srcHost)
	}
}

// ScheduleTask must return false, and push nothing, once the scheduler has
// stopped accepting work.
func TestScheduleTaskReturnsFalseWhenSchedulerStopped(t *testing.T) {
	mgr, sched, srcHost, _ := newTestSim(t)
	sched.Stop()

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	task := &recordingTask{}
	var scheduled bool

	pool.StartTaskFn(func(ctx context.Context, data any) {
		workerpool.RunEvent(ctx, funcEvent{t: 0, fn: func() {
			scheduled = workerpool.ScheduleTask(ctx, task, srcHost, 10)
		}})
	}, nil)
	pool.AwaitTaskFn()

	if scheduled {
		t.Fatal("ScheduleTask returned true on a stopped scheduler, want false")
	}
	if sched.Len() != 0 {
		t.Fatalf("sched.Len() = %d, want 0", sched.Len())
	}
}

// ScheduleTask's precondition is that it is called from within an event
// (currentTime must not be SimTimeInvalid); calling it outside RunEvent
// must panic.
func TestScheduleTaskPanicsOutsideEventExecution(t *testing.T) {
	mgr, sched, srcHost, _ := newTestSim(t)

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	done := make(chan struct{})
	pool.StartTaskFn(func(ctx context.Context, data any) {
		defer close(done)
		defer func() {
			if recover() == nil {
				t.Error("expected panic calling ScheduleTask outside RunEvent")
			}
		}()
		workerpool.ScheduleTask(ctx, &recordingTask{}, srcHost, 10)
	}, nil)
	pool.AwaitTaskFn()
	<-done
}

// BootHosts must boot every host in order and, via ContinueExecutionTimer/
// StopExecutionTimer, leave each with nonzero accumulated execution time.
func TestBootHostsBootsEachHostAndTracksExecutionTime(t *testing.T) {
	mgr, sched, srcHost, dstHost := newTestSim(t)

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	hosts := []workerpool.Host{srcHost, dstHost}
	pool.StartTaskFn(func(ctx context.Context, data any) {
		workerpool.BootHosts(ctx, hosts)
	}, nil)
	pool.AwaitTaskFn()

	for _, h := range []*simcollab.Host{srcHost, dstHost} {
		if !h.Booted() {
			t.Fatalf("host %d: Booted() = false after BootHosts", h.ID())
		}
		if h.ExecutionTime() <= 0 {
			t.Fatalf("host %d: ExecutionTime() = 0 after BootHosts, want > 0", h.ID())
		}
	}
}

// Finish must free applications and shut down every host, then hand the
// calling worker's accumulated counters off to the manager.
func TestFinishShutsDownHostsAndHandsOffCounters(t *testing.T) {
	mgr, sched, srcHost, dstHost := newTestSim(t)

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	hosts := []workerpool.Host{srcHost, dstHost}
	pool.StartTaskFn(func(ctx context.Context, data any) {
		workerpool.BootHosts(ctx, hosts)
		workerpool.IncrementObjectAllocCounter(ctx, mgr, "packet")
		workerpool.IncrementObjectAllocCounter(ctx, mgr, "packet")
		workerpool.IncrementObjectDeallocCounter(ctx, mgr, "packet")
		workerpool.AddSyscallCounts(ctx, mgr, map[string]int64{"read": 3})
		workerpool.Finish(ctx, hosts)
	}, nil)
	pool.AwaitTaskFn()

	for _, h := range []*simcollab.Host{srcHost, dstHost} {
		if h.Booted() {
			t.Fatalf("host %d: Booted() = true after Finish, want false", h.ID())
		}
	}

	counters := mgr.Counters().(*simcollab.Counters)
	if got := counters.AllocTotal("packet"); got != 2 {
		t.Fatalf("AllocTotal(\"packet\") = %d, want 2", got)
	}
	if got := counters.DeallocTotal("packet"); got != 1 {
		t.Fatalf("DeallocTotal(\"packet\") = %d, want 1", got)
	}
	if got := counters.SyscallTotal("read"); got != 3 {
		t.Fatalf("SyscallTotal(\"read\") = %d, want 3", got)
	}
}

// Outside any worker, the per-object counter increments must fall back to
// the manager's global counters rather than panicking.
func TestIncrementObjectCounterFallsBackOutsideWorker(t *testing.T) {
	mgr, _, _, _ := newTestSim(t)

	workerpool.IncrementObjectAllocCounter(context.Background(), mgr, "buffer")
	workerpool.IncrementObjectDeallocCounter(context.Background(), mgr, "buffer")

	counters := mgr.Counters().(*simcollab.Counters)
	if got := counters.AllocTotal("buffer"); got != 1 {
		t.Fatalf("AllocTotal(\"buffer\") = %d, want 1", got)
	}
	if got := counters.DeallocTotal("buffer"); got != 1 {
		t.Fatalf("DeallocTotal(\"buffer\") = %d, want 1", got)
	}
}

// When useObjectCounters is disabled, no counter is created and increments
// are suppressed entirely, both inside and outside a worker.
func TestObjectCounterDisabledSuppressesIncrement(t *testing.T) {
	mgr, sched, _, _ := newTestSim(t)
	mgr.ConfigStore().SetConfig(map[string]any{"useObjectCounters": false})

	workerpool.IncrementObjectAllocCounter(context.Background(), mgr, "socket")

	pool, err := workerpool.New(mgr, sched, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.JoinAll()

	pool.StartTaskFn(func(ctx context.Context, data any) {
		workerpool.IncrementObjectAllocCounter(ctx, mgr, "socket")
	}, nil)
	pool.AwaitTaskFn()

	counters := mgr.Counters().(*simcollab.Counters)
	if got := counters.AllocTotal("socket"); got != 0 {
		t.Fatalf("AllocTotal(\"socket\") = %d, want 0 (useObjectCounters disabled)", got)
	}
}

// Outside any worker, AddSyscallCounts must fall back to the manager's
// global syscall counters.
func TestAddSyscallCountsFallsBackOutsideWorker(t *testing.T) {
	mgr, _, _, _ := newTestSim(t)

	workerpool.AddSyscallCounts(context.Background(), mgr, map[string]int64{"write": 4})

	counters := mgr.Counters().(*simcollab.Counters)
	if got := counters.SyscallTotal("write"); got != 4 {
		t.Fatalf("SyscallTotal(\"write\") = %d, want 4", got)
	}
}
