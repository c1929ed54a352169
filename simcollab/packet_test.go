package simcollab

import (
	"testing"

	"github.com/flowsim/workerpool/workerpool"
)

func TestPacketRefCountTracksCopyAndRelease(t *testing.T) {
	p := NewPacket(1, 2, 10)
	if got := p.RefCount(); got != 1 {
		t.Fatalf("RefCount() = %d, want 1", got)
	}

	handle := p.Copy().(Packet)
	if got := p.RefCount(); got != 2 {
		t.Fatalf("RefCount() after Copy = %d, want 2", got)
	}

	handle.Release()
	if got := p.RefCount(); got != 1 {
		t.Fatalf("RefCount() after Release = %d, want 1", got)
	}
}

func TestPacketOverReleasePanics(t *testing.T) {
	p := NewPacket(1, 2, 10)
	p.Release()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic releasing a packet more times than referenced")
		}
	}()
	p.Release()
}

func TestPacketStatusesRecordInOrder(t *testing.T) {
	p := NewPacket(1, 2, 10)
	p.AddDeliveryStatus(workerpool.PDSInetSent)
	statuses := p.Statuses()
	if len(statuses) != 1 || statuses[0] != workerpool.PDSInetSent {
		t.Fatalf("Statuses() = %v, want [PDSInetSent]", statuses)
	}
}
