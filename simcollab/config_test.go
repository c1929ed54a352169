package simcollab

import "testing"

func TestConfigStoreUseObjectCountersDefaultsTrue(t *testing.T) {
	cs := NewConfigStore()
	if !cs.UseObjectCounters() {
		t.Fatal("UseObjectCounters() = false, want true by default")
	}
	cs.SetConfig(map[string]any{"useObjectCounters": false})
	if cs.UseObjectCounters() {
		t.Fatal("UseObjectCounters() = true after disabling, want false")
	}
}

func TestConfigStoreParallelismAndWorkers(t *testing.T) {
	cs := NewConfigStore()
	if got := cs.Parallelism(4); got != 4 {
		t.Fatalf("Parallelism(4) = %d, want 4 (unset)", got)
	}
	if got := cs.Workers(8); got != 8 {
		t.Fatalf("Workers(8) = %d, want 8 (unset)", got)
	}

	cs.SetConfig(map[string]any{"parallelism": 2, "workers": 16})
	if got := cs.Parallelism(4); got != 2 {
		t.Fatalf("Parallelism(4) = %d, want 2", got)
	}
	if got := cs.Workers(8); got != 16 {
		t.Fatalf("Workers(8) = %d, want 16", got)
	}
}

func TestConfigStoreOnReloadFiresOnSetConfig(t *testing.T) {
	cs := NewConfigStore()
	done := make(chan struct{})
	cs.OnReload(func() { close(done) })
	cs.SetConfig(map[string]any{"workers": 3})
	<-done
}
