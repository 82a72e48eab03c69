package main

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesTriggers(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(40*time.Millisecond, func() { count.Add(1) })
	t.Cleanup(d.Stop)

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	if got := count.Load(); got != 0 {
		t.Fatalf("fired during the burst: %d", got)
	}

	time.Sleep(100 * time.Millisecond)
	if got := count.Load(); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { count.Add(1) })

	d.Trigger()
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Errorf("count = %d after Stop, want 0", got)
	}

	// usable again after Stop
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	if got := count.Load(); got != 1 {
		t.Errorf("count = %d after re-trigger, want 1", got)
	}
}

func TestDebouncerStopWaitsForRunningAction(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	d := NewDebouncer(time.Millisecond, func() {
		close(started)
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
	})

	d.Trigger()
	<-started
	d.Stop()
	if !finished.Load() {
		t.Error("Stop returned before the running action finished")
	}
}

func TestDebouncerSerializesSlowActions(t *testing.T) {
	var running, maxRunning, count atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		running.Add(-1)
		count.Add(1)
	})
	t.Cleanup(d.Stop)

	d.Trigger()
	time.Sleep(30 * time.Millisecond)
	d.Trigger()
	time.Sleep(300 * time.Millisecond)

	if got := maxRunning.Load(); got != 1 {
		t.Errorf("max concurrent actions = %d, want 1", got)
	}
	if got := count.Load(); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}
