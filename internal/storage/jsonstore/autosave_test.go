package jsonstore

import (
	"sync"
	"testing"
	"time"
)

func TestAutosaverDoesNotReschedule(t *testing.T) {
	const delay = 200 * time.Millisecond

	var mu sync.Mutex
	var fired []time.Time
	done := make(chan struct{}, 4)
	a := newAutosaver(delay, func() {
		mu.Lock()
		fired = append(fired, time.Now())
		mu.Unlock()
		done <- struct{}{}
	})

	start := time.Now()
	a.mark()
	time.Sleep(delay / 2)
	a.mark() // must not push the deadline out
	a.mark()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("autosave never fired")
	}
	elapsed := time.Since(start)
	if elapsed >= delay+delay/2 {
		t.Errorf("fired after %v; a repeated mark moved the deadline", elapsed)
	}

	// no second save was queued by the extra marks
	select {
	case <-done:
		t.Error("extra marks scheduled a second save")
	case <-time.After(delay + 50*time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 {
		t.Errorf("fired %d times, want 1", len(fired))
	}
}

func TestAutosaverMarkAfterFireSchedulesAgain(t *testing.T) {
	done := make(chan struct{}, 2)
	a := newAutosaver(10*time.Millisecond, func() { done <- struct{}{} })

	a.mark()
	<-done
	// the timer clears itself before running the action
	deadline := time.Now().Add(time.Second)
	for a.pending() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	a.mark()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second mark did not schedule a save")
	}
}

func TestAutosaverStop(t *testing.T) {
	fired := make(chan struct{}, 1)
	a := newAutosaver(50*time.Millisecond, func() { fired <- struct{}{} })
	a.mark()
	if !a.pending() {
		t.Fatal("expected pending save")
	}
	a.stop()
	a.mark()
	if a.pending() {
		t.Error("mark after stop should be ignored")
	}
	select {
	case <-fired:
		t.Error("stopped autosaver fired")
	case <-time.After(100 * time.Millisecond):
	}
}
