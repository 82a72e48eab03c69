package jsonstore

import (
	"sync"
	"time"
)

// autosaver runs a save once, a fixed delay after the first dirty mark.
// Marks arriving while a save is pending do not move its deadline; the
// pending save fires as scheduled and persists whatever state exists then.
type autosaver struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	action  func()
	stopped bool
	wg      sync.WaitGroup // in-flight actions, drained by stop
}

func newAutosaver(delay time.Duration, action func()) *autosaver {
	return &autosaver{delay: delay, action: action}
}

// mark schedules the action unless one is already pending.
func (a *autosaver) mark() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped || a.timer != nil {
		return
	}
	a.wg.Add(1)
	a.timer = time.AfterFunc(a.delay, func() {
		defer a.wg.Done()

		a.mu.Lock()
		a.timer = nil
		a.mu.Unlock()

		a.action()
	})
}

// pending reports whether a save is scheduled.
func (a *autosaver) pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// stop cancels a pending save, then waits for an in-flight one to finish.
// Later marks are ignored.
func (a *autosaver) stop() {
	a.mu.Lock()
	a.stopped = true
	if a.timer != nil {
		if a.timer.Stop() {
			// stopped before firing, release its WaitGroup slot
			a.wg.Done()
		}
		a.timer = nil
	}
	a.mu.Unlock()
	a.wg.Wait()
}
