package main

import (
	"sync"
	"time"
)

// Debouncer runs action once after a quiet period following the last
// Trigger. Runs never overlap: a timer that fires while the previous action
// is still running waits for it. Safe for concurrent use.
type Debouncer struct {
	mu     sync.Mutex
	runMu  sync.Mutex // held while action runs
	delay  time.Duration
	action func()
	timer  *time.Timer
	gen    uint64 // stale timers compare against this and bail
	wg     sync.WaitGroup
}

// NewDebouncer returns a debouncer that calls action delay after the most
// recent Trigger.
func NewDebouncer(delay time.Duration, action func()) *Debouncer {
	return &Debouncer{delay: delay, action: action}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()

	d.gen++
	gen := d.gen
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.runMu.Lock()
		defer d.runMu.Unlock()
		d.mu.Lock()
		stale := d.gen != gen
		d.mu.Unlock()
		if stale {
			return
		}
		d.action()
	})
}

// Stop cancels a pending action and waits for one already running.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopLocked()
	d.gen++
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
}
