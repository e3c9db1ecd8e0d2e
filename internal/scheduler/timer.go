package scheduler

import (
	"sync"
	"time"
)

// TimerService runs fn once at the given instant. Instants in the past fire
// immediately. There is no cancel: callbacks recompute from current data, so a
// stale timer is harmless.
type TimerService interface {
	ScheduleOnce(at time.Time, fn func())
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AfterFuncTimer backs TimerService with the runtime timer heap. Each callback runs
// on its own goroutine, so different events advance concurrently.
type AfterFuncTimer struct {
	clock Clock

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	stopped bool
	wg      sync.WaitGroup
}

func NewAfterFuncTimer(clock Clock) *AfterFuncTimer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AfterFuncTimer{clock: clock, pending: map[*time.Timer]struct{}{}}
}

func (t *AfterFuncTimer) ScheduleOnce(at time.Time, fn func()) {
	d := at.Sub(t.clock.Now())
	if d < 0 {
		d = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	var tm *time.Timer
	t.wg.Add(1)
	tm = time.AfterFunc(d, func() {
		defer t.wg.Done()
		t.mu.Lock()
		delete(t.pending, tm)
		t.mu.Unlock()
		fn()
	})
	t.pending[tm] = struct{}{}
}

// Pending is the number of timers that have not fired yet.
func (t *AfterFuncTimer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop drops every timer that has not fired and waits for running callbacks.
func (t *AfterFuncTimer) Stop() {
	t.mu.Lock()
	t.stopped = true
	for tm := range t.pending {
		if tm.Stop() {
			t.wg.Done()
		}
		delete(t.pending, tm)
	}
	t.mu.Unlock()
	t.wg.Wait()
}
