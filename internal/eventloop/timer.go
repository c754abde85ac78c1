package eventloop

import (
	"sync/atomic"
	"time"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

// Scheduler arms callbacks that run on the event goroutine after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// TimerScheduler is a Scheduler built on time.AfterFunc whose callbacks are
// posted to a Dispatcher instead of running on the runtime's timer goroutine.
type TimerScheduler struct {
	dispatcher Dispatcher
}

// NewTimerScheduler creates a scheduler that delivers callbacks through d.
func NewTimerScheduler(d Dispatcher) *TimerScheduler {
	return &TimerScheduler{dispatcher: d}
}

// AfterFunc implements Scheduler.
func (s *TimerScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &postedTimer{}
	t.timer = time.AfterFunc(d, func() {
		s.dispatcher.Post(func() {
			// Stop may have won the race after the runtime timer fired.
			if t.stopped.Load() {
				return
			}
			fn()
		})
	})
	return t
}

type postedTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *postedTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	return t.timer.Stop()
}
