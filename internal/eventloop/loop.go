// Package eventloop provides the single event goroutine every shell component
// mutates its state on, plus a timer scheduler whose callbacks land on it.
package eventloop

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher queues a function for execution on the event goroutine.
// Post never blocks on the function itself.
type Dispatcher interface {
	Post(fn func())
}

// Func adapts a plain function, such as glib.IdleAdd, to a Dispatcher.
type Func func(fn func())

// Post implements Dispatcher.
func (f Func) Post(fn func()) {
	f(fn)
}

// Inline runs posted functions immediately on the caller's goroutine.
// It is only correct when the caller already is the event goroutine.
type Inline struct{}

// Post implements Dispatcher.
func (Inline) Post(fn func()) {
	fn()
}

// Loop is a goroutine-backed Dispatcher for headless operation and tests.
// Its queue is unbounded so Post never blocks, including when a callback
// posts from the loop goroutine itself.
type Loop struct {
	mu      sync.Mutex
	logger  *slog.Logger
	queue   []func()
	wake    chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stopped bool
}

// NewLoop creates a Loop. depth is the initial queue capacity.
func NewLoop(depth int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if depth <= 0 {
		depth = 256
	}
	return &Loop{
		logger: logger,
		queue:  make([]func(), 0, depth),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the loop until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	go l.run(ctx)
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-l.wake:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-l.stopCh:
				return
			default:
			}
			l.call(fn)
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop callback panicked", "panic", r)
		}
	}()
	fn()
}

// Pending returns the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Post queues fn and returns immediately. Functions posted after Stop are
// dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.logger.Debug("event loop stopped, dropping callback")
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stop halts the loop and waits for the running callback to return.
// Queued callbacks are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.queue = nil
	running := l.running
	close(l.stopCh)
	l.mu.Unlock()

	if running {
		<-l.doneCh
	}
}

// Invoke posts fn to d and waits until it has run or ctx is done. fn is
// skipped if ctx is already done when its turn comes.
func Invoke(ctx context.Context, d Dispatcher, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	d.Post(func() {
		defer close(done)
		if ctx.Err() == nil {
			fn()
		}
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
