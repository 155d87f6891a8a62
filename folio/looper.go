package folio

import "sync"

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Post calls f(fn).
func (f DispatcherFunc) Post(fn func()) error {
	f(fn)
	return nil
}

// Looper is a Dispatcher that runs posted functions one at a time, in post
// order, on a single goroutine. It plays the role of the interactive thread.
//
// Post never blocks: the queue is unbounded.
type Looper struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// NewLooper starts a Looper.
func NewLooper() *Looper {
	l := &Looper{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn. After Close it returns ErrClosed and fn never runs.
func (l *Looper) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

func (l *Looper) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		select {
		case <-l.wake:
		case <-l.quit:
		}
	}
}

// Close stops accepting work, runs everything already queued, and waits for
// the loop to exit. It must not be called from a posted function.
// A second call returns ErrClosed.
func (l *Looper) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.closed = true
	l.mu.Unlock()

	close(l.quit)
	<-l.done
	return nil
}
