package scheduler

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopClosed is returned when posting to a closed loop
var ErrLoopClosed = errors.New("loop closed")

// Executor runs tasks one at a time, in submission order
type Executor interface {
	Post(task func()) error
}

// DefaultQueueSize is the task buffer of a Loop
const DefaultQueueSize = 64

// Loop is a single goroutine draining a task queue. Everything posted to the
// same loop runs sequentially, so tasks may touch loop-owned state without
// locking.
type Loop struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	done   chan struct{}
}

// NewLoop starts a loop goroutine
func NewLoop() *Loop {
	l := &Loop{
		tasks: make(chan func(), DefaultQueueSize),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for task := range l.tasks {
		task()
	}
}

// Post enqueues task. It blocks while the queue is full and must not be
// called from a task running on the same loop in that state.
func (l *Loop) Post(task func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return ErrLoopClosed
	}
	l.tasks <- task
	return nil
}

// Do runs task on the loop and waits for it to finish or ctx to end.
// When ctx ends first the task may still run later.
func (l *Loop) Do(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	err := l.Post(func() {
		defer close(finished)
		task()
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, runs the ones already queued and waits for the
// loop goroutine to exit. It must not be called from a loop task.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.tasks)
	}
	l.mu.Unlock()

	<-l.done
}

// Inline is an Executor that runs tasks immediately on the caller's goroutine
type Inline struct{}

func (Inline) Post(task func()) error {
	task()
	return nil
}
