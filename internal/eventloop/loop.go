// Package eventloop runs every state-touching task on one goroutine, one task at a time.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrStopped is returned by Call once the loop is no longer running.
var ErrStopped = errors.New("event loop stopped")

const defaultQueueSize = 256

// Loop is the single control thread.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	logger *zap.Logger

	stopOnce sync.Once
}

func New(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		tasks:  make(chan func(), defaultQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes queued tasks until ctx is done. It blocks.
func (l *Loop) Run(ctx context.Context) {
	defer l.stopOnce.Do(func() { close(l.done) })

	l.logger.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped")
			return
		case task := <-l.tasks:
			l.execute(task)
		}
	}
}

// Post queues fn without waiting. It returns false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for its result. A panic in fn is returned as an error.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		result <- runGuarded(fn)
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

func runGuarded(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return fn()
}
