package job

import (
	"context"
	"time"
)

// Task runs a callback on every tick until cancelled. Once Cancel returns no
// new callback starts; one already running sees its context cancelled.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// StartTask begins ticking immediately. The first callback runs after one interval.
func StartTask(parent context.Context, clock Clock, interval time.Duration, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{ctx: ctx, cancel: cancel, done: make(chan struct{})}

	ticker := clock.NewTicker(interval)
	go func() {
		defer close(t.done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				// select picks randomly when both are ready
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()

	return t
}

func (t *Task) Cancel() {
	t.cancel()
}

func (t *Task) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Done is closed once the tick goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Wait() {
	<-t.done
}
