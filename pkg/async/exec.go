package async

import (
	"context"
	"sync"
	"time"
)

// ExecFuture represents an asynchronous computation that only reports an error.
type ExecFuture struct {
	err  error
	once sync.Once
	done chan struct{}
}

func (f *ExecFuture) finish(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Await waits for the function to complete and returns its error.
func (f *ExecFuture) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout waits for completion with a timeout.
// Returns ErrTimeout if the function is still running when the timeout elapses.
func (f *ExecFuture) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// IsComplete reports whether the function has completed without blocking.
func (f *ExecFuture) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the function completes.
func (f *ExecFuture) Done() <-chan struct{} {
	return f.done
}

// Exec executes fn asynchronously. A panic inside fn completes the future with a *PanicError.
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	f := &ExecFuture{done: make(chan struct{})}

	go func() {
		defer func() {
			if p := recover(); p != nil {
				f.finish(&PanicError{Value: p})
			}
		}()

		select {
		case <-ctx.Done():
			f.finish(ctx.Err())
			return
		default:
		}

		f.finish(fn(ctx, param))
	}()

	return f
}
