package async

import (
	"context"
	"sync"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	value U
	err   error
	once  sync.Once
	done  chan struct{}
}

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// complete settles the future. Only the first call has an effect.
func (f *Future[U]) complete(value U, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Await waits for the computation to complete and returns its result.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.value, f.err
}

// AwaitContext waits for the result or for ctx to be done, whichever comes first.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout waits for the result with a timeout.
// Returns ErrTimeout if the computation has not completed in time.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the computation has finished without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the future settles.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Async executes fn on a new goroutine and returns a future for its result.
// A panic inside fn settles the future with a *PanicError.
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	go func() {
		var zero U
		defer func() {
			if p := recover(); p != nil {
				f.complete(zero, &PanicError{Value: p})
			}
		}()

		// Early exit prevents running work for a request that is already gone
		select {
		case <-ctx.Done():
			f.complete(zero, ctx.Err())
			return
		default:
		}

		value, err := fn(ctx, param)
		f.complete(value, err)
	}()

	return f
}

// Resolved returns a future that is already settled with value and err.
func Resolved[U any](value U, err error) *Future[U] {
	f := newFuture[U]()
	f.complete(value, err)
	return f
}

// Promise returns an unsettled future together with the function that settles it.
// Calling settle more than once has no effect after the first call.
func Promise[U any]() (*Future[U], func(U, error)) {
	f := newFuture[U]()
	return f, f.complete
}

// WaitAll waits for all futures and returns their results in order.
// The first error encountered in order is returned after every future has settled.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var firstErr error
	for i, future := range futures {
		value, err := future.Await()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results[i] = value
	}
	return results, firstErr
}
