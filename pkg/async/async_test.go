package async_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pagekit/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns value", func(t *testing.T) {
		f := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})
		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.True(t, f.IsComplete())
	})

	t.Run("propagates error", func(t *testing.T) {
		boom := errors.New("boom")
		f := async.Async(context.Background(), 0, func(context.Context, int) (string, error) {
			return "", boom
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("recovers panic", func(t *testing.T) {
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			panic("kaboom")
		})
		_, err := f.Await()
		var pe *async.PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "kaboom", pe.Value)
	})

	t.Run("cancelled context skips work", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var called atomic.Bool
		f := async.Async(ctx, 0, func(context.Context, int) (int, error) {
			called.Store(true)
			return 1, nil
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called.Load())
	})

	t.Run("timeout", func(t *testing.T) {
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			time.Sleep(200 * time.Millisecond)
			return 1, nil
		})
		_, err := f.AwaitWithTimeout(10 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)
	})
}

func TestPromise(t *testing.T) {
	t.Parallel()

	f, settle := async.Promise[string]()
	assert.False(t, f.IsComplete())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.Await()
			assert.NoError(t, err)
			assert.Equal(t, "first", v)
		}()
	}

	settle("first", nil)
	settle("second", nil)
	wg.Wait()
}

func TestResolved(t *testing.T) {
	t.Parallel()

	f := async.Resolved(7, nil)
	assert.True(t, f.IsComplete())
	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	double := func(_ context.Context, n int) (int, error) { return n * 2, nil }

	results, err := async.WaitAll(
		async.Async(ctx, 1, double),
		async.Async(ctx, 2, double),
		async.Async(ctx, 3, double),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, results)
}

func TestAwaitContext(t *testing.T) {
	t.Parallel()

	pending, settle := async.Promise[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pending.AwaitContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, pending.IsComplete())

	settle(3, nil)
	v, err := pending.AwaitContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestExec(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ok := async.Exec(context.Background(), "x", func(context.Context, string) error { return nil })
	bad := async.Exec(context.Background(), "y", func(context.Context, string) error { return boom })

	assert.NoError(t, ok.Await())
	assert.ErrorIs(t, bad.Await(), boom)
	assert.True(t, ok.IsComplete())

	panicky := async.Exec(context.Background(), 0, func(context.Context, int) error { panic("oops") })
	var pe *async.PanicError
	assert.ErrorAs(t, panicky.Await(), &pe)
	<-panicky.Done()
}
