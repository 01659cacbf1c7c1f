package loader_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pagekit/core/loader"
)

func TestCacheResolve(t *testing.T) {
	t.Parallel()

	t.Run("producer runs once for concurrent callers", func(t *testing.T) {
		cache := loader.New()
		var calls atomic.Int32
		release := make(chan struct{})

		producer := func(context.Context) (any, error) {
			calls.Add(1)
			<-release
			return "value", nil
		}

		const callers = 50
		var wg sync.WaitGroup
		results := make([]any, callers)
		for i := range callers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := cache.Resolve(context.Background(), "user", producer).Await()
				assert.NoError(t, err)
				results[i] = v
			}(i)
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for _, v := range results {
			assert.Equal(t, "value", v)
		}
	})

	t.Run("same future is returned", func(t *testing.T) {
		cache := loader.New()
		producer := func(context.Context) (any, error) { return 1, nil }
		f1 := cache.Resolve(context.Background(), "a", producer)
		f2 := cache.Resolve(context.Background(), "a", producer)
		assert.Same(t, f1, f2)
	})

	t.Run("failure is memoized", func(t *testing.T) {
		cache := loader.New()
		boom := errors.New("boom")
		var calls atomic.Int32
		producer := func(context.Context) (any, error) {
			calls.Add(1)
			return nil, boom
		}

		_, err := cache.Resolve(context.Background(), "a", producer).Await()
		require.ErrorIs(t, err, boom)
		_, err = cache.Resolve(context.Background(), "a", producer).Await()
		require.ErrorIs(t, err, boom)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, loader.Failed, cache.State("a"))
	})

	t.Run("empty id", func(t *testing.T) {
		cache := loader.New()
		_, err := cache.Resolve(context.Background(), "", func(context.Context) (any, error) {
			return nil, nil
		}).Await()
		assert.ErrorIs(t, err, loader.ErrEmptyID)
	})

	t.Run("on start hook fires once per id", func(t *testing.T) {
		var started []string
		var mu sync.Mutex
		cache := loader.New(loader.WithOnStart(func(id string) {
			mu.Lock()
			started = append(started, id)
			mu.Unlock()
		}))
		producer := func(context.Context) (any, error) { return nil, nil }
		cache.Resolve(context.Background(), "a", producer)
		cache.Resolve(context.Background(), "a", producer)
		cache.Defer(context.Background(), "b", producer)
		require.NoError(t, cache.Wait())

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"a", "b"}, started)
	})
}

func TestCacheDefer(t *testing.T) {
	t.Parallel()

	cache := loader.New()
	var calls atomic.Int32
	producer := func(context.Context) (any, error) {
		calls.Add(1)
		return 7, nil
	}

	deferred := cache.Defer(context.Background(), "count", producer)
	resolved := cache.Resolve(context.Background(), "count", producer)
	assert.Same(t, deferred, resolved)
	assert.True(t, cache.IsDeferred("count"))

	v, err := resolved.Await()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheLookup(t *testing.T) {
	t.Parallel()

	cache := loader.New()
	release := make(chan struct{})
	f := cache.Resolve(context.Background(), "slow", func(context.Context) (any, error) {
		<-release
		return "done", nil
	})

	_, ok := cache.Lookup("slow")
	assert.False(t, ok, "pending value must not be visible")
	assert.Equal(t, loader.Pending, cache.State("slow"))

	close(release)
	_, err := f.Await()
	require.NoError(t, err)

	v, ok := cache.Lookup("slow")
	assert.True(t, ok)
	assert.Equal(t, "done", v)
	assert.Equal(t, loader.Resolved, cache.State("slow"))

	_, ok = cache.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, loader.Absent, cache.State("missing"))
}

func TestCacheStore(t *testing.T) {
	t.Parallel()

	cache := loader.New()
	require.NoError(t, cache.Store("action", map[string]any{"ok": true}, nil))
	assert.ErrorIs(t, cache.Store("action", nil, nil), loader.ErrAlreadyResolved)
	assert.ErrorIs(t, cache.Store("", nil, nil), loader.ErrEmptyID)

	var calls atomic.Int32
	v, err := cache.Resolve(context.Background(), "action", func(context.Context) (any, error) {
		calls.Add(1)
		return nil, nil
	}).Await()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, v)
	assert.Zero(t, calls.Load())
}

func TestCacheWaitAndValues(t *testing.T) {
	t.Parallel()

	cache := loader.New()
	boom := errors.New("boom")
	cache.Resolve(context.Background(), "a", func(context.Context) (any, error) { return 1, nil })
	cache.Resolve(context.Background(), "b", func(context.Context) (any, error) { return nil, boom })
	cache.Resolve(context.Background(), "c", func(context.Context) (any, error) {
		time.Sleep(10 * time.Millisecond)
		return 3, nil
	})

	assert.ErrorIs(t, cache.Wait(), boom)
	assert.Equal(t, []string{"a", "b", "c"}, cache.IDs())
	assert.Equal(t, map[string]any{"a": 1, "c": 3}, cache.Values())
}
