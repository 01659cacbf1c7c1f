// Package loader provides the per-request memoized store of data-loader results.
//
// Each loader id maps to exactly one outcome per request. The first Resolve (or Defer)
// for an id starts the producer on its own goroutine and stores the future; every later
// or concurrent caller receives the same future, so a producer runs at most once.
//
//	cache := loader.New()
//	f := cache.Resolve(ctx, "user", func(ctx context.Context) (any, error) {
//		return repo.User(ctx, id)
//	})
//	user, err := f.Await()
//
//	// Synchronous access mode, e.g. while building the document head
//	if v, ok := cache.Lookup("user"); ok { ... }
package loader

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrymomot/pagekit/pkg/async"
)

// Producer computes a loader value.
type Producer func(ctx context.Context) (any, error)

// State describes the outcome of a cell.
type State int

// Cell states.
const (
	Absent State = iota
	Pending
	Resolved
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "absent"
	}
}

type cell struct {
	future   *async.Future[any]
	deferred bool
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	cells   map[string]*cell
	order   []string
	onStart func(id string)
}

// Option configures a Cache.
type Option func(*Cache)

// WithOnStart registers a hook called once per producer execution, before it starts.
func WithOnStart(fn func(id string)) Option {
	return func(c *Cache) {
		c.onStart = fn
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{cells: make(map[string]*cell)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the future for id, starting producer if id has no cell yet.
func (c *Cache) Resolve(ctx context.Context, id string, producer Producer) *async.Future[any] {
	return c.start(ctx, id, producer, false)
}

// Defer behaves like Resolve but marks the cell as deferred: its value is not needed for
// the current render pass and may be awaited later.
func (c *Cache) Defer(ctx context.Context, id string, producer Producer) *async.Future[any] {
	return c.start(ctx, id, producer, true)
}

func (c *Cache) start(ctx context.Context, id string, producer Producer, deferred bool) *async.Future[any] {
	if id == "" {
		return async.Resolved[any](nil, ErrEmptyID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.cells[id]; ok {
		return existing.future
	}

	if c.onStart != nil {
		c.onStart(id)
	}
	f := async.Async(ctx, id, func(ctx context.Context, _ string) (any, error) {
		return producer(ctx)
	})
	c.cells[id] = &cell{future: f, deferred: deferred}
	c.order = append(c.order, id)
	return f
}

// Store records a pre-resolved outcome for id.
// Fails with ErrAlreadyResolved when id already has a cell.
func (c *Cache) Store(id string, value any, err error) error {
	if id == "" {
		return ErrEmptyID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cells[id]; ok {
		return ErrAlreadyResolved
	}
	c.cells[id] = &cell{future: async.Resolved(value, err)}
	c.order = append(c.order, id)
	return nil
}

// Lookup is the synchronous access mode: it returns the value only when the cell for id
// has resolved successfully, without waiting.
func (c *Cache) Lookup(id string) (any, bool) {
	c.mu.Lock()
	cl, ok := c.cells[id]
	c.mu.Unlock()

	if !ok || !cl.future.IsComplete() {
		return nil, false
	}
	v, err := cl.future.Await()
	if err != nil {
		return nil, false
	}
	return v, true
}

// Future returns the future for id without starting anything.
func (c *Cache) Future(id string) (*async.Future[any], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.cells[id]
	if !ok {
		return nil, false
	}
	return cl.future, true
}

// State reports the state of the cell for id.
func (c *Cache) State(id string) State {
	c.mu.Lock()
	cl, ok := c.cells[id]
	c.mu.Unlock()

	switch {
	case !ok:
		return Absent
	case !cl.future.IsComplete():
		return Pending
	}
	if _, err := cl.future.Await(); err != nil {
		return Failed
	}
	return Resolved
}

// IsDeferred reports whether the cell for id was registered through Defer.
func (c *Cache) IsDeferred(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.cells[id]
	return ok && cl.deferred
}

// IDs returns the ids of all cells in registration order.
func (c *Cache) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

// Values returns the successfully resolved values keyed by id.
func (c *Cache) Values() map[string]any {
	values := make(map[string]any)
	for _, id := range c.IDs() {
		if v, ok := c.Lookup(id); ok {
			values[id] = v
		}
	}
	return values
}

// Wait blocks until every cell registered so far has settled and returns the first
// producer error in registration order.
func (c *Cache) Wait() error {
	c.mu.Lock()
	futures := make([]*async.Future[any], 0, len(c.order))
	for _, id := range c.order {
		futures = append(futures, c.cells[id].future)
	}
	c.mu.Unlock()

	_, err := async.WaitAll(futures...)
	return err
}
