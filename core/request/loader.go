package request

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/pagekit/core/logger"
	"github.com/dmitrymomot/pagekit/pkg/async"
)

// AnyLoader is a loader with its value type erased, as stored on modules.
type AnyLoader interface {
	ID() string
	Load(ev *Event) (any, error)
}

// AnyAction is an action with its value type erased, as stored on modules.
type AnyAction interface {
	ID() string
	Run(ev *Event) (any, error)
}

// LoaderFunc produces a loader value.
type LoaderFunc[T any] func(ev *Event) (T, error)

// Loader is a typed, request-memoized data producer.
type Loader[T any] struct {
	id string
	fn LoaderFunc[T]
}

// NewLoader creates a loader identified by id.
func NewLoader[T any](id string, fn LoaderFunc[T]) *Loader[T] {
	return &Loader[T]{id: id, fn: fn}
}

// ID returns the loader identity.
func (l *Loader[T]) ID() string { return l.id }

// Load runs the producer. Use ResolveValue to get the memoized value.
func (l *Loader[T]) Load(ev *Event) (any, error) {
	return l.fn(ev)
}

// ActionFunc handles a submitted action. Return ev.Fail to reject the input.
type ActionFunc[T any] func(ev *Event) (T, error)

// Action is a typed loader variant triggered by form submissions.
type Action[T any] struct {
	id string
	fn ActionFunc[T]
}

// NewAction creates an action identified by id.
func NewAction[T any](id string, fn ActionFunc[T]) *Action[T] {
	return &Action[T]{id: id, fn: fn}
}

// ID returns the action identity.
func (a *Action[T]) ID() string { return a.id }

// Run executes the action.
func (a *Action[T]) Run(ev *Event) (any, error) {
	return a.fn(ev)
}

// ResolveValue returns the value of l for this request, running the producer at
// most once no matter how many callers ask for it concurrently.
func ResolveValue[T any](ev *Event, l *Loader[T]) (T, error) {
	v, err := ev.resolveLoader(l, false).Await()
	return cast[T](l.id, v, err)
}

// LoaderValue returns the value of a loader that already resolved successfully.
// It never starts or waits for a loader.
func (ev *Event) LoaderValue(id string) (any, bool) {
	return ev.loaders.Lookup(id)
}

// LoaderValues returns all successfully resolved loader values keyed by id.
func (ev *Event) LoaderValues() map[string]any {
	return ev.loaders.Values()
}

// DeferReturn is a handle to a loader value not needed for the current render pass.
type DeferReturn[T any] struct {
	id     string
	future *async.Future[any]
}

// Await blocks until the value is available.
func (d DeferReturn[T]) Await() (T, error) {
	v, err := d.future.Await()
	return cast[T](d.id, v, err)
}

// Done is closed once the value settles.
func (d DeferReturn[T]) Done() <-chan struct{} {
	return d.future.Done()
}

// Defer starts l in the background and returns a handle to its value. It shares
// memoization with ResolveValue.
func Defer[T any](ev *Event, l *Loader[T]) DeferReturn[T] {
	return DeferReturn[T]{id: l.id, future: ev.resolveLoader(l, true)}
}

// ResolveAction returns the outcome of a submitted action. The boolean is false
// when the action was not submitted with this request. A rejected submission
// returns a *FailReturn error.
func ResolveAction[T any](ev *Event, a *Action[T]) (T, bool, error) {
	f, ok := ev.loaders.Future(a.id)
	if !ok {
		var zero T
		return zero, false, nil
	}
	v, err := f.Await()
	out, err := cast[T](a.id, v, err)
	return out, true, err
}

func cast[T any](id string, v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrLoaderType, id, v)
	}
	return out, nil
}

// resolveLoader starts or joins the memoized execution of l.
func (ev *Event) resolveLoader(l AnyLoader, deferred bool) *async.Future[any] {
	producer := func(context.Context) (any, error) {
		return ev.runLoader(l.ID(), func() (any, error) { return l.Load(ev) })
	}
	if deferred {
		return ev.loaders.Defer(ev, l.ID(), producer)
	}
	return ev.loaders.Resolve(ev, l.ID(), producer)
}

// runLoader wraps one producer execution with a span, metrics and panic recovery.
func (ev *Event) runLoader(id string, fn func() (any, error)) (v any, err error) {
	_, span := ev.handler.tracer.Start(ev.ctx, "pagekit.loader",
		trace.WithAttributes(attribute.String("pagekit.loader.id", id)))
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
		d := time.Since(start)
		ev.handler.recorder.LoaderExecuted(id, err, d)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if _, ok := AsAbort(err); !ok {
				ev.logger.Warn("loader failed", logger.Loader(id), logger.Error(err), logger.Duration(d))
			}
		}
		span.End()
	}()

	return fn()
}
