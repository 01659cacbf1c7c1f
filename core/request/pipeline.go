package request

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/pagekit/core/binder"
	"github.com/dmitrymomot/pagekit/core/logger"
	"github.com/dmitrymomot/pagekit/pkg/async"
)

// QueryAction names the query parameter that selects the submitted action.
const QueryAction = "qaction"

// buildHandlers assembles the per-request handler list.
func buildHandlers(ev *Event) []HandlerFunc {
	handlers := []HandlerFunc{fixTrailingSlash}
	if ev.handler.checkOrigin {
		handlers = append(handlers, checkOrigin)
	}

	method := ev.Method()
	for _, m := range ev.match.Modules {
		handlers = append(handlers, m.OnRequest...)
		handlers = append(handlers, m.methodHandlers(method)...)
	}

	if ev.match.IsPage() {
		handlers = append(handlers, runAction, runLoaders)
	}
	return handlers
}

// Next runs the remaining handlers in order and returns once they finished.
// Code after Next in a handler runs after every downstream handler, in reverse
// order. It returns the AbortSignal that stopped the pipeline, if any; handlers
// should return it.
func (ev *Event) Next() error {
	for {
		ev.mu.Lock()
		if ev.abort != nil {
			sig := ev.abort
			ev.mu.Unlock()
			return sig
		}
		if ev.index >= len(ev.handlers) {
			ev.mu.Unlock()
			return nil
		}
		h := ev.handlers[ev.index]
		ev.index++
		ev.mu.Unlock()

		if err := ev.invoke(h); err != nil {
			return ev.abortWith(err)
		}

		ev.mu.Lock()
		exit := ev.exitSig
		ev.mu.Unlock()
		if exit != nil {
			return ev.abortWith(exit)
		}
	}
}

// invoke runs one handler, turning a panic into an error.
func (ev *Event) invoke(h HandlerFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
	}()
	return h(ev)
}

// abortWith moves the pipeline to the aborted state. The first signal wins.
// Errors that are not abort signals become an ErrorResponse.
func (ev *Event) abortWith(err error) AbortSignal {
	sig, ok := AsAbort(err)
	if !ok {
		sig = ev.errorResponseFor(err)
	}

	ev.mu.Lock()
	defer ev.mu.Unlock()
	if ev.abort == nil {
		ev.abort = sig
	}
	return ev.abort
}

func (ev *Event) errorResponseFor(err error) *ErrorResponse {
	status := statusOf(err)

	var pe *PanicError
	if errors.As(err, &pe) {
		ev.logger.Error("handler panicked", logger.Error(err), logger.Stack(pe.Stack()))
	} else if status >= http.StatusInternalServerError {
		ev.logger.Error("handler failed", logger.Error(err), logger.StatusCode(status))
	}

	message := err.Error()
	if status >= http.StatusInternalServerError && ev.mode != ModeDev {
		message = http.StatusText(status)
	}
	return &ErrorResponse{Status: status, Message: message, cause: err}
}

// aborted returns the signal that stopped the pipeline, or nil when it completed.
func (ev *Event) aborted() AbortSignal {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.abort
}

// fixTrailingSlash redirects page requests to their canonical path.
func fixTrailingSlash(ev *Event) error {
	if ev.mode == ModeStatic || !ev.match.IsPage() {
		return nil
	}
	if m := ev.Method(); m != http.MethodGet && m != http.MethodHead {
		return nil
	}

	p := ev.url.Path
	if p == "/" || p == ev.handler.basePathname {
		return nil
	}

	var target string
	switch hasSlash := strings.HasSuffix(p, "/"); {
	case ev.match.TrailingSlash && !hasSlash:
		target = p + "/"
	case !ev.match.TrailingSlash && hasSlash:
		target = strings.TrimSuffix(p, "/")
	default:
		return nil
	}
	if ev.url.RawQuery != "" {
		target += "?" + ev.url.RawQuery
	}
	return ev.Redirect(http.StatusMovedPermanently, target)
}

// checkOrigin rejects cross-origin form submissions to pages.
func checkOrigin(ev *Event) error {
	if !ev.match.IsPage() {
		return nil
	}
	switch ev.Method() {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil
	}
	if !binder.IsForm(ev.req) {
		return nil
	}

	origin := ev.url.Scheme + "://" + ev.url.Host
	if got := ev.req.Header.Get("Origin"); got != origin {
		return ev.Error(http.StatusForbidden, fmt.Sprintf(
			"Cross-site %s form submissions are forbidden: origin %q does not match %q",
			ev.Method(), got, origin))
	}
	return nil
}

// runAction executes the action selected by the qaction query parameter and
// stores its outcome for ResolveAction.
func runAction(ev *Event) error {
	if ev.Method() != http.MethodPost {
		return nil
	}
	id := ev.query.Get(QueryAction)
	if id == "" {
		return nil
	}

	var action AnyAction
	for _, m := range ev.match.Modules {
		for _, a := range m.Actions {
			if a.ID() == id {
				action = a
			}
		}
	}
	if action == nil {
		return ev.Error(http.StatusBadRequest, fmt.Sprintf("%s: %s", ErrUnknownAction, id))
	}

	ev.mu.Lock()
	ev.actionID = id
	ev.mu.Unlock()

	v, err := ev.runLoader(id, func() (any, error) { return action.Run(ev) })
	var fail *FailReturn
	switch {
	case errors.As(err, &fail):
		ev.logger.Debug("action rejected input", logger.Action(id), logger.StatusCode(fail.Status))
		return ev.loaders.Store(id, nil, fail)
	case err != nil:
		return err
	}
	return ev.loaders.Store(id, v, nil)
}

// runLoaders resolves every module loader concurrently before rendering.
// Loaders already started through Defer are not awaited.
func runLoaders(ev *Event) error {
	switch ev.Method() {
	case http.MethodGet, http.MethodHead, http.MethodPost:
	default:
		return nil
	}

	var futures []*async.Future[any]
	for _, m := range ev.match.Modules {
		for _, l := range m.Loaders {
			if ev.loaders.IsDeferred(l.ID()) {
				continue
			}
			futures = append(futures, ev.resolveLoader(l, false))
		}
	}

	// Stop waiting once the client is gone; the cells settle before completion
	var firstErr error
	for _, f := range futures {
		_, err := f.AwaitContext(ev)
		if err == nil {
			continue
		}
		if sig, ok := AsAbort(err); ok {
			return sig
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
