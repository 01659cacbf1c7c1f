package request

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/pagekit/core/binder"
	"github.com/dmitrymomot/pagekit/core/cachecontrol"
	"github.com/dmitrymomot/pagekit/core/cookie"
	"github.com/dmitrymomot/pagekit/core/loader"
	"github.com/dmitrymomot/pagekit/core/logger"
)

// HeaderRequestID is read from the request and echoed on the response.
const HeaderRequestID = "X-Request-ID"

// Event is the per-request context passed through the handler pipeline.
// It implements context.Context by delegating to the request context.
//
// Status, header, cookie and body mutations are guarded so loaders running on
// their own goroutines may use the event. Once the response stream is obtained
// every such mutation is a protocol violation handled by the ViolationPolicy.
type Event struct {
	handler *Handler
	ctx     context.Context
	span    trace.Span
	start   time.Time

	req       *http.Request
	url       *url.URL
	params    map[string]string
	query     url.Values
	mode      Mode
	platform  any
	env       EnvGetter
	requestID string
	logger    *slog.Logger
	match     *RouteMatch
	policy    ViolationPolicy

	cookie  *cookie.Jar
	loaders *loader.Cache
	shared  *SharedMap

	mu          sync.Mutex
	status      int
	locale      string
	headers     http.Header
	headersSent bool
	responded   bool
	exitSig     AbortSignal
	abort       AbortSignal
	handlers    []HandlerFunc
	index       int
	actionID    string

	openMu   sync.Mutex
	stream   *stream
	open     func(status int, headers http.Header) (io.WriteCloser, error)
	onFinish func()

	bodyOnce sync.Once
	body     any
	bodyErr  error
}

// Deadline delegates to the request context.
func (ev *Event) Deadline() (time.Time, bool) { return ev.ctx.Deadline() }

// Done delegates to the request context.
func (ev *Event) Done() <-chan struct{} { return ev.ctx.Done() }

// Err delegates to the request context.
func (ev *Event) Err() error { return ev.ctx.Err() }

// Value delegates to the request context.
func (ev *Event) Value(key any) any { return ev.ctx.Value(key) }

// Method returns the request method.
func (ev *Event) Method() string { return ev.req.Method }

// URL returns a copy of the absolute request URL.
func (ev *Event) URL() *url.URL {
	u := *ev.url
	return &u
}

// Pathname returns the request path.
func (ev *Event) Pathname() string { return ev.url.Path }

// BasePathname returns the base pathname the application is mounted at.
func (ev *Event) BasePathname() string { return ev.handler.basePathname }

// Params returns the matched route parameters.
func (ev *Event) Params() map[string]string { return ev.params }

// Param returns one route parameter.
func (ev *Event) Param(name string) string { return ev.params[name] }

// Query returns the parsed query string.
func (ev *Event) Query() url.Values { return ev.query }

// Request returns the underlying HTTP request.
func (ev *Event) Request() *http.Request { return ev.req }

// Platform returns the platform-specific handle supplied by the adapter.
func (ev *Event) Platform() any { return ev.platform }

// Env returns the platform environment accessor.
func (ev *Event) Env() EnvGetter { return ev.env }

// Mode returns the serving mode.
func (ev *Event) Mode() Mode { return ev.mode }

// RequestID returns the request identifier.
func (ev *Event) RequestID() string { return ev.requestID }

// Logger returns a logger annotated with request attributes.
func (ev *Event) Logger() *slog.Logger { return ev.logger }

// Cookie returns the request cookie jar.
func (ev *Event) Cookie() *cookie.Jar { return ev.cookie }

// SharedMap returns the request-scoped scratch map.
func (ev *Event) SharedMap() *SharedMap { return ev.shared }

// Headers returns a copy of the response headers. Use SetHeader, AddHeader and
// DelHeader to change them.
func (ev *Event) Headers() http.Header {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.headers.Clone()
}

// SetHeader replaces the response header key. It fails with ErrHeadersSent once
// the response stream was obtained.
func (ev *Event) SetHeader(key, value string) error {
	return ev.mutateHeaders(func(h http.Header) { h.Set(key, value) })
}

// AddHeader appends a value to the response header key.
func (ev *Event) AddHeader(key, value string) error {
	return ev.mutateHeaders(func(h http.Header) { h.Add(key, value) })
}

// DelHeader removes the response header key.
func (ev *Event) DelHeader(key string) error {
	return ev.mutateHeaders(func(h http.Header) { h.Del(key) })
}

func (ev *Event) mutateHeaders(fn func(h http.Header)) error {
	ev.mu.Lock()
	sent := ev.headersSent
	if !sent {
		fn(ev.headers)
	}
	ev.mu.Unlock()

	if sent {
		return ev.violation("headers_sent", ErrHeadersSent)
	}
	return nil
}

// Status returns the current response status.
func (ev *Event) Status() int {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.status
}

// SetStatus sets the response status. It fails with ErrHeadersSent once the
// response stream was obtained.
func (ev *Event) SetStatus(code int) error {
	if code < 100 || code > 599 {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, code)
	}

	ev.mu.Lock()
	sent := ev.headersSent
	if !sent {
		ev.status = code
	}
	ev.mu.Unlock()

	if sent {
		return ev.violation("headers_sent", ErrHeadersSent)
	}
	return nil
}

// Locale returns the request locale.
func (ev *Event) Locale() string {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.locale
}

// SetLocale sets the request locale. Valid BCP 47 tags are canonicalized.
func (ev *Event) SetLocale(v string) {
	if tag, err := language.Parse(v); err == nil {
		v = tag.String()
	}
	ev.mu.Lock()
	ev.locale = v
	ev.mu.Unlock()
}

// HeadersSent reports whether the response stream was obtained.
func (ev *Event) HeadersSent() bool {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.headersSent
}

// Exited reports whether the pipeline was told to stop.
func (ev *Event) Exited() bool {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.exitSig != nil || ev.abort != nil
}

// IsDirty reports whether a response body was written or the stream obtained.
func (ev *Event) IsDirty() bool {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.responded || ev.headersSent
}

var duplicateSlashes = regexp.MustCompile(`([^:])/{2,}`)

// Redirect sets the status and Location header and returns a *RedirectMessage
// that the handler should return. The pipeline stops after the current handler
// even when the signal is dropped.
func (ev *Event) Redirect(code int, location string) error {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return fmt.Errorf("%w: %d", ErrInvalidRedirectCode, code)
	}

	fixed := duplicateSlashes.ReplaceAllString(location, "$1/")
	if fixed != location {
		ev.logger.Warn("redirect location contains duplicate slashes", slog.String("location", location))
	}

	ev.mu.Lock()
	if ev.headersSent {
		ev.mu.Unlock()
		return ev.violation("headers_sent", ErrHeadersSent)
	}
	ev.status = code
	ev.headers.Set("Location", fixed)
	if code != http.StatusMovedPermanently && ev.headers.Get("Cache-Control") == "" {
		ev.headers.Set("Cache-Control", "no-store")
	}
	sig := &RedirectMessage{Code: code, Location: fixed}
	ev.markExitLocked(sig)
	ev.mu.Unlock()

	return sig
}

// Error builds an ErrorResponse. It does not touch the response; return it
// from a handler to render the error page.
func (ev *Event) Error(status int, message string) *ErrorResponse {
	return NewErrorResponse(status, message)
}

// Exit stops the pipeline without writing a body.
func (ev *Event) Exit() error {
	sig := &ExitMessage{}
	ev.mu.Lock()
	ev.markExitLocked(sig)
	ev.mu.Unlock()
	return sig
}

// Fail sets status and returns a *FailReturn for an action to return.
func (ev *Event) Fail(status int, data any) error {
	if err := ev.SetStatus(status); err != nil {
		return err
	}
	return &FailReturn{Status: status, Data: data}
}

// ParseBody decodes the request body once and returns the same value on every call.
func (ev *Event) ParseBody() (any, error) {
	ev.bodyOnce.Do(func() {
		ev.body, ev.bodyErr = binder.Parse(ev.req, ev.handler.maxBodySize)
	})
	return ev.body, ev.bodyErr
}

// CacheControl sets the Cache-Control header, replacing any earlier value.
func (ev *Event) CacheControl(d cachecontrol.Directive) error {
	return ev.CacheControlFor("Cache-Control", d)
}

// CacheControlFor sets a cache directive on a specific header such as CDN-Cache-Control.
func (ev *Event) CacheControlFor(header string, d cachecontrol.Directive) error {
	return ev.SetHeader(header, d.Value())
}

// markExitLocked records the first exit signal. ev.mu must be held.
func (ev *Event) markExitLocked(sig AbortSignal) {
	if ev.exitSig == nil {
		ev.exitSig = sig
	}
}

// violation applies the configured policy to a response protocol violation.
// It never runs with ev.mu held.
func (ev *Event) violation(kind string, err error) error {
	ev.handler.recorder.ViolationObserved(kind)
	switch ev.policy {
	case ViolationPanic:
		panic(err)
	case ViolationLog:
		ev.logger.Warn("response protocol violation", logger.Error(err))
		return nil
	default:
		return err
	}
}
