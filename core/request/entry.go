package request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/pagekit/core/cookie"
	"github.com/dmitrymomot/pagekit/core/loader"
	"github.com/dmitrymomot/pagekit/core/logger"
	"github.com/dmitrymomot/pagekit/pkg/async"
)

// ResponseHandler is supplied by the platform adapter. It is called once, when the
// response stream is first needed, with the frozen status, headers and cookies.
// The adapter calls resolve with its response value and returns the body writer.
type ResponseHandler[T any] func(
	status int,
	headers http.Header,
	cookies *cookie.Jar,
	resolve func(T),
	ev *Event,
) (io.WriteCloser, error)

// ServerRequest describes one incoming platform request.
type ServerRequest[T any] struct {
	Mode     Mode
	URL      *url.URL
	Locale   string
	Platform any
	Request  *http.Request
	Env      EnvGetter
	Writable ResponseHandler[T]
}

// Run is the result of Handle.
type Run[T any] struct {
	// Response settles when the adapter resolves a response value, or with nil once
	// the request finished without writing anything so the platform can fall through.
	Response *async.Future[*T]
	// Event is the request context driving the pipeline.
	Event *Event
	// Completion settles when rendering, stream shutdown and deferred loaders are done.
	Completion *async.ExecFuture
}

// Handle matches the request against the plan and starts the pipeline on its
// own goroutine. It returns ErrNoRoute when nothing matches.
func Handle[T any](h *Handler, sr ServerRequest[T]) (*Run[T], error) {
	if h == nil || h.plan == nil {
		return nil, ErrNilPlan
	}
	if sr.Writable == nil {
		return nil, ErrNilWritable
	}

	req := sr.Request
	u := sr.URL
	if u == nil && req != nil {
		u = req.URL
	}
	if u == nil || !u.IsAbs() {
		return nil, ErrInvalidURL
	}
	if req == nil {
		r, err := http.NewRequestWithContext(context.Background(), http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, ErrInvalidURL
		}
		req = r
	}

	rel, ok := h.relativePath(u.Path)
	if !ok {
		return nil, ErrNoRoute
	}
	match, ok := h.plan.Match(rel)
	if !ok || match == nil {
		return nil, ErrNoRoute
	}

	response, settle := async.Promise[*T]()
	ev := newEvent(h, sr.Mode, u, req, match)
	ev.platform = sr.Platform
	ev.env = sr.Env
	if ev.env == nil {
		ev.env = EnvMap{}
	}
	if sr.Locale != "" {
		ev.SetLocale(sr.Locale)
	}

	resolve := func(v T) { settle(&v, nil) }
	ev.open = func(status int, headers http.Header) (io.WriteCloser, error) {
		return sr.Writable(status, headers, ev.cookie, resolve, ev)
	}
	ev.onFinish = func() { settle(nil, nil) }
	ev.handlers = buildHandlers(ev)

	// The pipeline always finalizes, even when the client went away
	completion := async.Exec(context.WithoutCancel(ev.ctx), ev, func(_ context.Context, ev *Event) error {
		return ev.run()
	})

	return &Run[T]{Response: response, Event: ev, Completion: completion}, nil
}

func newEvent(h *Handler, mode Mode, u *url.URL, req *http.Request, match *RouteMatch) *Event {
	if mode == "" {
		mode = ModeServer
	}

	requestID := req.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, span := h.tracer.Start(req.Context(), "pagekit.request",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("url.path", u.Path),
			attribute.String("pagekit.mode", string(mode)),
			attribute.String("pagekit.request_id", requestID),
		))

	params := match.Params
	if params == nil {
		params = map[string]string{}
	}

	ev := &Event{
		handler:   h,
		ctx:       ctx,
		span:      span,
		start:     time.Now(),
		req:       req,
		url:       u,
		params:    params,
		query:     u.Query(),
		mode:      mode,
		requestID: requestID,
		match:     match,
		policy:    h.policyFor(mode),
		shared:    newSharedMap(),
		status:    http.StatusOK,
		locale:    h.negotiateLocale(req.Header.Get("Accept-Language")),
		headers:   make(http.Header),
	}
	jarOpts := append(slices.Clip(h.jarOpts), cookie.WithFrozenHandler(func(err error) error {
		return ev.violation("headers_sent", fmt.Errorf("%w: %w", ErrHeadersSent, err))
	}))
	ev.cookie = cookie.FromRequest(req, jarOpts...)
	ev.logger = h.logger.With(
		logger.RequestID(requestID),
		logger.Method(req.Method),
		logger.Path(u.Path),
	)
	ev.loaders = loader.New(loader.WithOnStart(func(id string) {
		ev.logger.Debug("loader started", logger.Loader(id))
	}))
	ev.headers.Set(HeaderRequestID, requestID)
	return ev
}
