package adapter

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/dmitrymomot/pagekit/core/cookie"
	"github.com/dmitrymomot/pagekit/core/logger"
	"github.com/dmitrymomot/pagekit/core/request"
	"github.com/dmitrymomot/pagekit/pkg/clientip"
)

// Platform is what Event.Platform returns for requests served by this adapter.
type Platform struct {
	Writer   http.ResponseWriter
	Request  *http.Request
	ClientIP string
}

// PlatformOf returns the net/http platform of ev.
func PlatformOf(ev *request.Event) (Platform, bool) {
	p, ok := ev.Platform().(Platform)
	return p, ok
}

// OSEnv reads the process environment.
type OSEnv struct{}

// Get implements request.EnvGetter.
func (OSEnv) Get(key string) (string, bool) { return os.LookupEnv(key) }

type adapter struct {
	h      *request.Handler
	next   http.Handler
	mode   request.Mode
	env    request.EnvGetter
	logger *slog.Logger
}

// Option configures the adapter.
type Option func(*adapter)

// WithMode sets the serving mode. Defaults to request.ModeServer.
func WithMode(m request.Mode) Option {
	return func(a *adapter) {
		a.mode = m
	}
}

// WithEnv replaces the process environment getter.
func WithEnv(env request.EnvGetter) Option {
	return func(a *adapter) {
		if env != nil {
			a.env = env
		}
	}
}

// WithLogger sets the logger for adapter level failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an http.Handler serving requests through h. Requests that match
// no route, or finish without writing a response, are passed to next. A nil
// next responds with 404.
func New(h *request.Handler, next http.Handler, opts ...Option) http.Handler {
	a := &adapter{
		h:      h,
		next:   next,
		mode:   request.ModeServer,
		env:    OSEnv{},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.next == nil {
		a.next = http.NotFoundHandler()
	}
	return a
}

func (a *adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sr := request.ServerRequest[struct{}]{
		Mode:     a.mode,
		URL:      absoluteURL(r),
		Platform: Platform{Writer: w, Request: r, ClientIP: clientip.GetIP(r)},
		Request:  r,
		Env:      a.env,
		Writable: func(status int, headers http.Header, jar *cookie.Jar, resolve func(struct{}), _ *request.Event) (io.WriteCloser, error) {
			dst := w.Header()
			for k, vs := range headers {
				dst[k] = append([]string(nil), vs...)
			}
			cookie.MergeHeaders(dst, jar)

			rw := newResponseWriter(w)
			rw.WriteHeader(status)
			resolve(struct{}{})
			return rw, nil
		},
	}

	run, err := request.Handle(a.h, sr)
	if errors.Is(err, request.ErrNoRoute) {
		a.next.ServeHTTP(w, r)
		return
	}
	if err != nil {
		a.logger.Error("failed to start request pipeline", logger.Error(err), logger.Path(r.URL.Path))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// The pipeline writes to w from its own goroutine; w stays valid until it completes
	if err := run.Completion.Await(); err != nil {
		a.logger.Warn("request pipeline finished with error", logger.Error(err), logger.RequestID(run.Event.RequestID()))
	}
	if resp, _ := run.Response.Await(); resp == nil {
		a.next.ServeHTTP(w, r)
	}
}

// absoluteURL rebuilds the public request URL, honoring TLS and X-Forwarded-Proto.
func absoluteURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		proto, _, _ = strings.Cut(proto, ",")
		scheme = strings.ToLower(strings.TrimSpace(proto))
	}

	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
}
