package pagekit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/pagekit/core/adapter"
	"github.com/dmitrymomot/pagekit/core/config"
	"github.com/dmitrymomot/pagekit/core/logger"
	"github.com/dmitrymomot/pagekit/core/metrics"
	"github.com/dmitrymomot/pagekit/core/request"
	"github.com/dmitrymomot/pagekit/core/server"
)

// App wires a route plan and renderer into an HTTP server.
type App struct {
	config   Config
	mode     request.Mode
	logger   *slog.Logger
	registry prometheus.Registerer
	tracer   trace.TracerProvider
	next     http.Handler
	server   *server.Server
	reqOpts  []request.Option

	handler *request.Handler
	http    http.Handler
}

// Option configures an App.
type Option func(*App) error

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) error {
		if l == nil {
			return fmt.Errorf("%w: logger", ErrNilOption)
		}
		a.logger = l
		return nil
	}
}

// WithRegisterer registers metrics with r instead of the default registerer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(a *App) error {
		if r == nil {
			return fmt.Errorf("%w: registerer", ErrNilOption)
		}
		a.registry = r
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *App) error {
		if tp == nil {
			return fmt.Errorf("%w: tracer provider", ErrNilOption)
		}
		a.tracer = tp
		return nil
	}
}

// WithNext sets the handler for requests no route answers, e.g. a static file server.
func WithNext(next http.Handler) Option {
	return func(a *App) error {
		if next == nil {
			return fmt.Errorf("%w: next handler", ErrNilOption)
		}
		a.next = next
		return nil
	}
}

// WithServer replaces the configured server.
func WithServer(s *server.Server) Option {
	return func(a *App) error {
		if s == nil {
			return fmt.Errorf("%w: server", ErrNilOption)
		}
		a.server = s
		return nil
	}
}

// WithRequestOptions appends request handler options.
func WithRequestOptions(opts ...request.Option) Option {
	return func(a *App) error {
		a.reqOpts = append(a.reqOpts, opts...)
		return nil
	}
}

// New loads Config from the environment and builds an App.
func New(plan request.Plan, renderer request.Renderer, opts ...Option) (*App, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, plan, renderer, opts...)
}

// NewFromConfig builds an App from cfg.
func NewFromConfig(cfg Config, plan request.Plan, renderer request.Renderer, opts ...Option) (*App, error) {
	mode, err := parseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, mode: mode}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.logger == nil {
		l, err := newLogger(cfg, mode)
		if err != nil {
			return nil, err
		}
		a.logger = l
	}

	jarOpts, err := cfg.Cookie.JarOptions()
	if err != nil {
		return nil, err
	}

	reqOpts := []request.Option{
		request.WithLogger(a.logger.With(logger.Component("request"))),
		request.WithCookieOptions(jarOpts...),
	}
	if a.tracer != nil {
		reqOpts = append(reqOpts, request.WithTracerProvider(a.tracer))
	}
	if cfg.MetricsEnabled || a.registry != nil {
		m, err := metrics.New(cfg.MetricsNamespace, a.registry)
		if err != nil {
			return nil, err
		}
		reqOpts = append(reqOpts, request.WithRecorder(m))
	}

	h, err := request.NewHandlerFromConfig(cfg.Request, plan, renderer, append(reqOpts, a.reqOpts...)...)
	if err != nil {
		return nil, err
	}
	a.handler = h
	a.http = adapter.New(h, a.next,
		adapter.WithMode(mode),
		adapter.WithLogger(a.logger.With(logger.Component("adapter"))),
	)

	if a.server == nil {
		s, err := server.NewFromConfig(cfg.Server, server.WithLogger(a.logger.With(logger.Component("server"))))
		if err != nil {
			return nil, err
		}
		a.server = s
	}

	return a, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.http.ServeHTTP(w, r)
}

// Handler returns the request handler.
func (a *App) Handler() *request.Handler { return a.handler }

// Server returns the HTTP server.
func (a *App) Server() *server.Server { return a.server }

// Mode returns the serving mode.
func (a *App) Mode() request.Mode { return a.mode }

// Run serves the app until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting pagekit", logger.Mode(string(a.mode)))
	return a.server.Run(ctx, a)
}

func parseMode(s string) (request.Mode, error) {
	switch m := request.Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return request.ModeServer, nil
	case request.ModeDev, request.ModeStatic, request.ModeServer:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func newLogger(cfg Config, mode request.Mode) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	env := logger.WithProduction(cfg.ServiceName)
	if mode == request.ModeDev {
		env = logger.WithDevelopment(cfg.ServiceName)
	}
	return logger.New(env, logger.WithLevel(level)), nil
}
