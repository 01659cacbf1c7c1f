package request

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/pagekit/core/binder"
	"github.com/dmitrymomot/pagekit/core/cookie"
	"github.com/dmitrymomot/pagekit/core/logger"
)

const tracerName = "github.com/dmitrymomot/pagekit/core/request"

// Mode is the serving mode of a request.
type Mode string

// Serving modes.
const (
	ModeDev    Mode = "dev"
	ModeStatic Mode = "static"
	ModeServer Mode = "server"
)

// ViolationPolicy decides what happens on response protocol violations such as
// writing a second response or changing status after headers were sent.
type ViolationPolicy int

// Violation policies. ViolationDefault panics in dev mode and returns errors otherwise.
const (
	ViolationDefault ViolationPolicy = iota
	ViolationPanic
	ViolationError
	ViolationLog
)

// String returns the policy name.
func (p ViolationPolicy) String() string {
	switch p {
	case ViolationPanic:
		return "panic"
	case ViolationError:
		return "error"
	case ViolationLog:
		return "log"
	default:
		return "default"
	}
}

// ParseViolationPolicy parses "panic", "error", "log" or an empty string.
func ParseViolationPolicy(s string) (ViolationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ViolationDefault, nil
	case "panic":
		return ViolationPanic, nil
	case "error":
		return ViolationError, nil
	case "log":
		return ViolationLog, nil
	}
	return ViolationDefault, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// Recorder receives pipeline measurements.
type Recorder interface {
	RequestFinished(outcome string, status int, d time.Duration)
	LoaderExecuted(id string, err error, d time.Duration)
	ViolationObserved(kind string)
}

type nopRecorder struct{}

func (nopRecorder) RequestFinished(string, int, time.Duration)  {}
func (nopRecorder) LoaderExecuted(string, error, time.Duration) {}
func (nopRecorder) ViolationObserved(string)                    {}

// Handler turns platform requests into pipeline runs. It is safe for concurrent use.
type Handler struct {
	plan     Plan
	renderer Renderer

	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
	policy   ViolationPolicy

	basePathname  string
	checkOrigin   bool
	maxBodySize   int64
	defaultLocale string
	locales       []language.Tag
	matcher       language.Matcher
	jarOpts       []cookie.JarOption
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Handler) {
		if tp != nil {
			h.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(h *Handler) {
		if r != nil {
			h.recorder = r
		}
	}
}

// WithViolationPolicy overrides the mode-dependent violation policy.
func WithViolationPolicy(p ViolationPolicy) Option {
	return func(h *Handler) {
		h.policy = p
	}
}

// WithBasePathname mounts the application below a path prefix such as "/docs/".
func WithBasePathname(base string) Option {
	return func(h *Handler) {
		h.basePathname = normalizeBase(base)
	}
}

// WithCheckOrigin toggles the cross-origin check for form submissions. Enabled by default.
func WithCheckOrigin(enabled bool) Option {
	return func(h *Handler) {
		h.checkOrigin = enabled
	}
}

// WithMaxBodySize caps the size of parsed request bodies.
func WithMaxBodySize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// WithLocales sets the default locale and the locales negotiated from Accept-Language.
// Invalid tags are ignored.
func WithLocales(defaultLocale string, supported ...string) Option {
	return func(h *Handler) {
		h.defaultLocale = defaultLocale
		h.locales = h.locales[:0]
		for _, s := range supported {
			if tag, err := language.Parse(s); err == nil {
				h.locales = append(h.locales, tag)
			}
		}
		if len(h.locales) > 0 {
			h.matcher = language.NewMatcher(h.locales)
		} else {
			h.matcher = nil
		}
	}
}

// WithCookieOptions configures every request cookie jar.
func WithCookieOptions(opts ...cookie.JarOption) Option {
	return func(h *Handler) {
		h.jarOpts = append(h.jarOpts, opts...)
	}
}

// NewHandler creates a Handler. renderer may be nil for endpoint-only applications.
func NewHandler(plan Plan, renderer Renderer, opts ...Option) *Handler {
	h := &Handler{
		plan:         plan,
		renderer:     renderer,
		logger:       logger.Discard(),
		tracer:       otel.GetTracerProvider().Tracer(tracerName),
		recorder:     nopRecorder{},
		basePathname: "/",
		checkOrigin:  true,
		maxBodySize:  binder.DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Config holds env-tagged handler settings.
type Config struct {
	BasePathname    string   `env:"PAGEKIT_BASE_PATHNAME" envDefault:"/"`
	CheckOrigin     bool     `env:"PAGEKIT_CHECK_ORIGIN" envDefault:"true"`
	MaxBodySize     int64    `env:"PAGEKIT_MAX_BODY_SIZE" envDefault:"1048576"`
	ViolationPolicy string   `env:"PAGEKIT_VIOLATION_POLICY"`
	DefaultLocale   string   `env:"PAGEKIT_DEFAULT_LOCALE" envDefault:"en"`
	Locales         []string `env:"PAGEKIT_LOCALES" envSeparator:","`
}

// NewHandlerFromConfig creates a Handler from cfg. Options are applied after the config.
func NewHandlerFromConfig(cfg Config, plan Plan, renderer Renderer, opts ...Option) (*Handler, error) {
	policy, err := ParseViolationPolicy(cfg.ViolationPolicy)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithBasePathname(cfg.BasePathname),
		WithCheckOrigin(cfg.CheckOrigin),
		WithMaxBodySize(cfg.MaxBodySize),
		WithViolationPolicy(policy),
		WithLocales(cfg.DefaultLocale, cfg.Locales...),
	}
	return NewHandler(plan, renderer, append(base, opts...)...), nil
}

// relativePath strips the base pathname. The result always starts with "/".
func (h *Handler) relativePath(pathname string) (string, bool) {
	if h.basePathname == "/" {
		if pathname == "" {
			return "/", true
		}
		return pathname, strings.HasPrefix(pathname, "/")
	}
	if pathname == strings.TrimSuffix(h.basePathname, "/") {
		return "/", true
	}
	rest, ok := strings.CutPrefix(pathname, h.basePathname)
	if !ok {
		return "", false
	}
	return "/" + rest, true
}

// negotiateLocale picks a supported locale from an Accept-Language header.
func (h *Handler) negotiateLocale(acceptLanguage string) string {
	if h.matcher == nil || acceptLanguage == "" {
		return h.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return h.defaultLocale
	}
	_, idx, conf := h.matcher.Match(tags...)
	if conf == language.No {
		return h.defaultLocale
	}
	return h.locales[idx].String()
}

func (h *Handler) policyFor(mode Mode) ViolationPolicy {
	if h.policy != ViolationDefault {
		return h.policy
	}
	if mode == ModeDev {
		return ViolationPanic
	}
	return ViolationError
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
