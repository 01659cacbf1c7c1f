package request

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/pagekit/core/head"
)

// HandlerFunc processes one step of the request pipeline. Returning an AbortSignal
// ends the pipeline; any other error is turned into an ErrorResponse.
type HandlerFunc func(ev *Event) error

// ModuleKind distinguishes route modules.
type ModuleKind int

// Module kinds.
const (
	KindEndpoint ModuleKind = iota
	KindLayout
	KindPage
)

// Heading is a document heading collected from page content.
type Heading struct {
	Text  string
	ID    string
	Level int
}

// StaticGenerate lists the parameter sets a static crawler should render.
type StaticGenerate struct {
	Params []map[string]string
}

// StaticGenerateFunc is carried on page modules for static crawlers.
type StaticGenerateFunc func(ctx context.Context, env EnvGetter) (StaticGenerate, error)

// Module is one entry of a matched route chain: a layout, a page, or a bare endpoint.
type Module struct {
	Kind ModuleKind

	OnRequest []HandlerFunc
	OnGet     []HandlerFunc
	OnPost    []HandlerFunc
	OnPut     []HandlerFunc
	OnPatch   []HandlerFunc
	OnDelete  []HandlerFunc
	OnHead    []HandlerFunc
	OnOptions []HandlerFunc

	Loaders []AnyLoader
	Actions []AnyAction

	Head             head.Source
	Component        any
	Headings         []Heading
	OnStaticGenerate StaticGenerateFunc
}

// methodHandlers returns the handlers registered for method.
// HEAD falls back to OnGet when the module has no OnHead handlers.
func (m *Module) methodHandlers(method string) []HandlerFunc {
	switch method {
	case http.MethodGet:
		return m.OnGet
	case http.MethodHead:
		if len(m.OnHead) > 0 {
			return m.OnHead
		}
		return m.OnGet
	case http.MethodPost:
		return m.OnPost
	case http.MethodPut:
		return m.OnPut
	case http.MethodPatch:
		return m.OnPatch
	case http.MethodDelete:
		return m.OnDelete
	case http.MethodOptions:
		return m.OnOptions
	}
	return nil
}

// RouteMatch is the output of a Plan for one pathname.
type RouteMatch struct {
	Params        map[string]string
	Modules       []*Module
	Menu          any
	TrailingSlash bool
}

// IsPage reports whether the chain ends with a page module.
func (m *RouteMatch) IsPage() bool {
	if m == nil || len(m.Modules) == 0 {
		return false
	}
	return m.Modules[len(m.Modules)-1].Kind == KindPage
}

// Plan resolves a pathname, relative to the base pathname, to a route chain.
type Plan interface {
	Match(pathname string) (*RouteMatch, bool)
}

// PlanFunc adapts a function to Plan.
type PlanFunc func(pathname string) (*RouteMatch, bool)

// Match calls f.
func (f PlanFunc) Match(pathname string) (*RouteMatch, bool) { return f(pathname) }

// Renderer renders the module chain of a completed pipeline.
type Renderer interface {
	Render(ev *Event, chain []*Module, doc head.Document) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ev *Event, chain []*Module, doc head.Document) error

// Render calls f.
func (f RendererFunc) Render(ev *Event, chain []*Module, doc head.Document) error {
	return f(ev, chain, doc)
}

// EnvGetter reads platform environment values.
type EnvGetter interface {
	Get(key string) (string, bool)
}

// EnvMap is an EnvGetter backed by a map.
type EnvMap map[string]string

// Get returns the value for key.
func (m EnvMap) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
