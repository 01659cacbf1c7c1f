package route

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/pagekit/core/request"
)

// Route is a registered pattern with its module chain, outer layout first.
type Route struct {
	Pattern string
	Modules []*request.Module
	Menu    any
}

// Table is a request.Plan backed by a segment tree. It is safe for concurrent
// use; routes may be added while requests are matched.
type Table struct {
	mu            sync.RWMutex
	root          *node
	routes        map[string]*Route
	trailingSlash bool
}

// Option configures a Table.
type Option func(*Table)

// WithTrailingSlash makes page URLs canonical with a trailing slash.
func WithTrailingSlash(enabled bool) Option {
	return func(t *Table) {
		t.trailingSlash = enabled
	}
}

// New creates an empty route table.
func New(opts ...Option) *Table {
	t := &Table{
		root:   &node{},
		routes: make(map[string]*Route),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add registers a module chain for pattern.
func (t *Table) Add(pattern string, modules ...*request.Module) error {
	return t.AddRoute(Route{Pattern: pattern, Modules: modules})
}

// AddRoute registers r. Registering the same pattern twice fails.
func (t *Table) AddRoute(r Route) error {
	if len(r.Modules) == 0 {
		return fmt.Errorf("%w: %s", ErrNoModules, r.Pattern)
	}
	segs, err := parsePattern(r.Pattern)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rt := r
	if !t.root.insert(segs, &rt) {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, r.Pattern)
	}
	t.routes[r.Pattern] = &rt
	return nil
}

// MustAdd is like Add but panics on error.
func (t *Table) MustAdd(pattern string, modules ...*request.Module) {
	if err := t.Add(pattern, modules...); err != nil {
		panic(err)
	}
}

// Match implements request.Plan.
func (t *Table) Match(pathname string) (*request.RouteMatch, bool) {
	params := make(map[string]string)

	t.mu.RLock()
	r := t.root.find(splitPath(pathname), params)
	t.mu.RUnlock()

	if r == nil {
		return nil, false
	}
	return &request.RouteMatch{
		Params:        params,
		Modules:       r.Modules,
		Menu:          r.Menu,
		TrailingSlash: t.trailingSlash,
	}, true
}

// Routes returns the registered routes sorted by pattern.
func (t *Table) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Route, 0, len(t.routes))
	for _, p := range slices.Sorted(maps.Keys(t.routes)) {
		out = append(out, *t.routes[p])
	}
	return out
}
