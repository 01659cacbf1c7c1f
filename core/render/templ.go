package render

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/pagekit/core/head"
	"github.com/dmitrymomot/pagekit/core/request"
)

// TemplComponent builds the templ component of one module. Layouts place
// children where the nested modules render.
type TemplComponent func(ev *request.Event, doc head.Document, children templ.Component) templ.Component

// Templ renders module chains built from templ components.
//
// A module Component may be a TemplComponent or a plain templ.Component. Plain
// components receive their children through templ's context, so a layout can
// use { children... }.
type Templ struct {
	opts options
}

// NewTempl creates a templ renderer.
func NewTempl(opts ...Option) *Templ {
	return &Templ{opts: newOptions(opts)}
}

// Render implements request.Renderer. The chain is nested outer layout first.
func (t *Templ) Render(ev *request.Event, chain []*request.Module, doc head.Document) error {
	root, err := nest(ev, chain, doc)
	if err != nil {
		return err
	}
	return write(ev, t.opts.buffered, func(w io.Writer) error {
		return root.Render(ev, w)
	})
}

func nest(ev *request.Event, chain []*request.Module, doc head.Document) (templ.Component, error) {
	var children templ.Component = templ.NopComponent
	found := false

	for i := len(chain) - 1; i >= 0; i-- {
		switch c := chain[i].Component.(type) {
		case nil:
			continue
		case TemplComponent:
			children = c(ev, doc, children)
		case func(*request.Event, head.Document, templ.Component) templ.Component:
			children = c(ev, doc, children)
		case templ.Component:
			children = withChildren(c, children)
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedComponent, c)
		}
		found = true
	}

	if !found {
		return nil, ErrNoComponent
	}
	return children, nil
}

func withChildren(c, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return c.Render(templ.WithChildren(ctx, children), w)
	})
}
