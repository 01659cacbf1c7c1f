package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/dmitrymomot/pagekit/core/head"
	"github.com/dmitrymomot/pagekit/core/request"
)

// TemplateData is passed to every template in the chain.
type TemplateData struct {
	Head     head.Document
	Params   map[string]string
	Locale   string
	Pathname string
	// Values holds the resolved loader values keyed by loader id.
	Values map[string]any
	// Children is the rendered output of the nested modules. It is empty for the page.
	Children template.HTML
	Event    *request.Event
}

// Template renders module chains with html/template. A module Component is the
// name of a template defined in the set. The page renders first and each
// layout receives the inner output as Children, so rendering is always
// buffered.
type Template struct {
	tmpl *template.Template
}

// NewTemplate creates an html/template renderer over a parsed template set.
func NewTemplate(tmpl *template.Template) *Template {
	return &Template{tmpl: tmpl}
}

// Render implements request.Renderer.
func (t *Template) Render(ev *request.Event, chain []*request.Module, doc head.Document) error {
	if t.tmpl == nil {
		return ErrNilTemplate
	}

	data := TemplateData{
		Head:     doc,
		Params:   ev.Params(),
		Locale:   ev.Locale(),
		Pathname: ev.Pathname(),
		Values:   ev.LoaderValues(),
		Event:    ev,
	}

	found := false
	for i := len(chain) - 1; i >= 0; i-- {
		var name string
		switch c := chain[i].Component.(type) {
		case nil:
			continue
		case string:
			name = c
		default:
			return fmt.Errorf("%w: %T", ErrUnsupportedComponent, c)
		}

		var buf bytes.Buffer
		if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		data.Children = template.HTML(buf.String())
		found = true
	}
	if !found {
		return ErrNoComponent
	}

	return write(ev, true, func(w io.Writer) error {
		_, err := io.WriteString(w, string(data.Children))
		return err
	})
}
