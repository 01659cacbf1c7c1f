// Package head resolves the document head contributed by a chain of route modules.
//
// Each module may contribute a static Document or a Func computed from Props. Resolve
// walks the chain in order (outer layout first, page last) and merges the contributions:
// a later non-empty title wins, meta, links and styles are appended, and frontmatter keys
// are merged with later values overriding earlier ones.
package head

import "maps"

// Meta is a single <meta> element.
type Meta struct {
	Name     string
	Property string
	Content  string
	Key      string
}

// Link is a single <link> element.
type Link struct {
	Rel      string
	Href     string
	Type     string
	Media    string
	Key      string
	Hreflang string
}

// Style is an inline <style> element.
type Style struct {
	Style string
	Key   string
	Props map[string]string
}

// Document is the resolved head of a page.
type Document struct {
	Title       string
	Meta        []Meta
	Links       []Link
	Styles      []Style
	Frontmatter map[string]any
}

// Clone returns a deep copy of the slice and map fields.
func (d Document) Clone() Document {
	return Document{
		Title:       d.Title,
		Meta:        append([]Meta(nil), d.Meta...),
		Links:       append([]Link(nil), d.Links...),
		Styles:      append([]Style(nil), d.Styles...),
		Frontmatter: maps.Clone(d.Frontmatter),
	}
}

// Props is what a Func receives to compute its contribution.
type Props interface {
	// Head returns the document merged so far from the outer modules.
	Head() Document
	// Params returns the matched route parameters.
	Params() map[string]string
	// URL returns the request URL string.
	URL() string
	// Locale returns the request locale.
	Locale() string
	// ResolveValue returns a loader value only when it has already resolved.
	ResolveValue(id string) (any, bool)
}

// Source contributes to the document head.
type Source interface {
	Contribute(p Props) Document
}

// Contribute returns the static document.
func (d Document) Contribute(Props) Document { return d }

// Func computes a contribution from Props.
type Func func(p Props) Document

// Contribute calls f.
func (f Func) Contribute(p Props) Document { return f(p) }

// Resolve merges sources in order. Nil sources are skipped.
func Resolve(sources []Source, base Props) Document {
	doc := Document{Frontmatter: map[string]any{}}
	for _, src := range sources {
		if src == nil {
			continue
		}
		doc = Merge(doc, src.Contribute(withHead{Props: base, head: doc}))
	}
	return doc
}

// Merge combines next into cur following the chain rules.
func Merge(cur, next Document) Document {
	out := cur.Clone()
	if next.Title != "" {
		out.Title = next.Title
	}
	out.Meta = append(out.Meta, next.Meta...)
	out.Links = append(out.Links, next.Links...)
	out.Styles = append(out.Styles, next.Styles...)
	if len(next.Frontmatter) > 0 {
		if out.Frontmatter == nil {
			out.Frontmatter = make(map[string]any, len(next.Frontmatter))
		}
		maps.Copy(out.Frontmatter, next.Frontmatter)
	}
	return out
}

type withHead struct {
	Props
	head Document
}

func (w withHead) Head() Document { return w.head.Clone() }
