// Package route provides a route table that resolves pathnames to module chains.
//
// Patterns are slash separated. A segment in brackets captures one path segment
// and a segment starting with three dots captures the remainder of the path:
//
//	t := route.New()
//	t.MustAdd("/", rootLayout, home)
//	t.MustAdd("/blog/[slug]", rootLayout, blogLayout, post)
//	t.MustAdd("/docs/[...path]", rootLayout, docs)
//
// Static segments win over parameters and parameters over catch-alls. The
// table implements request.Plan.
package route
