// Package pagekit wires the request lifecycle core into a runnable HTTP application.
//
// A request is matched against a route plan, driven through the module handler
// pipeline with memoized loaders and a write-once response, and finally handed
// to a renderer when the route ends at a page:
//
//	table := route.New()
//	table.MustAdd("/", layout, home)
//	table.MustAdd("/blog/[slug]", layout, post)
//
//	app, err := pagekit.New(table, render.NewTempl())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := app.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Packages
//
//	core/request      - request Event, handler pipeline, abort signals, loaders and actions
//	core/loader       - per-request memoized loader cache
//	core/cookie       - request cookie jar with signed values
//	core/cachecontrol - Cache-Control directive builder
//	core/binder       - request body parsing (JSON, url-encoded and multipart forms)
//	core/head         - document head resolution across the module chain
//	core/route        - route table implementing request.Plan
//	core/render       - templ and html/template renderers
//	core/adapter      - net/http adapter
//	core/server       - HTTP server with graceful shutdown
//	core/metrics      - Prometheus pipeline metrics
//	core/logger       - slog construction and attribute helpers
//	core/config       - environment configuration loading
//	pkg/async         - futures used by loaders and the pipeline
//	pkg/clientip      - client IP extraction for the net/http platform
//
// Configuration is read from PAGEKIT_*, COOKIE_* and PAGEKIT_SERVER_* variables,
// optionally from a .env file.
package pagekit
