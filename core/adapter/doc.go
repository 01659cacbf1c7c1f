// Package adapter serves a request.Handler from net/http.
//
//	table := route.New()
//	table.MustAdd("/", rootLayout, home)
//	h := request.NewHandler(table, render.NewTempl())
//	http.ListenAndServe(":8080", adapter.New(h, http.FileServer(http.Dir("public"))))
//
// The adapter rebuilds the absolute request URL, writes the pipeline's status,
// headers and cookies once the response stream opens and flushes every write.
// Unmatched requests and requests that produce no response go to the next handler.
package adapter
