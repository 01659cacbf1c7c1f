// Package request implements the per-request execution core: the Event passed
// through handlers, the onion-ordered handler pipeline, write-once response
// helpers, memoized loaders and actions, and the handoff to a renderer.
//
// # Handling a request
//
// A platform adapter calls Handle with a ServerRequest. Handle matches the path
// against the Plan, builds the handler list and runs it on its own goroutine:
//
//	h := request.NewHandler(table, renderer, request.WithLogger(log))
//	run, err := request.Handle(h, request.ServerRequest[Resp]{
//		URL:      u,
//		Request:  r,
//		Writable: openResponse,
//	})
//	if errors.Is(err, request.ErrNoRoute) {
//		// not ours, fall through
//	}
//	resp, _ := run.Response.Await()
//
// The handler list is: trailing-slash canonicalization, the cross-origin check for
// form posts, every module's OnRequest and method handlers in chain order, the
// action runner and the loader runner. When the list completes without aborting,
// a page chain is handed to the Renderer together with its resolved document head.
//
// # Handlers and abort signals
//
// A handler returns an AbortSignal to stop the pipeline: *RedirectMessage,
// *ErrorResponse or *ExitMessage. The response helpers return them directly:
//
//	func onGet(ev *request.Event) error {
//		if !loggedIn(ev) {
//			return ev.Redirect(http.StatusSeeOther, "/login")
//		}
//		if err := ev.Next(); err != nil {
//			return err
//		}
//		return ev.SetHeader("X-Handled", "1") // after downstream handlers
//	}
//
// Any other returned error, and any panic, becomes an ErrorResponse with the
// status from the error's StatusCode method or 500.
//
// Text, HTML, JSON, Send and SendResponse write the response once. A second write,
// or changing the status, headers or cookies after the stream was obtained, is a
// protocol violation handled by the ViolationPolicy: panic in dev mode, an error
// otherwise. Headers returns a copy; SetHeader, AddHeader and DelHeader mutate.
//
// # Loaders
//
// Loaders are memoized per request; concurrent callers share one execution:
//
//	var userLoader = request.NewLoader("user", func(ev *request.Event) (*User, error) {
//		return repo.Find(ev, ev.Param("id"))
//	})
//
//	user, err := request.ResolveValue(ev, userLoader)
package request
