package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pagekit/core/head"
	"github.com/dmitrymomot/pagekit/core/logger"
)

// Pipeline outcomes reported to the Recorder.
const (
	OutcomeRendered    = "rendered"
	OutcomeFallthrough = "fallthrough"
	OutcomeRedirect    = "redirect"
	OutcomeError       = "error"
	OutcomeExit        = "exit"
)

// run drives the pipeline to a terminal state and finalizes the response.
func (ev *Event) run() error {
	defer ev.onFinish()

	_ = ev.Next()
	return ev.finalize()
}

// finalize hands a completed pipeline to the renderer, or writes the abort
// payload, then releases request resources.
func (ev *Event) finalize() error {
	var outcome string
	var renderErr error

	switch sig := ev.aborted().(type) {
	case nil:
		outcome = OutcomeFallthrough
		if ev.match.IsPage() && ev.handler.renderer != nil {
			outcome = OutcomeRendered
			renderErr = ev.render()
		}
	case *RedirectMessage:
		outcome = OutcomeRedirect
		if _, err := ev.openStream(); err != nil {
			ev.logger.Error("failed to send redirect", logger.Error(err))
		}
	case *ErrorResponse:
		outcome = OutcomeError
		ev.writeErrorResponse(sig)
	case *ExitMessage:
		outcome = OutcomeExit
	}

	var g errgroup.Group
	g.Go(ev.closeStream)
	g.Go(func() error {
		if err := ev.loaders.Wait(); err != nil {
			ev.logger.Debug("loader settled with error", logger.Error(err))
		}
		return nil
	})
	closeErr := g.Wait()
	if closeErr != nil {
		ev.logger.Warn("failed to close response stream", logger.Error(closeErr))
	}
	ev.shared.Clear()

	status := ev.Status()
	d := time.Since(ev.start)
	ev.handler.recorder.RequestFinished(outcome, status, d)
	ev.span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.String("pagekit.outcome", outcome),
	)
	err := errors.Join(renderErr, closeErr)
	if err != nil {
		ev.span.RecordError(err)
		ev.span.SetStatus(codes.Error, err.Error())
	}
	ev.span.End()

	ev.logger.Debug("request finished", logger.Abort(outcome), logger.StatusCode(status), logger.Duration(d))
	return err
}

// render calls the renderer with the full module chain and resolved head.
func (ev *Event) render() error {
	var sources []head.Source
	for _, m := range ev.match.Modules {
		if m.Head != nil {
			sources = append(sources, m.Head)
		}
	}
	doc := head.Resolve(sources, headProps{ev: ev})

	err := ev.invoke(func(ev *Event) error {
		return ev.handler.renderer.Render(ev, ev.match.Modules, doc)
	})
	if err == nil {
		return nil
	}
	if sig, ok := AsAbort(err); ok {
		// A renderer may still redirect or fail with a status before streaming
		if e, ok := sig.(*ErrorResponse); ok {
			ev.writeErrorResponse(e)
		} else if _, ok := sig.(*RedirectMessage); ok {
			if _, err := ev.openStream(); err != nil {
				ev.logger.Error("failed to send redirect", logger.Error(err))
			}
		}
		return nil
	}
	ev.writeErrorResponse(ev.errorResponseFor(err))
	return err
}

// writeErrorResponse renders the error page unless the headers are already out.
func (ev *Event) writeErrorResponse(e *ErrorResponse) {
	contentType := ContentTypeJSON
	var body []byte
	if acceptsHTML(ev.req) {
		contentType = ContentTypeHTML
		body = []byte(ErrorHTML(e.Status, e.Message))
	} else {
		body, _ = json.Marshal(struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		}{e.Status, e.Message})
	}

	ev.mu.Lock()
	if ev.headersSent {
		ev.mu.Unlock()
		ev.logger.Error("error after headers were sent",
			logger.StatusCode(e.Status), logger.Error(e))
		return
	}
	ev.status = e.Status
	ev.headers.Set("Content-Type", contentType)
	ev.mu.Unlock()

	s, err := ev.openStream()
	if err != nil {
		ev.logger.Error("failed to open stream for error page", logger.Error(err))
		return
	}
	if _, err := s.Write(body); err != nil {
		ev.logger.Warn("failed to write error page", logger.Error(err))
	}
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Status}} {{.Message}}</title>
<style>
body { color: {{.Color}}; background-color: #fafafa; padding: 30px; font-family: system-ui, sans-serif; }
p { max-width: 600px; margin: 60px auto 30px; background: white; border-radius: 4px; box-shadow: 0px 0px 50px -20px {{.Color}}; overflow: hidden; }
strong { display: inline-block; padding: 15px; background: {{.Color}}; color: white; }
span { display: inline-block; padding: 15px; }
</style>
</head>
<body><p><strong>{{.Status}}</strong> <span>{{.Message}}</span></p></body>
</html>
`))

// ErrorHTML renders the built-in error page. The message is HTML-escaped.
func ErrorHTML(status int, message string) string {
	color := "#006ce9"
	if status >= http.StatusInternalServerError {
		color = "#713fc2"
	}

	var buf bytes.Buffer
	_ = errorPage.Execute(&buf, struct {
		Status  int
		Message string
		Color   template.CSS
	}{status, message, template.CSS(color)})
	return buf.String()
}

// headProps exposes the event to head functions.
type headProps struct {
	ev *Event
}

func (p headProps) Head() head.Document                { return head.Document{} }
func (p headProps) Params() map[string]string          { return p.ev.params }
func (p headProps) URL() string                        { return p.ev.url.String() }
func (p headProps) Locale() string                     { return p.ev.Locale() }
func (p headProps) ResolveValue(id string) (any, bool) { return p.ev.LoaderValue(id) }
