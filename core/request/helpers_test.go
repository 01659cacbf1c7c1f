package request_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pagekit/core/cookie"
	"github.com/dmitrymomot/pagekit/core/head"
	"github.com/dmitrymomot/pagekit/core/request"
	"github.com/dmitrymomot/pagekit/pkg/async"
)

// platform captures what the pipeline sends to the adapter.
type platform struct {
	mu      sync.Mutex
	opened  int
	status  int
	headers http.Header
	cookies []string
	body    bytes.Buffer
	closed  bool
	failW   error
}

func (p *platform) open(status int, headers http.Header, jar *cookie.Jar, resolve func(int), _ *request.Event) (io.WriteCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened++
	p.status = status
	p.headers = headers.Clone()
	p.cookies = jar.Headers()
	resolve(status)
	return platformWriter{p}, nil
}

func (p *platform) Body() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.body.String()
}

type platformWriter struct{ p *platform }

func (w platformWriter) Write(b []byte) (int, error) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	if w.p.failW != nil {
		return 0, w.p.failW
	}
	return w.p.body.Write(b)
}

func (w platformWriter) Close() error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	w.p.closed = true
	return nil
}

// result is the outcome of serving one request.
type result struct {
	*platform
	run        *request.Run[int]
	response   *int
	completion error
}

func serve(t *testing.T, h *request.Handler, r *http.Request, mode ...request.Mode) result {
	t.Helper()

	p := &platform{}
	sr := request.ServerRequest[int]{
		URL:      r.URL,
		Request:  r,
		Writable: p.open,
	}
	if len(mode) > 0 {
		sr.Mode = mode[0]
	}

	run, err := request.Handle(h, sr)
	require.NoError(t, err)

	resp, err := run.Response.AwaitWithTimeout(2 * time.Second)
	require.NoError(t, err)
	completion := run.Completion.AwaitWithTimeout(2 * time.Second)
	require.False(t, errors.Is(completion, async.ErrTimeout), "pipeline did not complete")

	return result{platform: p, run: run, response: resp, completion: completion}
}

func get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "http://example.com"+target, nil)
}

func page(handlers ...request.HandlerFunc) *request.Module {
	return &request.Module{Kind: request.KindPage, OnRequest: handlers}
}

func endpoint(handlers ...request.HandlerFunc) *request.Module {
	return &request.Module{Kind: request.KindEndpoint, OnRequest: handlers}
}

func plan(modules ...*request.Module) request.Plan {
	return request.PlanFunc(func(string) (*request.RouteMatch, bool) {
		return &request.RouteMatch{Modules: modules, Params: map[string]string{"id": "42"}}, true
	})
}

// mockRenderer records render calls.
type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ev *request.Event, chain []*request.Module, doc head.Document) error {
	args := m.Called(ev, chain, doc)
	return args.Error(0)
}

// writeBody is a mockRenderer Run hook that streams a fixed document.
func writeBody(body string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		ev := args.Get(0).(*request.Event)
		_ = ev.SetHeader("Content-Type", request.ContentTypeHTML)
		w, err := ev.Writable()
		if err == nil {
			_, _ = io.WriteString(w, body)
		}
	}
}
