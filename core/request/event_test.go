package request_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pagekit/core/cachecontrol"
	"github.com/dmitrymomot/pagekit/core/cookie"
	"github.com/dmitrymomot/pagekit/core/request"
)

// run serves a single endpoint handler and returns the result.
func run(t *testing.T, r *http.Request, fn request.HandlerFunc, opts ...request.Option) result {
	t.Helper()
	return serve(t, request.NewHandler(plan(endpoint(fn)), nil, opts...), r)
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	for _, code := range []int{301, 302, 303, 307, 308} {
		var sig error
		res := run(t, get("/"), func(ev *request.Event) error {
			sig = ev.Redirect(code, "/target")
			return sig
		})

		var rm *request.RedirectMessage
		require.ErrorAs(t, sig, &rm)
		assert.Equal(t, code, rm.Code)
		assert.Equal(t, code, res.status)
		assert.Equal(t, "/target", res.headers.Get("Location"))
		if code == http.StatusMovedPermanently {
			assert.Empty(t, res.headers.Get("Cache-Control"))
		} else {
			assert.Equal(t, "no-store", res.headers.Get("Cache-Control"))
		}
	}
}

func TestRedirectRejectsInvalidCode(t *testing.T) {
	t.Parallel()

	var err error
	res := run(t, get("/"), func(ev *request.Event) error {
		err = ev.Redirect(http.StatusOK, "/x")
		if !errors.Is(err, request.ErrInvalidRedirectCode) {
			return err
		}
		return ev.Text(http.StatusOK, "still here")
	})
	assert.ErrorIs(t, err, request.ErrInvalidRedirectCode)
	assert.Equal(t, "still here", res.Body())
}

func TestRedirectKeepsExplicitCacheControlAndFixesSlashes(t *testing.T) {
	t.Parallel()

	res := run(t, get("/"), func(ev *request.Event) error {
		require.NoError(t, ev.CacheControl(cachecontrol.Private))
		return ev.Redirect(http.StatusFound, "https://example.com//a///b")
	})
	assert.Equal(t, "https://example.com/a/b", res.headers.Get("Location"))
	assert.Equal(t, "no-cache, private", res.headers.Get("Cache-Control"))
}

func TestResponseHelpersSetContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		write       func(ev *request.Event) error
		contentType string
		body        string
	}{
		{"text", func(ev *request.Event) error { return ev.Text(http.StatusOK, "hi") }, request.ContentTypeText, "hi"},
		{"html", func(ev *request.Event) error { return ev.HTML(http.StatusOK, "<b>hi</b>") }, request.ContentTypeHTML, "<b>hi</b>"},
		{"json", func(ev *request.Event) error { return ev.JSON(http.StatusCreated, map[string]int{"a": 1}) }, request.ContentTypeJSON, `{"a":1}`},
		{"send", func(ev *request.Event) error { return ev.Send(http.StatusAccepted, []byte("raw")) }, "", "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sig error
			res := run(t, get("/"), func(ev *request.Event) error {
				sig = tt.write(ev)
				return sig
			})

			var exit *request.ExitMessage
			assert.ErrorAs(t, sig, &exit)
			assert.Equal(t, tt.contentType, res.headers.Get("Content-Type"))
			assert.Equal(t, tt.body, res.Body())
			assert.Equal(t, 1, res.opened)
		})
	}
}

func TestSendResponse(t *testing.T) {
	t.Parallel()

	upstream := &http.Response{
		StatusCode: http.StatusNonAuthoritativeInfo,
		Header:     http.Header{"X-Upstream": []string{"yes"}},
		Body:       io.NopCloser(strings.NewReader("proxied")),
	}
	res := run(t, get("/"), func(ev *request.Event) error {
		return ev.SendResponse(upstream)
	})
	assert.Equal(t, http.StatusNonAuthoritativeInfo, res.status)
	assert.Equal(t, "yes", res.headers.Get("X-Upstream"))
	assert.Equal(t, "proxied", res.Body())
}

func TestDoubleWrite(t *testing.T) {
	t.Parallel()

	t.Run("error policy", func(t *testing.T) {
		var second error
		res := run(t, get("/"), func(ev *request.Event) error {
			_ = ev.Text(http.StatusOK, "first")
			second = ev.JSON(http.StatusOK, "second")
			return nil
		}, request.WithViolationPolicy(request.ViolationError))

		assert.ErrorIs(t, second, request.ErrResponseSent)
		assert.Equal(t, "first", res.Body())
	})

	t.Run("panic policy", func(t *testing.T) {
		var panicked atomic.Bool
		res := run(t, get("/"), func(ev *request.Event) error {
			_ = ev.Text(http.StatusOK, "first")
			func() {
				defer func() {
					if p := recover(); p != nil {
						panicked.Store(errors.Is(p.(error), request.ErrResponseSent))
					}
				}()
				_ = ev.Text(http.StatusOK, "second")
			}()
			return nil
		}, request.WithViolationPolicy(request.ViolationPanic))

		assert.True(t, panicked.Load())
		assert.Equal(t, "first", res.Body())
	})

	t.Run("log policy skips the write", func(t *testing.T) {
		var second error
		res := run(t, get("/"), func(ev *request.Event) error {
			_ = ev.Text(http.StatusOK, "first")
			second = ev.Text(http.StatusOK, "second")
			return nil
		}, request.WithViolationPolicy(request.ViolationLog))

		var exit *request.ExitMessage
		assert.ErrorAs(t, second, &exit)
		assert.Equal(t, "first", res.Body())
	})

	t.Run("dev mode defaults to panic", func(t *testing.T) {
		var panicked atomic.Bool
		h := request.NewHandler(plan(endpoint(func(ev *request.Event) error {
			_ = ev.Text(http.StatusOK, "first")
			defer func() { panicked.Store(recover() != nil) }()
			_ = ev.Text(http.StatusOK, "second")
			return nil
		})), nil)
		serve(t, h, get("/"), request.ModeDev)
		assert.True(t, panicked.Load())
	})
}

func TestSetStatusAfterHeadersSent(t *testing.T) {
	t.Parallel()

	var before, after, invalid error
	var sentBefore, sentAfter bool
	res := run(t, get("/"), func(ev *request.Event) error {
		invalid = ev.SetStatus(42)
		before = ev.SetStatus(http.StatusAccepted)
		sentBefore = ev.HeadersSent()
		if _, err := ev.Writable(); err != nil {
			return err
		}
		sentAfter = ev.HeadersSent()
		after = ev.SetStatus(http.StatusTeapot)
		return nil
	})

	assert.ErrorIs(t, invalid, request.ErrInvalidStatus)
	assert.NoError(t, before)
	assert.ErrorIs(t, after, request.ErrHeadersSent)
	assert.False(t, sentBefore)
	assert.True(t, sentAfter)
	assert.Equal(t, http.StatusAccepted, res.status)
}

// recoverError runs fn and returns the error it panicked with, if any.
func recoverError(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err, _ = p.(error)
		}
	}()
	_ = fn()
	return nil
}

func TestMutationAfterHeadersSent(t *testing.T) {
	t.Parallel()

	stream := func(ev *request.Event) error {
		w, err := ev.Writable()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, "body")
		return err
	}

	t.Run("error policy", func(t *testing.T) {
		var setErr, addErr, delErr, cookieErr, deleteErr error
		var snapshot http.Header
		res := run(t, get("/"), func(ev *request.Event) error {
			if err := ev.Cookie().Set("early", "1"); err != nil {
				return err
			}
			ev.Headers().Set("X-Copy", "1")
			if err := stream(ev); err != nil {
				return err
			}
			setErr = ev.SetHeader("X-After", "1")
			addErr = ev.AddHeader("X-After", "2")
			delErr = ev.DelHeader(request.HeaderRequestID)
			cookieErr = ev.Cookie().Set("late", "v")
			deleteErr = ev.Cookie().Delete("early")
			snapshot = ev.Headers()
			return nil
		}, request.WithViolationPolicy(request.ViolationError))

		assert.ErrorIs(t, setErr, request.ErrHeadersSent)
		assert.ErrorIs(t, addErr, request.ErrHeadersSent)
		assert.ErrorIs(t, delErr, request.ErrHeadersSent)
		assert.ErrorIs(t, cookieErr, request.ErrHeadersSent)
		assert.ErrorIs(t, cookieErr, cookie.ErrJarFrozen)
		assert.ErrorIs(t, deleteErr, cookie.ErrJarFrozen)

		assert.Equal(t, "body", res.Body())
		assert.Empty(t, res.headers.Get("X-Copy"))
		assert.Empty(t, res.headers.Get("X-After"))
		assert.Equal(t, []string{"early=1"}, res.cookies)
		assert.Empty(t, snapshot.Get("X-After"))
		assert.NotEmpty(t, snapshot.Get(request.HeaderRequestID))
	})

	t.Run("panic policy", func(t *testing.T) {
		var headerPanic, cookiePanic error
		res := run(t, get("/"), func(ev *request.Event) error {
			if err := stream(ev); err != nil {
				return err
			}
			headerPanic = recoverError(func() error { return ev.SetHeader("X-After", "1") })
			cookiePanic = recoverError(func() error { return ev.Cookie().Set("late", "v") })
			return nil
		}, request.WithViolationPolicy(request.ViolationPanic))

		assert.ErrorIs(t, headerPanic, request.ErrHeadersSent)
		assert.ErrorIs(t, cookiePanic, cookie.ErrJarFrozen)
		assert.Empty(t, res.headers.Get("X-After"))
		assert.Empty(t, res.cookies)
	})

	t.Run("log policy drops the mutation", func(t *testing.T) {
		var setErr, cookieErr error
		res := run(t, get("/"), func(ev *request.Event) error {
			if err := stream(ev); err != nil {
				return err
			}
			setErr = ev.SetHeader("X-After", "1")
			cookieErr = ev.Cookie().Set("late", "v")
			return nil
		}, request.WithViolationPolicy(request.ViolationLog))

		assert.NoError(t, setErr)
		assert.NoError(t, cookieErr)
		assert.Empty(t, res.headers.Get("X-After"))
		assert.Empty(t, res.cookies)
	})

	t.Run("dev mode panics on a late cookie", func(t *testing.T) {
		var cookiePanic error
		h := request.NewHandler(plan(endpoint(func(ev *request.Event) error {
			if err := stream(ev); err != nil {
				return err
			}
			cookiePanic = recoverError(func() error { return ev.Cookie().Set("session", "abc") })
			return nil
		})), nil)
		res := serve(t, h, get("/"), request.ModeDev)

		assert.ErrorIs(t, cookiePanic, request.ErrHeadersSent)
		assert.Empty(t, res.cookies)
		assert.Equal(t, "body", res.Body())
	})
}

func TestWritableReturnsSameStream(t *testing.T) {
	t.Parallel()

	res := run(t, get("/"), func(ev *request.Event) error {
		w1, err := ev.Writable()
		if err != nil {
			return err
		}
		w2, err := ev.Writable()
		if err != nil {
			return err
		}
		_, _ = io.WriteString(w1, "a")
		_, _ = io.WriteString(w2, "b")
		return nil
	})
	assert.Equal(t, 1, res.opened)
	assert.Equal(t, "ab", res.Body())
	assert.True(t, res.closed)
}

func TestStreamErrors(t *testing.T) {
	t.Parallel()

	t.Run("underlying failure", func(t *testing.T) {
		p := &platform{failW: errors.New("broken pipe")}
		var writeErr error
		h := request.NewHandler(plan(endpoint(func(ev *request.Event) error {
			writeErr = ev.Text(http.StatusOK, "x")
			return nil
		})), nil)
		r := get("/")
		pr, err := request.Handle(h, request.ServerRequest[int]{URL: r.URL, Request: r, Writable: p.open})
		require.NoError(t, err)
		_ = pr.Completion.Await()
		assert.ErrorIs(t, writeErr, request.ErrStreamWrite)
	})

	t.Run("transport gone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		r := get("/").WithContext(ctx)
		var writeErr error
		res := run(t, r, func(ev *request.Event) error {
			w, err := ev.Writable()
			if err != nil {
				return err
			}
			cancel()
			_, writeErr = w.Write([]byte("late"))
			return nil
		})
		assert.ErrorIs(t, writeErr, request.ErrStreamClosed)
		assert.Empty(t, res.Body())
	})
}

func TestParseBodyIsMemoized(t *testing.T) {
	t.Parallel()

	body := &countingReader{r: strings.NewReader(`{"a":1}`)}
	r := httptest.NewRequest(http.MethodPost, "http://example.com/api", body)
	r.Header.Set("Content-Type", "application/json")

	var first, second any
	var readsFirst, readsSecond int32
	run(t, r, func(ev *request.Event) error {
		var err error
		first, err = ev.ParseBody()
		if err != nil {
			return err
		}
		readsFirst = body.reads.Load()
		second, err = ev.ParseBody()
		readsSecond = body.reads.Load()
		return err
	})

	assert.Equal(t, map[string]any{"a": float64(1)}, first)
	assert.Equal(t, first, second)
	assert.Positive(t, readsFirst)
	assert.Equal(t, readsFirst, readsSecond)
}

type countingReader struct {
	r     io.Reader
	reads atomic.Int32
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads.Add(1)
	return c.r.Read(p)
}

func TestParseBodyErrors(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "http://example.com/api", strings.NewReader(`{"a":`))
	r.Header.Set("Content-Type", "application/json")

	res := run(t, r, func(ev *request.Event) error {
		_, err := ev.ParseBody()
		return err
	})
	assert.Equal(t, http.StatusInternalServerError, res.status)

	r = httptest.NewRequest(http.MethodPost, "http://example.com/api", strings.NewReader("raw"))
	var v any
	var err error
	run(t, r, func(ev *request.Event) error {
		v, err = ev.ParseBody()
		return nil
	})
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestCacheControlOverwrites(t *testing.T) {
	t.Parallel()

	res := run(t, get("/"), func(ev *request.Event) error {
		_ = ev.CacheControl(cachecontrol.Immutable)
		_ = ev.CacheControl(cachecontrol.Options{MaxAge: 3600, Public: true})
		_ = ev.CacheControlFor("CDN-Cache-Control", cachecontrol.Day)
		return ev.Text(http.StatusOK, "ok")
	})
	assert.Equal(t, "max-age=3600, public", res.headers.Get("Cache-Control"))
	assert.Equal(t, "max-age=86400, s-maxage=86400, stale-while-revalidate=86400", res.headers.Get("CDN-Cache-Control"))
}

func TestCookies(t *testing.T) {
	t.Parallel()

	r := get("/")
	r.Header.Set("Cookie", "theme=dark; session=abc")

	var theme string
	res := run(t, r, func(ev *request.Event) error {
		v, ok := ev.Cookie().Get("theme")
		if ok {
			theme = v.String()
		}
		if err := ev.Cookie().Set("visited", true, cookie.WithPath("/")); err != nil {
			return err
		}
		if err := ev.Cookie().Delete("session"); err != nil {
			return err
		}
		return ev.Text(http.StatusOK, "ok")
	})

	assert.Equal(t, "dark", theme)
	require.Len(t, res.cookies, 2)
	assert.Equal(t, "visited=true; Path=/", res.cookies[0])
	assert.Contains(t, res.cookies[1], "session=; Max-Age=0")
}

func TestLocale(t *testing.T) {
	t.Parallel()

	h := request.NewHandler(plan(endpoint(func(ev *request.Event) error {
		return ev.Text(http.StatusOK, ev.Locale())
	})), nil, request.WithLocales("en", "en", "de", "pt-BR"))

	r := get("/")
	r.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,de;q=0.5")
	assert.Equal(t, "pt-BR", serve(t, h, r).Body())

	r = get("/")
	r.Header.Set("Accept-Language", "ja")
	assert.Equal(t, "en", serve(t, h, r).Body())

	res := run(t, get("/"), func(ev *request.Event) error {
		ev.SetLocale("EN-us")
		return ev.Text(http.StatusOK, ev.Locale())
	})
	assert.Equal(t, "en-US", res.Body())
}

func TestSharedMapClearedAtEnd(t *testing.T) {
	t.Parallel()

	var seen any
	var shared *request.SharedMap
	h := request.NewHandler(plan(endpoint(
		func(ev *request.Event) error {
			shared = ev.SharedMap()
			shared.Set("user", "ann")
			return nil
		},
		func(ev *request.Event) error {
			seen, _ = request.Shared[string](ev, "user")
			return nil
		},
	)), nil)

	serve(t, h, get("/"))
	assert.Equal(t, "ann", seen)
	assert.Zero(t, shared.Len())
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	r := get("/")
	r.Header.Set(request.HeaderRequestID, "req-1")
	res := run(t, r, func(ev *request.Event) error {
		return ev.Text(http.StatusOK, ev.RequestID())
	})
	assert.Equal(t, "req-1", res.Body())
	assert.Equal(t, "req-1", res.headers.Get(request.HeaderRequestID))

	res = run(t, get("/"), func(ev *request.Event) error {
		return ev.Text(http.StatusOK, ev.RequestID())
	})
	assert.Len(t, res.Body(), 36)
}

func TestEventAccessors(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	r := get("/posts/42?sort=asc").WithContext(context.WithValue(context.Background(), ctxKey{}, "v"))

	var (
		method, pathname, param, sort, base string
		value                               any
		dirtyBefore, exitedBefore           bool
	)
	run(t, r, func(ev *request.Event) error {
		method = ev.Method()
		pathname = ev.Pathname()
		param = ev.Param("id")
		sort = ev.Query().Get("sort")
		base = ev.BasePathname()
		value = ev.Value(ctxKey{})
		dirtyBefore = ev.IsDirty()
		exitedBefore = ev.Exited()
		return nil
	})

	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, "/posts/42", pathname)
	assert.Equal(t, "42", param)
	assert.Equal(t, "asc", sort)
	assert.Equal(t, "/", base)
	assert.Equal(t, "v", value)
	assert.False(t, dirtyBefore)
	assert.False(t, exitedBefore)
}
