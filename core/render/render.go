package render

import (
	"bytes"
	"io"

	"github.com/dmitrymomot/pagekit/core/request"
)

const contentTypeHTML = "text/html; charset=utf-8"

// Option configures a renderer.
type Option func(*options)

type options struct {
	buffered bool
}

// WithBuffering renders the whole document into memory before writing so a
// failing component leaves no partial output. Enabled by default.
func WithBuffering(enabled bool) Option {
	return func(o *options) {
		o.buffered = enabled
	}
}

func newOptions(opts []Option) options {
	o := options{buffered: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// write runs fn against the response stream, buffering first when requested.
func write(ev *request.Event, buffered bool, fn func(w io.Writer) error) error {
	if ev.Headers().Get("Content-Type") == "" {
		if err := ev.SetHeader("Content-Type", contentTypeHTML); err != nil {
			return err
		}
	}

	if !buffered {
		w, err := ev.Writable()
		if err != nil {
			return err
		}
		return fn(w)
	}

	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	w, err := ev.Writable()
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
