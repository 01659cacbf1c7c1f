package request

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Content types set by the response helpers.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeJSON = "application/json; charset=utf-8"
)

// stream guards the platform output. Writes after Close, or after the request
// context ended, fail with ErrStreamClosed instead of blocking.
type stream struct {
	mu     sync.Mutex
	w      io.WriteCloser
	done   <-chan struct{}
	closed bool
}

func newStream(done <-chan struct{}, w io.WriteCloser) *stream {
	return &stream{w: w, done: done}
}

func (s *stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStreamClosed
	}
	select {
	case <-s.done:
		s.closed = true
		return 0, ErrStreamClosed
	default:
	}

	n, err := s.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrStreamWrite, err)
	}
	return n, nil
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}

// Writable returns the response stream, opening it on first use. Opening the
// stream sends the status, headers and cookies; they are frozen afterwards.
func (ev *Event) Writable() (io.Writer, error) {
	s, err := ev.openStream()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (ev *Event) openStream() (*stream, error) {
	ev.openMu.Lock()
	defer ev.openMu.Unlock()

	if ev.stream != nil {
		return ev.stream, nil
	}

	ev.mu.Lock()
	ev.headersSent = true
	status := ev.status
	ev.mu.Unlock()
	ev.cookie.Freeze()

	w, err := ev.open(status, ev.headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamOpen, err)
	}
	ev.stream = newStream(ev.ctx.Done(), w)
	return ev.stream, nil
}

func (ev *Event) closeStream() error {
	ev.openMu.Lock()
	defer ev.openMu.Unlock()

	if ev.stream == nil {
		return nil
	}
	return ev.stream.Close()
}

// Text writes a plain text response and returns an *ExitMessage.
func (ev *Event) Text(status int, text string) error {
	return ev.send(status, ContentTypeText, []byte(text))
}

// HTML writes an HTML response and returns an *ExitMessage.
func (ev *Event) HTML(status int, html string) error {
	return ev.send(status, ContentTypeHTML, []byte(html))
}

// JSON encodes v and writes it as the response. It returns an *ExitMessage.
func (ev *Event) JSON(status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJSONEncode, err)
	}
	return ev.send(status, ContentTypeJSON, body)
}

// Send writes body without setting a Content-Type and returns an *ExitMessage.
func (ev *Event) Send(status int, body []byte) error {
	return ev.send(status, "", body)
}

// SendResponse copies status, headers and body from resp. The body is closed.
func (ev *Event) SendResponse(resp *http.Response) error {
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	sig, err := ev.claimResponse(resp.StatusCode)
	if sig == nil {
		return err
	}
	for k, vs := range resp.Header {
		for _, v := range vs {
			if err := ev.AddHeader(k, v); err != nil {
				return err
			}
		}
	}

	s, err := ev.openStream()
	if err != nil {
		return err
	}
	if resp.Body != nil {
		if _, err := io.Copy(s, resp.Body); err != nil {
			return err
		}
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrStreamWrite, err)
	}
	return sig
}

func (ev *Event) send(status int, contentType string, body []byte) error {
	sig, err := ev.claimResponse(status)
	if sig == nil {
		return err
	}
	if contentType != "" {
		if err := ev.SetHeader("Content-Type", contentType); err != nil {
			return err
		}
	}

	s, err := ev.openStream()
	if err != nil {
		return err
	}
	if _, err := s.Write(body); err != nil {
		return err
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrStreamWrite, err)
	}
	return sig
}

// claimResponse takes the single write slot and sets status. A nil signal means
// the caller must return err (nil when the violation policy only logs).
func (ev *Event) claimResponse(status int) (AbortSignal, error) {
	if status < 100 || status > 599 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}

	ev.mu.Lock()
	if ev.responded || ev.headersSent {
		ev.mu.Unlock()
		if err := ev.violation("response_sent", ErrResponseSent); err != nil {
			return nil, err
		}
		return nil, ev.Exit()
	}
	ev.responded = true
	ev.status = status
	sig := &ExitMessage{}
	ev.markExitLocked(sig)
	ev.mu.Unlock()

	return sig, nil
}
