package cookie

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MaxCookieSize is the default maximum size of a single Set-Cookie directive (4KB).
const MaxCookieSize = 4096

// expiredDate is the expiry written by Delete.
var expiredDate = time.Unix(0, 0).UTC()

// Jar holds the cookies of one request and the Set-Cookie directives of its response.
// Request cookies are parsed once; outgoing directives keep insertion order and a
// second Set for the same name replaces the pending directive in place.
type Jar struct {
	mu       sync.Mutex
	incoming map[string]string
	deleted  map[string]bool
	outgoing []directive
	index    map[string]int
	defaults Options
	signer   *Signer
	maxSize  int
	frozen   bool
	onFrozen func(error) error
}

type directive struct {
	name   string
	header string
}

// JarOption configures a Jar.
type JarOption func(*Jar)

// WithDefaults sets attribute defaults applied before per-call options.
func WithDefaults(opts ...Option) JarOption {
	return func(j *Jar) {
		j.defaults = applyOptions(j.defaults, opts)
	}
}

// WithSigner enables SetSigned and GetSigned.
func WithSigner(s *Signer) JarOption {
	return func(j *Jar) {
		j.signer = s
	}
}

// WithMaxSize sets the maximum size of a single directive.
func WithMaxSize(size int) JarOption {
	return func(j *Jar) {
		if size > 0 {
			j.maxSize = size
		}
	}
}

// WithFrozenHandler routes writes to a frozen jar through fn. The value fn
// returns is what Set and Delete return; nil accepts the write as a no-op.
func WithFrozenHandler(fn func(error) error) JarOption {
	return func(j *Jar) {
		j.onFrozen = fn
	}
}

// NewJar creates a jar from a raw Cookie request header.
func NewJar(header string, opts ...JarOption) *Jar {
	j := &Jar{
		incoming: Parse(header),
		deleted:  make(map[string]bool),
		index:    make(map[string]int),
		maxSize:  MaxCookieSize,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// FromRequest creates a jar from all Cookie headers of r.
func FromRequest(r *http.Request, opts ...JarOption) *Jar {
	return NewJar(strings.Join(r.Header.Values("Cookie"), "; "), opts...)
}

// Parse splits a Cookie header into decoded name/value pairs.
// The first occurrence of a name wins; values that fail to decode are kept raw.
func Parse(header string) map[string]string {
	cookies := make(map[string]string)
	for part := range strings.SplitSeq(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		name = decode(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, exists := cookies[name]; exists {
			continue
		}
		cookies[name] = decode(strings.TrimSpace(value))
	}
	return cookies
}

// Get returns the request cookie with the given name.
// Cookies deleted during this request are reported as absent.
func (j *Jar) Get(name string) (Value, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.deleted[name] {
		return Value{}, false
	}
	raw, ok := j.incoming[name]
	if !ok {
		return Value{}, false
	}
	return NewValue(raw), true
}

// GetAll returns all live request cookies.
func (j *Jar) GetAll() map[string]Value {
	j.mu.Lock()
	defer j.mu.Unlock()

	all := make(map[string]Value, len(j.incoming))
	for name, raw := range j.incoming {
		if j.deleted[name] {
			continue
		}
		all[name] = NewValue(raw)
	}
	return all
}

// Has reports whether a live request cookie with the given name exists.
func (j *Jar) Has(name string) bool {
	_, ok := j.Get(name)
	return ok
}

// Set records a Set-Cookie directive. Strings are written as is, numbers in decimal
// form and any other value JSON-encoded.
func (j *Jar) Set(name string, value any, opts ...Option) error {
	raw, err := stringify(value)
	if err != nil {
		return err
	}
	return j.set(name, raw, applyOptions(j.defaults, opts), false)
}

// Delete records an immediately expiring directive for name.
// Only path and domain of opts are relevant to browsers when matching the cookie.
func (j *Jar) Delete(name string, opts ...Option) error {
	o := applyOptions(j.defaults, opts)
	del := Options{
		Domain:    o.Domain,
		Path:      o.Path,
		Expires:   expiredDate,
		MaxAge:    0,
		maxAgeSet: true,
	}
	return j.set(name, "", del, true)
}

// Freeze stops the jar from accepting directives. It is called once the
// response headers are sent; later Set and Delete calls fail with ErrJarFrozen.
func (j *Jar) Freeze() {
	j.mu.Lock()
	j.frozen = true
	j.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (j *Jar) Frozen() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.frozen
}

// Headers returns the Set-Cookie directives in insertion order.
func (j *Jar) Headers() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	headers := make([]string, len(j.outgoing))
	for i, d := range j.outgoing {
		headers[i] = d.header
	}
	return headers
}

// SetSigned stores an HMAC-signed value.
func (j *Jar) SetSigned(name, value string, opts ...Option) error {
	if j.signer == nil {
		return ErrNoSigner
	}
	return j.Set(name, j.signer.Sign(value), opts...)
}

// GetSigned retrieves and verifies a signed request cookie.
func (j *Jar) GetSigned(name string) (string, error) {
	if j.signer == nil {
		return "", ErrNoSigner
	}
	v, ok := j.Get(name)
	if !ok {
		return "", ErrCookieNotFound
	}
	return j.signer.Verify(v.String())
}

func (j *Jar) set(name, value string, o Options, deleting bool) error {
	if name == "" || strings.ContainsAny(name, "=; \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	header := serialize(name, value, o)
	if !deleting && len(header) > j.maxSize {
		return ErrCookieTooLarge{Name: name, Size: len(header), Max: j.maxSize}
	}

	j.mu.Lock()
	if j.frozen {
		onFrozen := j.onFrozen
		j.mu.Unlock()
		err := fmt.Errorf("%w: %q", ErrJarFrozen, name)
		if onFrozen != nil {
			return onFrozen(err)
		}
		return err
	}
	defer j.mu.Unlock()

	if deleting {
		j.deleted[name] = true
	} else {
		delete(j.deleted, name)
	}

	if i, ok := j.index[name]; ok {
		j.outgoing[i].header = header
		return nil
	}
	j.index[name] = len(j.outgoing)
	j.outgoing = append(j.outgoing, directive{name: name, header: header})
	return nil
}

// MergeHeaders appends the jar's directives to h as Set-Cookie values and returns h.
func MergeHeaders(h http.Header, j *Jar) http.Header {
	if h == nil {
		h = make(http.Header)
	}
	for _, directive := range j.Headers() {
		h.Add("Set-Cookie", directive)
	}
	return h
}

// serialize renders a Set-Cookie directive. Max-Age takes precedence over Expires.
func serialize(name, value string, o Options) string {
	var b strings.Builder
	b.WriteString(encode(name))
	b.WriteByte('=')
	b.WriteString(encode(value))

	if o.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(o.Domain)
	}
	if o.maxAgeSet {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(max(o.MaxAge, 0)))
		if o.MaxAge <= 0 && !o.Expires.IsZero() {
			b.WriteString("; Expires=")
			b.WriteString(o.Expires.UTC().Format(http.TimeFormat))
		}
	} else if !o.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(o.Expires.UTC().Format(http.TimeFormat))
	}
	if o.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	if o.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(o.Path)
	}
	switch o.SameSite {
	case http.SameSiteStrictMode:
		b.WriteString("; SameSite=Strict")
	case http.SameSiteLaxMode:
		b.WriteString("; SameSite=Lax")
	case http.SameSiteNoneMode:
		b.WriteString("; SameSite=None")
	}
	if o.Secure {
		b.WriteString("; Secure")
	}
	return b.String()
}

func stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal cookie value: %w", err)
	}
	return string(data), nil
}

func encode(s string) string {
	return url.PathEscape(s)
}

func decode(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
