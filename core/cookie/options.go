package cookie

import (
	"net/http"
	"time"
)

// Unit is a time unit accepted by WithMaxAgeUnit.
type Unit string

// Max-age units.
const (
	Seconds Unit = "seconds"
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
	Weeks   Unit = "weeks"
)

// seconds converts count units into seconds. Unknown units are treated as seconds.
func (u Unit) seconds(count int) int {
	switch u {
	case Minutes:
		return count * 60
	case Hours:
		return count * 60 * 60
	case Days:
		return count * 60 * 60 * 24
	case Weeks:
		return count * 60 * 60 * 24 * 7
	default:
		return count
	}
}

// Options configures Set-Cookie attributes.
type Options struct {
	Domain   string
	Path     string
	Expires  time.Time
	MaxAge   int
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite

	// maxAgeSet distinguishes an explicit Max-Age=0 from "not set".
	maxAgeSet bool
}

// Option is a functional option for configuring cookie attributes.
type Option func(*Options)

// WithDomain sets the cookie domain attribute.
func WithDomain(domain string) Option {
	return func(o *Options) {
		o.Domain = domain
	}
}

// WithPath sets the cookie path attribute.
func WithPath(path string) Option {
	return func(o *Options) {
		o.Path = path
	}
}

// WithExpires sets the cookie expiry date. Ignored when a max-age is also set.
func WithExpires(t time.Time) Option {
	return func(o *Options) {
		o.Expires = t
	}
}

// WithMaxAge sets the cookie max-age in seconds.
// Zero or negative values expire the cookie immediately.
func WithMaxAge(seconds int) Option {
	return func(o *Options) {
		o.MaxAge = seconds
		o.maxAgeSet = true
	}
}

// WithMaxAgeUnit sets the cookie max-age as count units, e.g. WithMaxAgeUnit(3, Days).
func WithMaxAgeUnit(count int, unit Unit) Option {
	return WithMaxAge(unit.seconds(count))
}

// WithHTTPOnly prevents JavaScript access to the cookie.
func WithHTTPOnly(httpOnly bool) Option {
	return func(o *Options) {
		o.HttpOnly = httpOnly
	}
}

// WithSecure sets the secure flag, ensuring cookies are only sent over HTTPS.
func WithSecure(secure bool) Option {
	return func(o *Options) {
		o.Secure = secure
	}
}

// WithSameSite sets the SameSite attribute for CSRF protection.
func WithSameSite(sameSite http.SameSite) Option {
	return func(o *Options) {
		o.SameSite = sameSite
	}
}

// applyOptions copies base and applies opts, so shared defaults are never mutated.
func applyOptions(base Options, opts []Option) Options {
	result := base
	for _, opt := range opts {
		opt(&result)
	}
	return result
}
