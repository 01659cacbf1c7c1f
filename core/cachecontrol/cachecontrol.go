// Package cachecontrol builds Cache-Control header values from presets, a max-age
// shorthand or a set of directives.
//
//	ev.CacheControl(cachecontrol.Immutable)
//	ev.CacheControl(cachecontrol.MaxAge(300))
//	ev.CacheControl(cachecontrol.Options{MaxAge: 3600, Public: true})
package cachecontrol

import (
	"strconv"
	"strings"
)

// Directive is anything that renders to a Cache-Control header value.
type Directive interface {
	Value() string
}

// Preset is a named Cache-Control shorthand.
type Preset string

// Supported presets.
const (
	Day       Preset = "day"
	Week      Preset = "week"
	Month     Preset = "month"
	Year      Preset = "year"
	NoCache   Preset = "no-cache"
	Immutable Preset = "immutable"
	Private   Preset = "private"
)

const (
	secondsPerDay   = 60 * 60 * 24
	secondsPerWeek  = secondsPerDay * 7
	secondsPerMonth = secondsPerDay * 30
	secondsPerYear  = secondsPerDay * 365
)

// Options expresses individual directives. Zero values are omitted.
type Options struct {
	MaxAge               int
	SMaxAge              int
	StaleWhileRevalidate int
	NoStore              bool
	NoCache              bool
	Public               bool
	Private              bool
	Immutable            bool
}

// MaxAge is a shorthand applying the same number of seconds to max-age, s-maxage and
// stale-while-revalidate.
type MaxAge int

// Options expands the preset. Unknown presets expand to zero Options.
func (p Preset) Options() Options {
	switch p {
	case Day:
		return MaxAge(secondsPerDay).Options()
	case Week:
		return MaxAge(secondsPerWeek).Options()
	case Month:
		return MaxAge(secondsPerMonth).Options()
	case Year:
		return MaxAge(secondsPerYear).Options()
	case NoCache:
		return Options{NoCache: true}
	case Private:
		return Options{Private: true, NoCache: true}
	case Immutable:
		return Options{
			Public:               true,
			Immutable:            true,
			MaxAge:               secondsPerYear,
			StaleWhileRevalidate: secondsPerYear,
		}
	default:
		return Options{}
	}
}

// Value implements Directive.
func (p Preset) Value() string {
	return p.Options().Value()
}

// Options expands the shorthand.
func (m MaxAge) Options() Options {
	n := int(m)
	return Options{MaxAge: n, SMaxAge: n, StaleWhileRevalidate: n}
}

// Value implements Directive.
func (m MaxAge) Value() string {
	return m.Options().Value()
}

// Value implements Directive. Directives are comma-joined in a fixed order:
// immutable, max-age, s-maxage, no-store, no-cache, private, public,
// stale-while-revalidate.
func (o Options) Value() string {
	controls := make([]string, 0, 8)
	if o.Immutable {
		controls = append(controls, "immutable")
	}
	if o.MaxAge > 0 {
		controls = append(controls, "max-age="+strconv.Itoa(o.MaxAge))
	}
	if o.SMaxAge > 0 {
		controls = append(controls, "s-maxage="+strconv.Itoa(o.SMaxAge))
	}
	if o.NoStore {
		controls = append(controls, "no-store")
	}
	if o.NoCache {
		controls = append(controls, "no-cache")
	}
	if o.Private {
		controls = append(controls, "private")
	}
	if o.Public {
		controls = append(controls, "public")
	}
	if o.StaleWhileRevalidate > 0 {
		controls = append(controls, "stale-while-revalidate="+strconv.Itoa(o.StaleWhileRevalidate))
	}
	return strings.Join(controls, ", ")
}
