package binder

import (
	"mime"
	"net/http"
	"strings"
)

// Default size limits.
const (
	// DefaultMaxBodySize is the default maximum size for JSON and urlencoded bodies (1MB).
	DefaultMaxBodySize = 1 << 20
	// DefaultMaxMemory is the default memory budget for multipart forms (10MB); larger files spill to disk.
	DefaultMaxMemory = 10 << 20
)

// Media types recognized by Parse.
const (
	MIMEApplicationJSON = "application/json"
	MIMEApplicationForm = "application/x-www-form-urlencoded"
	MIMEMultipartForm   = "multipart/form-data"
)

// Parse decodes the request body according to its Content-Type.
//
// JSON bodies decode into their natural Go representation (map[string]any, []any, string,
// float64, bool or nil). Urlencoded and multipart forms decode into map[string]any, where
// dotted field names nest ("user.name") and names ending in "[]" collect arrays. Uploaded
// files are returned as *multipart.FileHeader values.
//
// A missing or unrecognized Content-Type yields nil without an error. limit caps the body
// size; zero or negative selects the defaults.
func Parse(r *http.Request, limit int64) (any, error) {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return nil, nil
	}

	// Strip charset and other parameters (e.g. "application/json; charset=utf-8")
	mediaType := contentType
	if idx := strings.Index(contentType, ";"); idx != -1 {
		mediaType = contentType[:idx]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case mediaType == MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json"):
		return parseJSON(r, bodyLimit(limit, DefaultMaxBodySize))
	case mediaType == MIMEApplicationForm:
		return parseURLEncoded(r, bodyLimit(limit, DefaultMaxBodySize))
	case mediaType == MIMEMultipartForm:
		return parseMultipart(r, contentType, bodyLimit(limit, DefaultMaxMemory))
	default:
		return nil, nil
	}
}

// MediaType returns the lowercased media type of the request without parameters.
func MediaType(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// IsForm reports whether the request carries a form content type.
func IsForm(r *http.Request) bool {
	switch MediaType(r) {
	case MIMEApplicationForm, MIMEMultipartForm, "text/plain":
		return true
	}
	return false
}

func bodyLimit(limit, fallback int64) int64 {
	if limit <= 0 {
		return fallback
	}
	return limit
}
