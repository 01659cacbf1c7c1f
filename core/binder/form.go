package binder

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
)

func parseURLEncoded(r *http.Request, limit int64) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: request body too large (max %d bytes)", ErrFailedToParseForm, limit)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
	}

	obj := make(map[string]any)
	for _, key := range sortedKeys(values) {
		for _, v := range values[key] {
			if err := assign(obj, key, v); err != nil {
				return nil, err
			}
		}
	}
	return obj, nil
}

func parseMultipart(r *http.Request, contentType string, maxMemory int64) (any, error) {
	// Validate the boundary parameter before handing the body to the multipart reader
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed content type with boundary", ErrFailedToParseForm)
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return nil, fmt.Errorf("%w: missing boundary in content type", ErrFailedToParseForm)
	}
	if !validateBoundary(boundary) {
		return nil, fmt.Errorf("%w: invalid boundary parameter", ErrFailedToParseForm)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
	}

	obj := make(map[string]any)
	if r.MultipartForm == nil {
		return obj, nil
	}
	for _, key := range sortedKeys(r.MultipartForm.Value) {
		for _, v := range r.MultipartForm.Value[key] {
			if err := assign(obj, key, v); err != nil {
				return nil, err
			}
		}
	}
	// Files stay open until the caller removes the form; the request owns cleanup
	for _, key := range sortedKeys(r.MultipartForm.File) {
		for _, fh := range r.MultipartForm.File[key] {
			fh.Filename = sanitizeFilename(fh.Filename)
			if err := assign(obj, key, fh); err != nil {
				return nil, err
			}
		}
	}
	return obj, nil
}

// assign stores value at the dotted path name. A trailing "[]" appends to an array;
// otherwise the last value for a name wins. A name used both as a value and as a
// parent of nested fields, or both with and without "[]", is rejected.
func assign(obj map[string]any, name string, value any) error {
	isArray := strings.HasSuffix(name, "[]")
	field := strings.TrimSuffix(name, "[]")

	parts := strings.Split(field, ".")
	current := obj
	for _, part := range parts[:len(parts)-1] {
		existing, exists := current[part]
		if !exists {
			next := make(map[string]any)
			current[part] = next
			current = next
			continue
		}
		next, ok := existing.(map[string]any)
		if !ok {
			return fieldConflict(name)
		}
		current = next
	}

	leaf := parts[len(parts)-1]
	existing, exists := current[leaf]
	if !isArray {
		switch existing.(type) {
		case map[string]any, []any:
			return fieldConflict(name)
		}
		current[leaf] = value
		return nil
	}
	arr, ok := existing.([]any)
	if exists && !ok {
		return fieldConflict(name)
	}
	current[leaf] = append(arr, value)
	return nil
}

func fieldConflict(name string) error {
	return fmt.Errorf("%w: field %q conflicts with another field of the same name", ErrFailedToParseForm, name)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// validateBoundary rejects multipart boundaries that break parsing.
func validateBoundary(boundary string) bool {
	if boundary == "" || len(boundary) > 100 {
		return false
	}
	return !strings.ContainsAny(boundary, "\x00\r\n")
}

// sanitizeFilename removes path components and null bytes from uploaded filenames.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}
	return filename
}
