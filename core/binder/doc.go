// Package binder parses HTTP request bodies into generic Go values.
//
// Parse inspects the Content-Type header and decodes JSON, urlencoded and multipart
// bodies. Form bodies become map[string]any with dotted names nested and "[]" names
// collected into arrays:
//
//	// user.name=Ann&user.email=a@b.c&tags[]=go&tags[]=web
//	map[string]any{
//		"user": map[string]any{"name": "Ann", "email": "a@b.c"},
//		"tags": []any{"go", "web"},
//	}
//
// Uploaded files appear as *multipart.FileHeader with sanitized filenames. Requests
// without a recognized Content-Type yield nil and no error, so callers can treat an
// absent body and an unsupported one the same way.
//
// # Error Handling
//
//	data, err := binder.Parse(r, 0)
//	switch {
//	case errors.Is(err, binder.ErrFailedToParseJSON):
//		// malformed or oversized JSON
//	case errors.Is(err, binder.ErrFailedToParseForm):
//		// malformed form or multipart body
//	}
package binder
