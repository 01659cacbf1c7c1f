package cookie

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSecret indicates no secret was provided for cookie signing.
	ErrNoSecret = errors.New("no secret provided for cookie signer")

	// ErrSecretTooShort indicates the secret doesn't meet minimum length requirements.
	ErrSecretTooShort = errors.New("secret must be at least 32 characters long")

	// ErrInvalidSignature indicates cookie signature verification failed,
	// suggesting tampering or corruption.
	ErrInvalidSignature = errors.New("cookie signature verification failed")

	// ErrCookieNotFound indicates the requested cookie doesn't exist in the request.
	ErrCookieNotFound = errors.New("cookie not found in request")

	// ErrInvalidFormat indicates the cookie value has unexpected format.
	ErrInvalidFormat = errors.New("invalid cookie format")

	// ErrNoSigner indicates a signed operation on a jar configured without a signer.
	ErrNoSigner = errors.New("cookie jar has no signer")

	// ErrInvalidName indicates an empty or malformed cookie name.
	ErrInvalidName = errors.New("invalid cookie name")

	// ErrParseJSON indicates the cookie value is not valid JSON.
	ErrParseJSON = errors.New("failed to parse cookie value as JSON")

	// ErrNotNumber indicates the cookie value is not numeric.
	ErrNotNumber = errors.New("cookie value is not a number")

	// ErrJarFrozen indicates a cookie write after the response headers were sent.
	ErrJarFrozen = errors.New("cookie jar is frozen: response headers already sent")
)

// ErrCookieTooLarge indicates the cookie exceeds the maximum allowed size.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

// Error implements the error interface.
func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("cookie %q size %d exceeds maximum %d bytes", e.Name, e.Size, e.Max)
}
