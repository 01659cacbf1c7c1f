// Package cookie provides the per-request cookie jar: request cookies parsed from the
// Cookie header and the ordered Set-Cookie directives of the response.
//
// # Features
//
//   - Lazy typed access to request cookies (string, JSON, number)
//   - Ordered, append-only outgoing directives; a second Set for a name replaces it in place
//   - Max-Age with unit conversion, taking precedence over Expires
//   - HMAC-SHA256 signed values with key rotation
//   - Size limit enforcement (4KB by default)
//   - Environment-based defaults
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/pagekit/core/cookie"
//
//	jar := cookie.FromRequest(r)
//
//	if v, ok := jar.Get("theme"); ok {
//		fmt.Println(v.String())
//	}
//
//	// Numbers and JSON
//	visits, err := v.Number()
//	var prefs Preferences
//	err = v.JSON(&prefs)
//
//	// Outgoing directives
//	err = jar.Set("theme", "dark", cookie.WithMaxAgeUnit(30, cookie.Days), cookie.WithPath("/"))
//	err = jar.Delete("session", cookie.WithPath("/"))
//
//	for _, directive := range jar.Headers() {
//		w.Header().Add("Set-Cookie", directive)
//	}
//
// # Deletion
//
// Delete never removes a directive. It records an expiring one (Max-Age=0 and an
// Expires date in 1970) and hides the request cookie from Get, Has and GetAll for the
// rest of the request.
//
// # Number Parsing
//
// Value.Number returns ErrNotNumber for non-numeric input instead of a NaN value, so
// callers can't mistake a broken cookie for a number.
//
// # Signed Cookies
//
//	signer, err := cookie.NewSigner([]string{os.Getenv("COOKIE_SECRET")})
//	jar := cookie.FromRequest(r, cookie.WithSigner(signer))
//	err = jar.SetSigned("uid", "42")
//	uid, err := jar.GetSigned("uid") // ErrInvalidSignature on tampering
//
// # Configuration
//
//	var cfg cookie.Config
//	config.MustLoad(&cfg)
//	opts, err := cfg.JarOptions()
//	jar := cookie.FromRequest(r, opts...)
package cookie
