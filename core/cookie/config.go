package cookie

import (
	"net/http"
	"strings"
)

// Config provides environment-based defaults for request cookie jars.
type Config struct {
	Secrets  string        `env:"COOKIE_SECRETS" envDefault:""`
	Path     string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	HttpOnly bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"2"` // SameSiteLaxMode
	MaxSize  int           `env:"COOKIE_MAX_SIZE" envDefault:"4096"`
}

// DefaultConfig returns a Config with secure defaults.
func DefaultConfig() Config {
	return Config{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxSize:  MaxCookieSize,
	}
}

// parseSecrets splits comma-separated secrets for key rotation support.
func (c Config) parseSecrets() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// JarOptions converts the config into jar options.
// A signer is configured only when secrets are present.
func (c Config) JarOptions() ([]JarOption, error) {
	defaults := make([]Option, 0, 5)
	if c.Path != "" {
		defaults = append(defaults, WithPath(c.Path))
	}
	if c.Domain != "" {
		defaults = append(defaults, WithDomain(c.Domain))
	}
	if c.Secure {
		defaults = append(defaults, WithSecure(true))
	}
	if c.HttpOnly {
		defaults = append(defaults, WithHTTPOnly(true))
	}
	if c.SameSite != 0 {
		defaults = append(defaults, WithSameSite(c.SameSite))
	}

	opts := []JarOption{WithDefaults(defaults...), WithMaxSize(c.MaxSize)}

	if secrets := c.parseSecrets(); len(secrets) > 0 {
		signer, err := NewSigner(secrets)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSigner(signer))
	}
	return opts, nil
}
