package server

import (
	"crypto/tls"
	"fmt"
	"time"
)

// Config holds env-tagged server settings.
type Config struct {
	Addr string `env:"PAGEKIT_SERVER_ADDR" envDefault:":8080"`

	ReadHeaderTimeout time.Duration `env:"PAGEKIT_SERVER_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"PAGEKIT_SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"PAGEKIT_SERVER_WRITE_TIMEOUT" envDefault:"0s"`
	IdleTimeout       time.Duration `env:"PAGEKIT_SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"PAGEKIT_SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	MaxHeaderBytes int `env:"PAGEKIT_SERVER_MAX_HEADER_BYTES" envDefault:"1048576"`

	TLSCertFile string `env:"PAGEKIT_SERVER_TLS_CERT_FILE"`
	TLSKeyFile  string `env:"PAGEKIT_SERVER_TLS_KEY_FILE"`
}

// NewFromConfig creates a Server from cfg. Options are applied after the config.
func NewFromConfig(cfg Config, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddress
	}

	base := []Option{
		WithReadHeaderTimeout(cfg.ReadHeaderTimeout),
		WithReadTimeout(cfg.ReadTimeout),
		WithWriteTimeout(cfg.WriteTimeout),
		WithIdleTimeout(cfg.IdleTimeout),
	}
	if cfg.ShutdownTimeout > 0 {
		base = append(base, WithShutdownTimeout(cfg.ShutdownTimeout))
	}
	if cfg.MaxHeaderBytes > 0 {
		base = append(base, WithMaxHeaderBytes(cfg.MaxHeaderBytes))
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadTLS, err)
		}
		base = append(base, WithTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}))
	}

	return New(cfg.Addr, append(base, opts...)...), nil
}
