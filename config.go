package pagekit

import (
	"github.com/dmitrymomot/pagekit/core/cookie"
	"github.com/dmitrymomot/pagekit/core/request"
	"github.com/dmitrymomot/pagekit/core/server"
)

// Config aggregates the environment configuration of an App.
type Config struct {
	Mode             string `env:"PAGEKIT_MODE" envDefault:"server"`
	LogLevel         string `env:"PAGEKIT_LOG_LEVEL" envDefault:"info"`
	ServiceName      string `env:"PAGEKIT_SERVICE_NAME" envDefault:"pagekit"`
	MetricsEnabled   bool   `env:"PAGEKIT_METRICS_ENABLED" envDefault:"true"`
	MetricsNamespace string `env:"PAGEKIT_METRICS_NAMESPACE" envDefault:"pagekit"`

	Request request.Config
	Cookie  cookie.Config
	Server  server.Config
}
