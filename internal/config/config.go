package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from the environment.
type Config struct {
	APIBaseURL        string        `env:"API_BASE_URL,required"`
	APITimeout        time.Duration `env:"API_TIMEOUT"         envDefault:"5s"`
	Port              string        `env:"APP_PORT"            envDefault:"8080"`
	RenderWait        time.Duration `env:"RENDER_WAIT"         envDefault:"3s"`
	ControllerIdleTTL time.Duration `env:"CONTROLLER_IDLE_TTL" envDefault:"30m"`
	ServiceName       string        `env:"OTEL_SERVICE_NAME"   envDefault:"data-explorer"`

	RedisURL string `env:"REDIS_URL"`

	Session   SessionConfig
	Telemetry TelemetryConfig

	TransitionRateLimit  int           `env:"TRANSITION_RATE_LIMIT"  envDefault:"0"`
	TransitionRateWindow time.Duration `env:"TRANSITION_RATE_WINDOW" envDefault:"1s"`
}

type SessionConfig struct {
	RedisPrefix    string        `env:"SESSION_REDIS_PREFIX"    envDefault:"explorer:session:"`
	TTL            time.Duration `env:"SESSION_TTL"             envDefault:"24h"`
	RefreshBefore  time.Duration `env:"SESSION_REFRESH_BEFORE"  envDefault:"1h"`
	CookieName     string        `env:"SESSION_COOKIE_NAME"     envDefault:"explorer_session"`
	CookiePath     string        `env:"SESSION_COOKIE_PATH"     envDefault:"/"`
	CookieDomain   string        `env:"SESSION_COOKIE_DOMAIN"`
	CookieSecure   bool          `env:"SESSION_COOKIE_SECURE"   envDefault:"false"`
	CookieSameSite string        `env:"SESSION_COOKIE_SAMESITE" envDefault:"lax"`
}

// TelemetryConfig follows the standard OTEL_* variable names.
type TelemetryConfig struct {
	Disabled        bool   `env:"OTEL_SDK_DISABLED"                   envDefault:"false"`
	Endpoint        string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"         envDefault:"localhost:4317"`
	TracesEndpoint  string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	MetricsEndpoint string `env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`
	LogsEndpoint    string `env:"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"`
	Insecure        bool   `env:"OTEL_EXPORTER_OTLP_INSECURE"         envDefault:"true"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	if c.RenderWait < 0 {
		return fmt.Errorf("RENDER_WAIT must not be negative")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if _, ok := parseSameSite(c.Session.CookieSameSite); !ok {
		return fmt.Errorf("invalid SESSION_COOKIE_SAMESITE: %q", c.Session.CookieSameSite)
	}
	return nil
}

// SameSite returns the cookie SameSite mode; unknown values fall back to lax.
func (s SessionConfig) SameSite() http.SameSite {
	mode, ok := parseSameSite(s.CookieSameSite)
	if !ok {
		return http.SameSiteLaxMode
	}
	return mode
}

func parseSameSite(v string) (http.SameSite, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	case "lax", "":
		return http.SameSiteLaxMode, true
	default:
		return 0, false
	}
}
