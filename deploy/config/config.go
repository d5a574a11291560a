package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	HTTPServer HTTPServer
	Exchange   Exchange
	Widget     Widget
	LogLevel   string `env:"LOG_LEVEL" env-default:"debug"`
}

type HTTPServer struct {
	Port        string        `env:"HTTP_PORT" env-default:"8082"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"2m"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Exchange struct {
	URL     string        `env:"EXCHANGE_API_URL" env-default:"https://v6.exchangerate-api.com/v6"`
	APIKey  string        `env:"EXCHANGE_API_KEY"`
	Timeout time.Duration `env:"FETCHER_TIMEOUT" env-default:"10s"`
}

type Widget struct {
	DefaultFrom string        `env:"DEFAULT_FROM" env-default:"USD"`
	DefaultTo   string        `env:"DEFAULT_TO" env-default:"AFN"`
	SessionTTL  time.Duration `env:"SESSION_TTL" env-default:"30m"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	const op = "config.Load"

	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Exchange.APIKey) == "" {
		return entities.NewError(entities.KindConfig, "EXCHANGE_API_KEY is not set", entities.ErrConfig)
	}
	if c.Exchange.URL == "" {
		return entities.NewError(entities.KindConfig, "EXCHANGE_API_URL is empty", entities.ErrConfig)
	}
	return nil
}

// LogValue hides the API key when the config is logged at startup.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("http_port", c.HTTPServer.Port),
		slog.Duration("http_timeout", c.HTTPServer.Timeout),
		slog.String("exchange_url", c.Exchange.URL),
		slog.Duration("fetcher_timeout", c.Exchange.Timeout),
		slog.String("default_from", c.Widget.DefaultFrom),
		slog.String("default_to", c.Widget.DefaultTo),
		slog.Duration("session_ttl", c.Widget.SessionTTL),
		slog.String("log_level", c.LogLevel),
	)
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
