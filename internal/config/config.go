package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/speedgame.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	SeedQuestionsCSV string   `env:"SEED_QUESTIONS_CSV"`
	SeedThemes       []string `env:"SEED_THEMES" envSeparator:","`

	TimerTick      time.Duration `env:"TIMER_TICK" envDefault:"1s"`
	RegistryShards int           `env:"REGISTRY_SHARDS" envDefault:"32"`

	// Requests per second allowed per client IP on gameplay routes.
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"20"`
	RateBurst int     `env:"RATE_BURST" envDefault:"40"`

	// Tracing is off when empty.
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TimerTick <= 0 {
		return nil, fmt.Errorf("TIMER_TICK must be positive, got %s", cfg.TimerTick)
	}
	if cfg.RegistryShards <= 0 {
		return nil, fmt.Errorf("REGISTRY_SHARDS must be positive, got %d", cfg.RegistryShards)
	}
	return &cfg, nil
}
