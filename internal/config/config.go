package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr       string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath         string     `env:"DB_PATH" envDefault:"data/routequest.db"`
	LogLevel       slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	BaseURL        string     `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SuperuserEmail string     `env:"SUPERUSER_EMAIL" envDefault:"admin@admin.se"`

	// AI provider settings. An empty key means the provider is unconfigured
	// and question-generation tasks fail with an explicit error.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"2s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
