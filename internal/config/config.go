package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App    AppConfig
	LLM    LLMConfig
	Serper SerperConfig
	Agent  AgentConfig
	HTTP   HTTPConfig
}

type AppConfig struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// LLMConfig points at an OpenAI-compatible chat endpoint, OpenRouter by default.
type LLMConfig struct {
	APIKey     string        `envconfig:"OPENROUTER_API_KEY" required:"true"`
	BaseURL    string        `envconfig:"OPENROUTER_URL" default:"https://openrouter.ai/api/v1"`
	Provider   string        `envconfig:"LLM_PROVIDER" default:"langchain"`
	Model      string        `envconfig:"LLM_MODEL" default:"google/gemini-flash-1.5"`
	MaxRetries int           `envconfig:"LLM_MAX_RETRIES" default:"5"`
	Timeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"45s"`
}

type SerperConfig struct {
	APIKey            string        `envconfig:"SERPER_API_KEY" required:"true"`
	SearchURL         string        `envconfig:"SERPER_SEARCH_URL"`
	ScrapeURL         string        `envconfig:"SERPER_SCRAPE_URL"`
	RequestsPerSecond float64       `envconfig:"SERPER_REQUESTS_PER_SECOND" default:"5"`
	Timeout           time.Duration `envconfig:"SERPER_TIMEOUT" default:"20s"`
}

type AgentConfig struct {
	MaxSteps       int           `envconfig:"AGENT_MAX_STEPS" default:"20"`
	ResolveTimeout time.Duration `envconfig:"RESOLVE_TIMEOUT" default:"60s"`
	CreateTimeout  time.Duration `envconfig:"CREATE_TIMEOUT" default:"5m"`
	JobRetention   time.Duration `envconfig:"JOB_RETENTION" default:"10m"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	if cfg.LLM.APIKey == "" || cfg.Serper.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY and SERPER_API_KEY must not be empty")
	}
	if cfg.Agent.MaxSteps <= 0 {
		return nil, fmt.Errorf("AGENT_MAX_STEPS must be positive, got %d", cfg.Agent.MaxSteps)
	}
	return &cfg, nil
}
