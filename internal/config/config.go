package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries every externally supplied knob: provider endpoints and
// credentials, model identifiers, pacing and retry budgets, dungeon shape,
// and the ambient logging/tracing settings. Nothing in here is hard-coded
// into the engine packages; everything is passed down at construction time.
type Config struct {
	// Remote provider (OpenAI-compatible HTTPS JSON API).
	RemoteBaseURL string        `envconfig:"REMOTE_BASE_URL" default:"https://openrouter.ai/api/v1"`
	RemoteAPIKey  string        `envconfig:"REMOTE_API_KEY"`
	RemoteModel   string        `envconfig:"REMOTE_MODEL" default:"deepseek/deepseek-chat"`
	RemoteTimeout time.Duration `envconfig:"REMOTE_TIMEOUT" default:"120s"`

	// Local provider (Ollama HTTP API).
	LocalHost    string        `envconfig:"LOCAL_HOST" default:"http://localhost:11434"`
	LocalModel   string        `envconfig:"LOCAL_MODEL" default:"llama3.1"`
	LocalTimeout time.Duration `envconfig:"LOCAL_TIMEOUT" default:"120s"`

	// Provider selection and fallback mapping.
	PrimaryProvider  string `envconfig:"PRIMARY_PROVIDER" default:"remote"`
	FallbackProvider string `envconfig:"FALLBACK_PROVIDER" default:"local"`

	// Pipeline pacing and retry budget.
	RequestSpacing time.Duration `envconfig:"REQUEST_SPACING" default:"1s"`
	RetryBudget    int           `envconfig:"RETRY_BUDGET" default:"3"`
	RetryBackoff   time.Duration `envconfig:"RETRY_BACKOFF" default:"2s"`

	// Orchestrator state-level retries before surfacing a recoverable error.
	StateRetryBudget int `envconfig:"STATE_RETRY_BUDGET" default:"2"`

	// Dungeon shape.
	Levels        int   `envconfig:"LEVELS" default:"3"`
	RoomsPerLevel int   `envconfig:"ROOMS_PER_LEVEL" default:"10"`
	LevelWidth    int   `envconfig:"LEVEL_WIDTH" default:"6"`
	LevelHeight   int   `envconfig:"LEVEL_HEIGHT" default:"6"`
	Seed          int64 `envconfig:"SEED" default:"0"`

	Temperature float64 `envconfig:"TEMPERATURE" default:"0.8"`

	// Image generation server. Empty URL disables image generation.
	ImageServerURL string        `envconfig:"IMAGE_SERVER_URL"`
	ImageSavePath  string        `envconfig:"IMAGE_SAVE_PATH" default:"./images"`
	ImageTimeout   time.Duration `envconfig:"IMAGE_TIMEOUT" default:"60s"`
	ImageStyle     string        `envconfig:"IMAGE_STYLE" default:", dark fantasy concept art, muted palette"`

	// Transcript audit log.
	TranscriptPath string `envconfig:"TRANSCRIPT_PATH" default:"./transcript.db"`

	// Logging.
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	LogPath     string `envconfig:"LOG_PATH" default:"dreamdelve.log"`
}

// Load reads configuration from the environment, after loading an optional
// .env file. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("delve", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PrimaryProvider != "remote" && c.PrimaryProvider != "local" {
		return fmt.Errorf("unknown primary provider %q", c.PrimaryProvider)
	}
	if c.FallbackProvider != "" && c.FallbackProvider != "remote" && c.FallbackProvider != "local" {
		return fmt.Errorf("unknown fallback provider %q", c.FallbackProvider)
	}
	if c.FallbackProvider == c.PrimaryProvider {
		return fmt.Errorf("fallback provider must differ from primary")
	}
	if (c.PrimaryProvider == "remote" || c.FallbackProvider == "remote") && c.RemoteAPIKey == "" {
		return fmt.Errorf("DELVE_REMOTE_API_KEY is required when the remote provider is configured")
	}
	if c.RetryBudget < 1 {
		return fmt.Errorf("retry budget must be at least 1, got %d", c.RetryBudget)
	}
	if c.RequestSpacing <= 0 {
		return fmt.Errorf("request spacing must be positive, got %v", c.RequestSpacing)
	}
	if c.Levels < 1 || c.RoomsPerLevel < 1 {
		return fmt.Errorf("levels and rooms per level must be at least 1")
	}
	return nil
}
