package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable, e.g. URBANGROW_DATABASE_URL.
// Fields tagged with envconfig also fall back to the bare name (DATABASE_URL).
const EnvPrefix = "URBANGROW"

// Config holds settings for both the API server and the dashboard client.
type Config struct {
	Port string `envconfig:"PORT" default:"3000"`

	DatabaseDriver         string        `split_words:"true" default:"postgres"`
	DatabaseURL            string        `envconfig:"DATABASE_URL" default:"host=localhost user=postgres password=postgres dbname=urbangrow port=5432 sslmode=disable"`
	DatabaseMaxOpenConns   int           `split_words:"true" default:"10"`
	DatabaseRetryDelay     time.Duration `split_words:"true" default:"5s"`
	DatabaseHealthInterval time.Duration `split_words:"true" default:"15s"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
	NATSURL     string   `envconfig:"NATS_URL"`

	LogLevel       string `split_words:"true" default:"info"`
	LogDevelopment bool   `split_words:"true"`

	APIBaseURL   string        `envconfig:"API_BASE_URL" default:"http://localhost:3000"`
	PollInterval time.Duration `split_words:"true" default:"3s"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `split_words:"true" default:"gemini-2.5-flash"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var conf Config
	if err := envconfig.Process(EnvPrefix, &conf); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseRetryDelay <= 0 {
		return fmt.Errorf("database retry delay must be positive, got %s", c.DatabaseRetryDelay)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}
