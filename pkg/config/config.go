package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000/dashboard"`

	// DatabaseURL selects the store: mongodb:// or mongodb+srv:// uses MongoDB,
	// anything else is handed to the sqlite/libsql driver.
	DatabaseURL   string `env:"DATABASE_URL" envDefault:"file:linkbio.sqlite"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"linkbio"`

	// Empty RedisURL disables rate limiting on the anonymous endpoints.
	RedisURL               string `env:"REDIS_URL"`
	RateLimitMax           int    `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindowSeconds int    `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/auth/google/callback"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL  string `env:"GITHUB_REDIRECT_URL" envDefault:"http://localhost:8080/auth/github/callback"`

	JWTSecret     string   `env:"JWT_SECRET" envDefault:"secret"`
	AllowedEmails []string `env:"ALLOWED_EMAILS" envSeparator:","`

	RequestTimeoutSeconds   int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"5"`
	AnalyticsTimeoutSeconds int `env:"ANALYTICS_TIMEOUT_SECONDS" envDefault:"8"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogOutput string `env:"LOG_OUTPUT" envDefault:"stdout"` // stdout, file or both
	LogFile   string `env:"LOG_FILE" envDefault:"logs/app.log"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) UsesMongo() bool {
	return strings.HasPrefix(c.DatabaseURL, "mongodb://") || strings.HasPrefix(c.DatabaseURL, "mongodb+srv://")
}

func (c *Config) RequestTimeout() time.Duration {
	return seconds(c.RequestTimeoutSeconds, 5)
}

func (c *Config) AnalyticsTimeout() time.Duration {
	return seconds(c.AnalyticsTimeoutSeconds, 8)
}

func (c *Config) RateLimitWindow() time.Duration {
	return seconds(c.RateLimitWindowSeconds, 60)
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
