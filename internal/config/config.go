package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported STORE_DRIVER values.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// ProviderConfig is the per-provider credential block handed to one adapter.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // empty selects the provider's public endpoint
}

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort           string
	Environment        string
	JWTSecret          string
	TokenExpiration    time.Duration
	CORSAllowedOrigins []string

	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	AutoMigrate bool

	ProviderTimeout time.Duration
	OpenAI          ProviderConfig
	Anthropic       ProviderConfig
	Google          ProviderConfig

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

// IsProduction selects the production logger and stricter defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside development.
	envErr := godotenv.Load()

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SQLitePath:         getEnv("SQLITE_PATH", "polychat.db"),
		OpenAI: ProviderConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
		},
		Anthropic: ProviderConfig{
			APIKey:  getEnv("ANTHROPIC_API_KEY", ""),
			BaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
		},
		Google: ProviderConfig{
			APIKey:  getEnv("GOOGLE_AI_API_KEY", ""),
			BaseURL: getEnv("GOOGLE_AI_BASE_URL", ""),
		},
		EnvFileLoaded: envErr == nil,
	}

	tokenExpHours, err := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	if err != nil || tokenExpHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: must be a positive integer")
	}
	cfg.TokenExpiration = time.Hour * time.Duration(tokenExpHours)

	timeoutSeconds, err := strconv.Atoi(getEnv("PROVIDER_TIMEOUT_SECONDS", "60"))
	if err != nil || timeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT_SECONDS: must be a non-negative integer")
	}
	cfg.ProviderTimeout = time.Second * time.Duration(timeoutSeconds)

	if cfg.AutoMigrate, err = strconv.ParseBool(getEnv("AUTO_MIGRATE", "true")); err != nil {
		return nil, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET environment variable is not set")
		}
		c.JWTSecret = "default-super-secret-key" // development only
	}

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL environment variable is not set")
		}
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (want %s or %s)", c.StoreDriver, StoreDriverPostgres, StoreDriverSQLite)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
