package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingAuthConfig is returned when the auth provider URL or JWT secret is
// absent. Everything else degrades to a default; these two cannot.
var ErrMissingAuthConfig = errors.New("AUTH_PROVIDER_URL and AUTH_JWT_SECRET are required")

// Config holds all configuration for the application
type Config struct {
	// Site Configuration
	Site SiteConfig

	// Auth provider (hosted GoTrue-compatible service)
	Auth AuthConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig
}

// SiteConfig holds public-facing URL configuration
type SiteConfig struct {
	BaseURL  string // Public marketing site base URL
	AdminURL string // Admin console base URL
	Listen   string // HTTP listen address for this service
}

// AuthConfig holds external auth provider configuration
type AuthConfig struct {
	ProviderURL string // Project URL of the hosted auth provider
	PublicKey   string // Publishable API key sent as apikey header
	JWTSecret   string // HS256 secret used to verify provider-issued tokens
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables.
//
// Soft settings fall back through a precedence chain and never fail. The auth
// provider URL and JWT secret are hard requirements: without them no session
// token can be verified, so Load fails fast instead of degrading.
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// Site base URL: explicit setting, then the platform-injected deploy URL,
	// then a local default
	siteURL := firstNonEmpty(
		os.Getenv("SITE_URL"),
		os.Getenv("DEPLOY_URL"),
		"http://localhost:3000",
	)

	adminURL := firstNonEmpty(
		os.Getenv("ADMIN_APP_URL"),
		"http://localhost:3001",
	)

	listen := firstNonEmpty(os.Getenv("LISTEN_ADDR"), ":8080")

	authURL := os.Getenv("AUTH_PROVIDER_URL")
	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if authURL == "" || jwtSecret == "" {
		return nil, ErrMissingAuthConfig
	}
	publicKey := os.Getenv("AUTH_PUBLIC_KEY")

	dbURL := firstNonEmpty(os.Getenv("DATABASE_URL"), "stackfinder.sqlite")

	redisAddr := firstNonEmpty(os.Getenv("REDIS_ADDRESS"), "localhost:6379")

	logLevel := firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")
	logFormat := firstNonEmpty(os.Getenv("LOG_FORMAT"), "json")

	return &Config{
		Site: SiteConfig{
			BaseURL:  siteURL,
			AdminURL: adminURL,
			Listen:   listen,
		},
		Auth: AuthConfig{
			ProviderURL: authURL,
			PublicKey:   publicKey,
			JWTSecret:   jwtSecret,
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
