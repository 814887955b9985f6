package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage selection and database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Retry configuration for storage and collaborator calls
	Retry RetryConfig

	// Error classification and tracking
	Errors ErrorConfig

	// Document generation
	Documents DocumentConfig

	// Booking lifecycle behaviour
	Bookings BookingConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	UseRemote          bool   // false selects the in-memory store
	Driver             string // postgres (lib/pq) or pgx
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// RetryConfig holds backoff settings
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	AttemptTimeout    time.Duration
}

// ErrorConfig holds classifier de-duplication and tracking settings
type ErrorConfig struct {
	DedupWindow    time.Duration
	DedupThreshold int
	TrackingURL    string
	TrackingAPIKey string
}

// DocumentConfig holds document-generation settings. ServiceURL takes
// precedence; otherwise links are built under BaseURL.
type DocumentConfig struct {
	ServiceURL string
	BaseURL    string
}

// BookingConfig holds lifecycle settings
type BookingConfig struct {
	StrictStatusTransitions bool
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := FromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv reads the configuration from the process environment without
// loading .env or validating.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			UseRemote:          getEnvAsBool("USE_REMOTE_STORAGE", false),
			Driver:             getEnv("DATABASE_DRIVER", "postgres"),
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:       getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelay:      time.Duration(getEnvAsInt("RETRY_INITIAL_DELAY_MS", 1000)) * time.Millisecond,
			BackoffMultiplier: getEnvAsFloat("RETRY_BACKOFF_MULTIPLIER", 2),
			AttemptTimeout:    time.Duration(getEnvAsInt("RETRY_ATTEMPT_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Errors: ErrorConfig{
			DedupWindow:    time.Duration(getEnvAsInt("ERROR_DEDUP_WINDOW_MS", 1000)) * time.Millisecond,
			DedupThreshold: getEnvAsInt("ERROR_DEDUP_THRESHOLD", 5),
			TrackingURL:    getEnv("ERROR_TRACKING_URL", ""),
			TrackingAPIKey: getEnv("ERROR_TRACKING_API_KEY", ""),
		},
		Documents: DocumentConfig{
			ServiceURL: getEnv("DOCUMENT_SERVICE_URL", ""),
			BaseURL:    getEnv("DOCUMENT_BASE_URL", "https://documents.voyagecrm.local"),
		},
		Bookings: BookingConfig{
			StrictStatusTransitions: getEnvAsBool("STRICT_STATUS_TRANSITIONS", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Database.UseRemote && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when USE_REMOTE_STORAGE is enabled")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'postgres' or 'pgx')", c.Database.Driver)
	}

	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid ENVIRONMENT: %s (must be development, staging or production)", c.Server.Environment)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.Retry.InitialDelay < 0 {
		return fmt.Errorf("RETRY_INITIAL_DELAY_MS cannot be negative")
	}
	if c.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("RETRY_BACKOFF_MULTIPLIER must be at least 1")
	}
	if c.Retry.AttemptTimeout <= 0 {
		return fmt.Errorf("RETRY_ATTEMPT_TIMEOUT_SECONDS must be positive")
	}

	if c.Errors.DedupThreshold < 1 {
		return fmt.Errorf("ERROR_DEDUP_THRESHOLD must be at least 1")
	}

	return nil
}

// Budget is the longest one retried call can take: every attempt timing out
// plus each backoff at its maximum jitter.
func (r RetryConfig) Budget() time.Duration {
	total := time.Duration(r.MaxAttempts) * r.AttemptTimeout
	delay := r.InitialDelay
	for i := 1; i < r.MaxAttempts; i++ {
		total += delay + delay/10
		delay = time.Duration(float64(delay) * r.BackoffMultiplier)
	}
	return total
}

// IsProduction reports whether classified errors are forwarded to tracking
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid number value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
