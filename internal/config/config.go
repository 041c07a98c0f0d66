package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Bridge   BridgeConfig
	Sweeper  SweeperConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth
	ConsoleURL      string   // frontend the root path redirects to
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	// Secret keys the server-side session bindings. It is generated once at
	// startup when SESSION_SECRET is unset and must be shared by every worker
	// and handler for the lifetime of the process; it is never mutated after Load.
	Secret    []byte
	TTL       time.Duration
	Generated bool // true when the secret was generated rather than configured
}

type BridgeConfig struct {
	// Workers is the fixed number of blocking storage workers. Not resized at runtime.
	Workers int
	// QueueSize bounds the dispatch queue; a full queue is the backpressure signal.
	QueueSize int
}

type SweeperConfig struct {
	// Schedule is a cron expression evaluated in UTC.
	Schedule string
	// Retention is how long an orphan link survives before it is purged.
	Retention time.Duration
}

const sessionSecretLen = 32

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "9600"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
			ConsoleURL:      getEnv("CONSOLE_URL", "https://console.elide.me"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "elide"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL: getDurationEnv("SESSION_TTL", 24*time.Hour),
		},
		Bridge: BridgeConfig{
			Workers:   getIntEnv("BRIDGE_WORKERS", 5),
			QueueSize: getIntEnv("BRIDGE_QUEUE_SIZE", 64),
		},
		Sweeper: SweeperConfig{
			Schedule:  getEnv("SWEEP_SCHEDULE", "0 0 * * *"),
			Retention: getDurationEnv("ORPHAN_RETENTION", 24*time.Hour),
		},
	}

	if cfg.Bridge.Workers < 1 {
		return nil, fmt.Errorf("BRIDGE_WORKERS must be at least 1, got %d", cfg.Bridge.Workers)
	}
	if cfg.Bridge.QueueSize < 1 {
		return nil, fmt.Errorf("BRIDGE_QUEUE_SIZE must be at least 1, got %d", cfg.Bridge.QueueSize)
	}

	secret, generated, err := loadSessionSecret()
	if err != nil {
		return nil, err
	}
	cfg.Session.Secret = secret
	cfg.Session.Generated = generated

	return cfg, nil
}

// loadSessionSecret reads SESSION_SECRET (base64) or generates a fresh secret.
// Generation happens exactly once per process; restarting with a generated
// secret invalidates existing sessions, which is why production should set it.
func loadSessionSecret() ([]byte, bool, error) {
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		secret, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, false, fmt.Errorf("SESSION_SECRET is not valid base64: %w", err)
		}
		if len(secret) < sessionSecretLen {
			return nil, false, fmt.Errorf("SESSION_SECRET must decode to at least %d bytes, got %d", sessionSecretLen, len(secret))
		}
		return secret, false, nil
	}

	secret := make([]byte, sessionSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, false, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return secret, true, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the postgres:// form of the DSN, used by the migration runner.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return d
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
