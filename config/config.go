// config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Values come from the environment,
// with a .env file as a convenience for local development.
type Config struct {
	Env     string
	Port    string
	BaseURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	SessionKey string
	CSRFKey    string
	JWTSecret  string

	RedisAddr     string
	RedisPassword string
	StatsCacheTTL time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	CORSOrigin string

	ReminderInterval  time.Duration
	ReminderLookahead time.Duration
}

func Load() *Config {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	return &Config{
		Env:     getEnv("APP_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "learning_platform"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SessionKey: getEnv("SESSION_KEY", "dev-session-key-change-me"),
		CSRFKey:    getEnv("CSRF_KEY", "dev-csrf-key-32-bytes-long......"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-jwt-secret-change-me"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		StatsCacheTTL: getDuration("STATS_CACHE_TTL", time.Minute),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@localhost"),

		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		ReminderInterval:  getDuration("REMINDER_INTERVAL", time.Minute),
		ReminderLookahead: getDuration("REMINDER_LOOKAHEAD", 14*24*time.Hour),
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
