// internal/config/config.go
package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"quizmaker/internal/auth"
	"quizmaker/pkg/database"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset. It is refused in
// production.
const DevJWTSecret = "dev-secret-change-me"

type Config struct {
	Env      string
	HTTPAddr string

	Database database.Config

	RedisAddr     string
	RedisPassword string

	AMQPURL      string
	AMQPExchange string

	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
}

func Load() *Config {
	return &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Database: database.Config{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "quizmaker"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "quizmaker"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "quizmaker.db"),
		},
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		AMQPURL:       getEnv("AMQP_URL", ""),
		AMQPExchange:  getEnv("AMQP_EXCHANGE", "quiz.events"),
		JWTSecret:     getEnv("JWT_SECRET", DevJWTSecret),
		TokenTTL:      getDuration("TOKEN_TTL", auth.DefaultTokenTTL),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// Validate rejects settings that are only safe for local development.
func (c *Config) Validate() error {
	if c.Production() && c.JWTSecret == DevJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid %s %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
