package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizmaker/internal/auth"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "HTTP_ADDR", "DB_DRIVER", "TOKEN_TTL", "CORS_ORIGINS", "REDIS_ADDR", "AMQP_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, auth.DefaultTokenTTL, cfg.TokenTTL)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	require.Empty(t, cfg.RedisAddr)
	require.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()
	require.True(t, cfg.Production())
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, time.Hour, cfg.TokenTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")
	require.Equal(t, auth.DefaultTokenTTL, Load().TokenTTL)
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "development")
	require.NoError(t, Load().Validate())

	t.Setenv("APP_ENV", "production")
	cfg := Load()
	require.Equal(t, DevJWTSecret, cfg.JWTSecret)
	require.Error(t, cfg.Validate())

	t.Setenv("JWT_SECRET", "a-real-secret")
	require.NoError(t, Load().Validate())
}
