//go:build integration

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"quizmaker/internal/models"
)

func startPostgres(ctx context.Context, t *testing.T) (cfg *Config, terminate func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "quizmaker",
			"POSTGRES_PASSWORD": "quizmaker",
			"POSTGRES_DB":       "quizmaker",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg = &Config{
		Driver:   "postgres",
		Host:     host,
		Port:     port.Port(),
		User:     "quizmaker",
		Password: "quizmaker",
		DBName:   "quizmaker",
	}
	terminate = func() {
		require.NoError(t, pg.Terminate(ctx))
	}
	return cfg, terminate
}

func TestPostgresPartialUniqueIndex(t *testing.T) {
	ctx := context.Background()
	cfg, terminate := startPostgres(ctx, t)
	defer terminate()

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	attempt := func() *models.QuizAttempt {
		return &models.QuizAttempt{QuizID: "quiz-1", StudentID: "student-1", StartedAt: time.Now(), Status: models.AttemptInProgress}
	}
	require.NoError(t, db.Create(attempt()).Error)

	err = db.Create(attempt()).Error
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}
