// internal/testdb/testdb.go

// Package testdb opens a migrated in-memory SQLite store for package tests.
package testdb

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"quizmaker/internal/models"
	"quizmaker/pkg/database"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := database.NewSQLiteDB(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedUser inserts a user directly, bypassing password hashing.
func SeedUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test " + string(role),
		Role:         role,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}
