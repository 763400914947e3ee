// pkg/database/postgres.go
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quizmaker/internal/models"
)

type Config struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		// Unique violations surface as gorm.ErrDuplicatedKey on every driver.
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

func NewPostgresDB(config *Config) (*gorm.DB, error) {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		config.Host,
		config.User,
		config.Password,
		config.DBName,
		config.Port,
		sslMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	return db, nil
}

// NewSQLiteDB opens a SQLite database, used for local development and tests.
// A single connection keeps in-memory databases coherent.
func NewSQLiteDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Open picks the driver named in the config.
func Open(config *Config) (*gorm.DB, error) {
	switch config.Driver {
	case "", "postgres":
		return NewPostgresDB(config)
	case "sqlite":
		return NewSQLiteDB(config.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

// Migrate creates the tables and the partial unique index that allows at
// most one in-progress attempt per quiz and student.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_quiz_attempts_active
			ON quiz_attempts (quiz_id, student_id) WHERE status = 'in_progress'`,
		`CREATE INDEX IF NOT EXISTS ix_questions_quiz_order
			ON questions (quiz_id, order_index)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate index: %w", err)
		}
	}

	log.Printf("Database schema is up to date")
	return nil
}
