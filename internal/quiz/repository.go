// internal/quiz/repository.go
package quiz

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"quizmaker/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn against a repository bound to one transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	err := r.db.WithContext(ctx).Create(quiz).Error
	if err != nil {
		log.Printf("Error creating quiz: %v", err)
		return err
	}
	log.Printf("Created quiz with ID: %s", quiz.ID)
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetQuizByID returns (nil, nil) when the quiz does not exist.
func (r *Repository) GetQuizByID(ctx context.Context, quizID string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).Where("id = ?", quizID).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("Error getting quiz %s: %v", quizID, err)
		return nil, err
	}
	return &quiz, nil
}

func (r *Repository) withInstructor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("quizzes AS q").
		Select("q.*, u.full_name AS instructor_name, u.email AS instructor_email").
		Joins("JOIN users u ON q.instructor_id = u.id")
}

func (r *Repository) GetQuizWithInstructor(ctx context.Context, quizID string) (*models.QuizWithInstructor, error) {
	var rows []models.QuizWithInstructor
	err := r.withInstructor(ctx).Where("q.id = ?", quizID).Limit(1).Scan(&rows).Error
	if err != nil {
		log.Printf("Error getting quiz %s with instructor: %v", quizID, err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) GetQuizzesByInstructor(ctx context.Context, instructorID string) ([]models.Quiz, error) {
	quizzes := []models.Quiz{}
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&quizzes).Error
	if err != nil {
		log.Printf("Error getting quizzes for instructor %s: %v", instructorID, err)
		return nil, err
	}
	return quizzes, nil
}

func (r *Repository) GetPublishedQuizzes(ctx context.Context) ([]models.QuizWithInstructor, error) {
	quizzes := []models.QuizWithInstructor{}
	err := r.withInstructor(ctx).
		Where("q.is_published = ?", true).
		Order("q.created_at DESC").
		Scan(&quizzes).Error
	if err != nil {
		log.Printf("Error getting published quizzes: %v", err)
		return nil, err
	}
	return quizzes, nil
}

func (r *Repository) UpdateQuiz(ctx context.Context, quizID string, fields map[string]interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", quizID).
		Updates(fields).Error
	if err != nil {
		log.Printf("Error updating quiz %s: %v", quizID, err)
		return err
	}
	log.Printf("Updated quiz with ID: %s", quizID)
	return nil
}

// DeleteQuiz removes the quiz and everything hanging off it. Call it inside
// Transaction so the cascade is all-or-nothing.
func (r *Repository) DeleteQuiz(ctx context.Context, quizID string) error {
	db := r.db.WithContext(ctx)
	questionIDs := db.Model(&models.Question{}).Select("id").Where("quiz_id = ?", quizID)

	if err := db.Where("question_id IN (?)", questionIDs).Delete(&models.AnswerOption{}).Error; err != nil {
		return err
	}
	if err := db.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	if err := db.Where("quiz_id = ?", quizID).Delete(&models.QuizAttempt{}).Error; err != nil {
		return err
	}
	if err := db.Where("id = ?", quizID).Delete(&models.Quiz{}).Error; err != nil {
		return err
	}
	log.Printf("Deleted quiz %s", quizID)
	return nil
}

func (r *Repository) CountQuestions(ctx context.Context, quizID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

// AttemptStats holds the raw aggregates behind Stats.
type AttemptStats struct {
	TotalAttempts     int64
	CompletedAttempts int64
	AverageScore      *float64
	PassedAttempts    int64
}

func (r *Repository) GetAttemptStats(ctx context.Context, quizID string, passingScore int) (AttemptStats, error) {
	var row AttemptStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_attempts,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed_attempts,
			AVG(CASE WHEN status = 'completed' THEN CAST(score AS FLOAT) END) AS average_score,
			COALESCE(SUM(CASE WHEN status = 'completed' AND score >= ? THEN 1 ELSE 0 END), 0) AS passed_attempts
		FROM quiz_attempts
		WHERE quiz_id = ?
	`, passingScore, quizID).Scan(&row).Error
	if err != nil {
		log.Printf("Error getting stats for quiz %s: %v", quizID, err)
	}
	return row, err
}
