// internal/attempt/repository.go
package attempt

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

// CreateAttempt inserts the row. A second in_progress row for the same quiz
// and student violates ux_quiz_attempts_active and comes back as
// gorm.ErrDuplicatedKey.
func (r *Repository) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	err := r.db.WithContext(ctx).Create(a).Error
	if err != nil {
		log.Printf("Error creating attempt for quiz %s: %v", a.QuizID, err)
		return err
	}
	log.Printf("Student %s started attempt %s on quiz %s", a.StudentID, a.ID, a.QuizID)
	return nil
}

// GetAttemptByID returns (nil, nil) when the attempt does not exist.
func (r *Repository) GetAttemptByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	var a models.QuizAttempt
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("Error getting attempt %s: %v", id, err)
		return nil, err
	}
	return &a, nil
}

func (r *Repository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("quiz_attempts AS a").
		Select(`a.*,
			q.title AS quiz_title,
			q.description AS quiz_description,
			q.duration_minutes AS quiz_duration_minutes,
			q.passing_score AS quiz_passing_score,
			u.full_name AS instructor_name`).
		Joins("JOIN quizzes q ON a.quiz_id = q.id").
		Joins("JOIN users u ON q.instructor_id = u.id")
}

func (r *Repository) GetAttemptWithDetails(ctx context.Context, id string) (*models.AttemptWithDetails, error) {
	var rows []models.AttemptWithDetails
	err := r.withDetails(ctx).Where("a.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		log.Printf("Error getting attempt %s with details: %v", id, err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) GetAttemptsByStudent(ctx context.Context, studentID string) ([]models.AttemptWithDetails, error) {
	attempts := []models.AttemptWithDetails{}
	err := r.withDetails(ctx).
		Where("a.student_id = ?", studentID).
		Order("a.started_at DESC").
		Scan(&attempts).Error
	if err != nil {
		log.Printf("Error getting attempts for student %s: %v", studentID, err)
		return nil, err
	}
	return attempts, nil
}

// GetActiveAttempt returns (nil, nil) when there is no in_progress attempt.
func (r *Repository) GetActiveAttempt(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	var a models.QuizAttempt
	err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, models.AttemptInProgress).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetAttemptsByQuizForStudent(ctx context.Context, quizID, studentID string) ([]models.QuizAttempt, error) {
	attempts := []models.QuizAttempt{}
	err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// FinishAttempt moves an in_progress attempt to a terminal state. It reports
// how many rows changed; 0 means the attempt is missing or already finished.
func (r *Repository) FinishAttempt(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptInProgress).
		Updates(fields)
	if res.Error != nil {
		log.Printf("Error finishing attempt %s: %v", id, res.Error)
	}
	return res.RowsAffected, res.Error
}

// GetStudentAttempts returns every attempt of a student; stats are folded
// in the service.
func (r *Repository) GetStudentAttempts(ctx context.Context, studentID string) ([]models.QuizAttempt, error) {
	attempts := []models.QuizAttempt{}
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Find(&attempts).Error
	return attempts, err
}
