// internal/attempt/service.go
package attempt

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"gorm.io/gorm"

	"quizmaker/internal/apperr"
	"quizmaker/internal/models"
	"quizmaker/pkg/events"
)

// Quizzes is the read side of the quiz service used here.
type Quizzes interface {
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	GetWithInstructor(ctx context.Context, id string) (*models.QuizWithInstructor, error)
	QuestionCount(ctx context.Context, id string) (int64, error)
}

type StudentStats struct {
	TotalAttempts          int      `json:"total_attempts"`
	CompletedAttempts      int      `json:"completed_attempts"`
	AverageScorePercentage *float64 `json:"average_score_percentage"`
}

type Service struct {
	repo    *Repository
	quizzes Quizzes
	events  events.Publisher
	now     func() time.Time
}

func NewService(repo *Repository, quizzes Quizzes, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop
	}
	return &Service{repo: repo, quizzes: quizzes, events: publisher, now: time.Now}
}

func (s *Service) publish(ctx context.Context, key string, a *models.QuizAttempt) {
	if err := s.events.Publish(ctx, key, a); err != nil {
		log.Printf("Error publishing %s for attempt %s: %v", key, a.ID, err)
	}
}

func (s *Service) CreateAttempt(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	const op = "attempt.CreateAttempt"

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, apperr.NotFound(op, "quiz not found")
	}

	a := &models.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		StartedAt: s.now(),
		Status:    models.AttemptInProgress,
	}
	if err := s.repo.CreateAttempt(ctx, a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(op, "you already have an in-progress attempt for this quiz")
		}
		return nil, apperr.Store(op, err)
	}

	s.publish(ctx, events.AttemptStartedKey, a)
	return a, nil
}

// GetByID returns (nil, nil) when the attempt does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	a, err := s.repo.GetAttemptByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("attempt.GetByID", err)
	}
	return a, nil
}

func (s *Service) GetWithDetails(ctx context.Context, id string) (*models.AttemptWithDetails, error) {
	a, err := s.repo.GetAttemptWithDetails(ctx, id)
	if err != nil {
		return nil, apperr.Store("attempt.GetWithDetails", err)
	}
	return a, nil
}

func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]models.AttemptWithDetails, error) {
	attempts, err := s.repo.GetAttemptsByStudent(ctx, studentID)
	if err != nil {
		return nil, apperr.Store("attempt.ListByStudent", err)
	}
	return attempts, nil
}

func (s *Service) GetActive(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	a, err := s.repo.GetActiveAttempt(ctx, quizID, studentID)
	if err != nil {
		return nil, apperr.Store("attempt.GetActive", err)
	}
	return a, nil
}

func (s *Service) ListByQuizForStudent(ctx context.Context, quizID, studentID string) ([]models.QuizAttempt, error) {
	attempts, err := s.repo.GetAttemptsByQuizForStudent(ctx, quizID, studentID)
	if err != nil {
		return nil, apperr.Store("attempt.ListByQuizForStudent", err)
	}
	return attempts, nil
}

// finish applies a terminal transition. The update only matches in_progress
// rows, so of two concurrent calls exactly one wins.
func (s *Service) finish(ctx context.Context, op, id string, fields map[string]interface{}) (*models.QuizAttempt, error) {
	n, err := s.repo.FinishAttempt(ctx, id, fields)
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	a, err := s.repo.GetAttemptByID(ctx, id)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if a == nil {
		return nil, apperr.NotFound(op, "quiz attempt not found")
	}
	if n == 0 {
		return nil, apperr.InvalidState(op, "quiz attempt is not in progress")
	}
	return a, nil
}

// CompleteAttempt stores score and totalPoints as given.
func (s *Service) CompleteAttempt(ctx context.Context, id string, score, totalPoints int) (*models.QuizAttempt, error) {
	a, err := s.finish(ctx, "attempt.CompleteAttempt", id, map[string]interface{}{
		"status":       models.AttemptCompleted,
		"completed_at": s.now(),
		"score":        score,
		"total_points": totalPoints,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.AttemptCompletedKey, a)
	return a, nil
}

func (s *Service) AbandonAttempt(ctx context.Context, id string) (*models.QuizAttempt, error) {
	a, err := s.finish(ctx, "attempt.AbandonAttempt", id, map[string]interface{}{
		"status": models.AttemptAbandoned,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.AttemptAbandonedKey, a)
	return a, nil
}

// StudentStats averages score/total as a percentage over completed attempts
// that have a positive total, rounded to two decimals.
func (s *Service) StudentStats(ctx context.Context, studentID string) (StudentStats, error) {
	attempts, err := s.repo.GetStudentAttempts(ctx, studentID)
	if err != nil {
		return StudentStats{}, apperr.Store("attempt.StudentStats", err)
	}

	stats := StudentStats{TotalAttempts: len(attempts)}
	var sum float64
	var scored int
	for _, a := range attempts {
		if a.Status != models.AttemptCompleted {
			continue
		}
		stats.CompletedAttempts++
		if a.Score == nil || a.TotalPoints == nil || *a.TotalPoints <= 0 {
			continue
		}
		sum += float64(*a.Score) / float64(*a.TotalPoints) * 100
		scored++
	}
	if scored > 0 {
		avg := math.Round(sum/float64(scored)*100) / 100
		stats.AverageScorePercentage = &avg
	}
	return stats, nil
}
