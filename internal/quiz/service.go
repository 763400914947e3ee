// internal/quiz/service.go
package quiz

import (
	"context"
	"log"
	"time"

	"quizmaker/internal/apperr"
	"quizmaker/internal/models"
)

const noQuestionsReason = "Quiz must have at least one question to be published"

type CreateQuizInput struct {
	Title           string
	Description     *string
	InstructorID    string
	DurationMinutes *int
	PassingScore    *int
}

// UpdateQuizInput is a partial update: only fields with Set == true change.
type UpdateQuizInput struct {
	Title           models.Optional[string]  `json:"title"`
	Description     models.Optional[*string] `json:"description"`
	DurationMinutes models.Optional[*int]    `json:"durationMinutes"`
	PassingScore    models.Optional[*int]    `json:"passingScore"`
	IsPublished     models.Optional[bool]    `json:"isPublished"`
}

type PublishCheck struct {
	CanPublish bool   `json:"canPublish"`
	Reason     string `json:"reason,omitempty"`
}

type Stats struct {
	QuizID            string   `json:"quiz_id"`
	TotalAttempts     int64    `json:"total_attempts"`
	CompletedAttempts int64    `json:"completed_attempts"`
	AverageScore      *float64 `json:"average_score"`
	PassRate          *float64 `json:"pass_rate"`
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateQuiz(ctx context.Context, in CreateQuizInput) (*models.Quiz, error) {
	const op = "quiz.CreateQuiz"

	instructor, err := s.repo.GetUserByID(ctx, in.InstructorID)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if instructor == nil || instructor.Role != models.RoleInstructor {
		return nil, apperr.Forbidden(op, "invalid instructor ID or user is not an instructor")
	}

	quiz := &models.Quiz{
		Title:           in.Title,
		Description:     in.Description,
		InstructorID:    in.InstructorID,
		DurationMinutes: in.DurationMinutes,
		PassingScore:    in.PassingScore,
		IsPublished:     false,
	}
	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, apperr.Store(op, err)
	}
	return quiz, nil
}

// GetByID returns (nil, nil) when the quiz does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	quiz, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("quiz.GetByID", err)
	}
	return quiz, nil
}

func (s *Service) GetWithInstructor(ctx context.Context, id string) (*models.QuizWithInstructor, error) {
	quiz, err := s.repo.GetQuizWithInstructor(ctx, id)
	if err != nil {
		return nil, apperr.Store("quiz.GetWithInstructor", err)
	}
	return quiz, nil
}

func (s *Service) ListByInstructor(ctx context.Context, instructorID string) ([]models.Quiz, error) {
	quizzes, err := s.repo.GetQuizzesByInstructor(ctx, instructorID)
	if err != nil {
		return nil, apperr.Store("quiz.ListByInstructor", err)
	}
	return quizzes, nil
}

func (s *Service) ListPublished(ctx context.Context) ([]models.QuizWithInstructor, error) {
	quizzes, err := s.repo.GetPublishedQuizzes(ctx)
	if err != nil {
		return nil, apperr.Store("quiz.ListPublished", err)
	}
	return quizzes, nil
}

// RequireOwner loads the quiz and checks that requesterID owns it.
func (s *Service) RequireOwner(ctx context.Context, op, quizID, requesterID, action string) (*models.Quiz, error) {
	quiz, err := s.repo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if quiz == nil {
		return nil, apperr.NotFound(op, "quiz not found")
	}
	if quiz.InstructorID != requesterID {
		return nil, apperr.Forbidden(op, "you do not have permission to %s this quiz", action)
	}
	return quiz, nil
}

// UpdateQuiz applies the fields present in in and always bumps updated_at.
// The publish flag is stored as given; callers check CanPublish first.
func (s *Service) UpdateQuiz(ctx context.Context, id, requesterID string, in UpdateQuizInput) (*models.Quiz, error) {
	const op = "quiz.UpdateQuiz"

	if _, err := s.RequireOwner(ctx, op, id, requesterID, "update"); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if in.Title.Set {
		fields["title"] = in.Title.Value
	}
	if in.Description.Set {
		fields["description"] = in.Description.Value
	}
	if in.DurationMinutes.Set {
		fields["duration_minutes"] = in.DurationMinutes.Value
	}
	if in.PassingScore.Set {
		fields["passing_score"] = in.PassingScore.Value
	}
	if in.IsPublished.Set {
		fields["is_published"] = in.IsPublished.Value
	}

	if err := s.repo.UpdateQuiz(ctx, id, fields); err != nil {
		return nil, apperr.Store(op, err)
	}

	updated, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if updated == nil {
		return nil, apperr.NotFound(op, "quiz not found")
	}
	return updated, nil
}

func (s *Service) PublishQuiz(ctx context.Context, id, requesterID string) (*models.Quiz, error) {
	return s.UpdateQuiz(ctx, id, requesterID, UpdateQuizInput{IsPublished: models.Some(true)})
}

func (s *Service) UnpublishQuiz(ctx context.Context, id, requesterID string) (*models.Quiz, error) {
	return s.UpdateQuiz(ctx, id, requesterID, UpdateQuizInput{IsPublished: models.Some(false)})
}

func (s *Service) CanPublish(ctx context.Context, id string) (PublishCheck, error) {
	count, err := s.QuestionCount(ctx, id)
	if err != nil {
		return PublishCheck{}, err
	}
	if count == 0 {
		return PublishCheck{CanPublish: false, Reason: noQuestionsReason}, nil
	}
	return PublishCheck{CanPublish: true}, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, id, requesterID string) error {
	const op = "quiz.DeleteQuiz"

	if _, err := s.RequireOwner(ctx, op, id, requesterID, "delete"); err != nil {
		return err
	}
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		return tx.DeleteQuiz(ctx, id)
	})
	if err != nil {
		return apperr.Store(op, err)
	}
	return nil
}

// GetStats aggregates the attempts of a quiz. AverageScore is the mean raw
// score, not a percentage; PassRate is a percentage of completed attempts.
func (s *Service) GetStats(ctx context.Context, id string) (Stats, error) {
	const op = "quiz.GetStats"

	quiz, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return Stats{}, apperr.Store(op, err)
	}
	if quiz == nil {
		return Stats{}, apperr.NotFound(op, "quiz not found")
	}

	passingScore := 0
	if quiz.PassingScore != nil {
		passingScore = *quiz.PassingScore
	}
	row, err := s.repo.GetAttemptStats(ctx, id, passingScore)
	if err != nil {
		return Stats{}, apperr.Store(op, err)
	}

	stats := Stats{
		QuizID:            id,
		TotalAttempts:     row.TotalAttempts,
		CompletedAttempts: row.CompletedAttempts,
	}
	if row.CompletedAttempts > 0 {
		stats.AverageScore = row.AverageScore
		if quiz.PassingScore != nil {
			rate := float64(row.PassedAttempts) * 100 / float64(row.CompletedAttempts)
			stats.PassRate = &rate
		}
	}
	log.Printf("Stats for quiz %s: %d attempts, %d completed", id, stats.TotalAttempts, stats.CompletedAttempts)
	return stats, nil
}

func (s *Service) QuestionCount(ctx context.Context, id string) (int64, error) {
	count, err := s.repo.CountQuestions(ctx, id)
	if err != nil {
		return 0, apperr.Store("quiz.QuestionCount", err)
	}
	return count, nil
}
