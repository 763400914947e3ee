// internal/models/quiz.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleInstructor
}

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer:
		return true
	}
	return false
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	FullName     string    `json:"full_name" gorm:"not null"`
	Role         Role      `json:"user_type" gorm:"column:user_type;type:varchar(16);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Quiz struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title           string    `json:"title" gorm:"type:varchar(200);not null"`
	Description     *string   `json:"description"`
	InstructorID    string    `json:"instructor_id" gorm:"type:varchar(36);not null;index"`
	DurationMinutes *int      `json:"duration_minutes"`
	PassingScore    *int      `json:"passing_score"`
	IsPublished     bool      `json:"is_published" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// QuizWithInstructor is the read model for listings that show the owner.
type QuizWithInstructor struct {
	Quiz
	InstructorName  string `json:"instructor_name"`
	InstructorEmail string `json:"instructor_email"`
}

type Question struct {
	ID           string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	QuizID       string       `json:"quiz_id" gorm:"type:varchar(36);not null;index"`
	QuestionText string       `json:"question_text" gorm:"type:varchar(1000);not null"`
	QuestionType QuestionType `json:"question_type" gorm:"type:varchar(32);not null"`
	Points       int          `json:"points" gorm:"not null;default:1"`
	OrderIndex   int          `json:"order_index" gorm:"not null;default:0"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

type AnswerOption struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	QuestionID string `json:"question_id" gorm:"type:varchar(36);not null;index"`
	OptionText string `json:"option_text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	OrderIndex int    `json:"order_index" gorm:"not null;default:0"`
}

func (o *AnswerOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type QuizAttempt struct {
	ID          string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	QuizID      string        `json:"quiz_id" gorm:"type:varchar(36);not null;index"`
	StudentID   string        `json:"student_id" gorm:"type:varchar(36);not null;index"`
	StartedAt   time.Time     `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time    `json:"completed_at"`
	Score       *int          `json:"score"`
	TotalPoints *int          `json:"total_points"`
	Status      AttemptStatus `json:"status" gorm:"type:varchar(16);not null;default:in_progress"`
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AttemptWithDetails joins an attempt with the quiz it belongs to.
type AttemptWithDetails struct {
	QuizAttempt
	QuizTitle           string  `json:"quiz_title"`
	QuizDescription     *string `json:"quiz_description"`
	QuizDurationMinutes *int    `json:"quiz_duration_minutes"`
	QuizPassingScore    *int    `json:"quiz_passing_score"`
	InstructorName      string  `json:"instructor_name"`
}

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Quiz{},
		&Question{},
		&AnswerOption{},
		&QuizAttempt{},
	}
}
