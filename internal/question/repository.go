// internal/question/repository.go
package question

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

// Transaction runs fn against a repository bound to one transaction. Inside
// fn only tx may touch the database.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) CountQuestions(ctx context.Context, quizID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateQuestion(ctx context.Context, q *models.Question) error {
	err := r.db.WithContext(ctx).Create(q).Error
	if err != nil {
		log.Printf("Error creating question: %v", err)
		return err
	}
	log.Printf("Created question %s in quiz %s", q.ID, q.QuizID)
	return nil
}

func (r *Repository) CreateOptions(ctx context.Context, options []models.AnswerOption) error {
	if len(options) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(&options).Error
	if err != nil {
		log.Printf("Error creating answer options: %v", err)
	}
	return err
}

// GetQuestionByID returns (nil, nil) when the question does not exist.
func (r *Repository) GetQuestionByID(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("Error getting question %s: %v", id, err)
		return nil, err
	}
	return &q, nil
}

func (r *Repository) GetOptions(ctx context.Context, questionID string) ([]models.AnswerOption, error) {
	options := []models.AnswerOption{}
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("order_index ASC").
		Find(&options).Error
	return options, err
}

func (r *Repository) ListQuestions(ctx context.Context, quizID string) ([]models.Question, error) {
	questions := []models.Question{}
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("order_index ASC").
		Order("created_at ASC").
		Find(&questions).Error
	if err != nil {
		log.Printf("Error listing questions for quiz %s: %v", quizID, err)
	}
	return questions, err
}

// GetOptionsFor loads the options of several questions in one query, keyed
// by question id.
func (r *Repository) GetOptionsFor(ctx context.Context, questionIDs []string) (map[string][]models.AnswerOption, error) {
	byQuestion := make(map[string][]models.AnswerOption, len(questionIDs))
	if len(questionIDs) == 0 {
		return byQuestion, nil
	}

	var options []models.AnswerOption
	err := r.db.WithContext(ctx).
		Where("question_id IN ?", questionIDs).
		Order("order_index ASC").
		Find(&options).Error
	if err != nil {
		return nil, err
	}
	for _, opt := range options {
		byQuestion[opt.QuestionID] = append(byQuestion[opt.QuestionID], opt)
	}
	return byQuestion, nil
}

func (r *Repository) UpdateQuestion(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Updates(fields).Error
	if err != nil {
		log.Printf("Error updating question %s: %v", id, err)
	}
	return err
}

func (r *Repository) DeleteOptions(ctx context.Context, questionID string) error {
	return r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Delete(&models.AnswerOption{}).Error
}

// SetCorrectByText flags every option of the question whose text matches.
func (r *Repository) SetCorrectByText(ctx context.Context, questionID, text string, correct bool) error {
	return r.db.WithContext(ctx).
		Model(&models.AnswerOption{}).
		Where("question_id = ? AND option_text = ?", questionID, text).
		Update("is_correct", correct).Error
}

func (r *Repository) UpdateOptionText(ctx context.Context, optionID, text string) error {
	return r.db.WithContext(ctx).
		Model(&models.AnswerOption{}).
		Where("id = ?", optionID).
		Update("option_text", text).Error
}

func (r *Repository) DeleteQuestion(ctx context.Context, id string) error {
	if err := r.DeleteOptions(ctx, id); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Question{}).Error
	if err != nil {
		log.Printf("Error deleting question %s: %v", id, err)
		return err
	}
	log.Printf("Deleted question %s", id)
	return nil
}

// CloseGap decrements order_index of every question in the quiz that sat
// after the removed position.
func (r *Repository) CloseGap(ctx context.Context, quizID string, removedIndex int) error {
	return r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ? AND order_index > ?", quizID, removedIndex).
		Update("order_index", gorm.Expr("order_index - 1")).Error
}

// SetOrderIndex is scoped by quiz so ids from another quiz match nothing.
func (r *Repository) SetOrderIndex(ctx context.Context, quizID, questionID string, orderIndex int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ? AND quiz_id = ?", questionID, quizID).
		Update("order_index", orderIndex)
	return res.RowsAffected, res.Error
}
