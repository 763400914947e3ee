// internal/question/service.go
package question

import (
	"context"
	"log"

	"quizmaker/internal/apperr"
	"quizmaker/internal/models"
)

// Quizzes resolves parent quizzes and checks who owns them. *quiz.Service
// satisfies it.
type Quizzes interface {
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	RequireOwner(ctx context.Context, op, quizID, requesterID, action string) (*models.Quiz, error)
}

type OptionInput struct {
	OptionText string `json:"optionText" validate:"required,max=500"`
	IsCorrect  bool   `json:"isCorrect"`
	OrderIndex int    `json:"orderIndex" validate:"min=0"`
}

type CreateQuestionInput struct {
	QuizID       string
	QuestionText string
	QuestionType models.QuestionType
	Points       int  // 0 means the default of 1
	OrderIndex   *int // nil appends

	// multiple_choice
	AnswerOptions []OptionInput
	// true_false
	CorrectAnswer *bool
	// short_answer
	SampleAnswer     *string
	AnswerGuidelines *string
}

// UpdateQuestionInput is a partial update. Variant fields only apply when
// they match the stored question type.
type UpdateQuestionInput struct {
	QuestionText     models.Optional[string]        `json:"questionText"`
	Points           models.Optional[int]           `json:"points"`
	OrderIndex       models.Optional[int]           `json:"orderIndex"`
	AnswerOptions    models.Optional[[]OptionInput] `json:"answerOptions"`
	CorrectAnswer    models.Optional[bool]          `json:"correctAnswer"`
	SampleAnswer     models.Optional[*string]       `json:"sampleAnswer"`
	AnswerGuidelines models.Optional[*string]       `json:"answerGuidelines"`
}

type QuestionOrder struct {
	QuestionID string `json:"questionId" validate:"required"`
	OrderIndex int    `json:"orderIndex" validate:"min=0"`
}

type Service struct {
	repo    *Repository
	quizzes Quizzes
}

func NewService(repo *Repository, quizzes Quizzes) *Service {
	return &Service{repo: repo, quizzes: quizzes}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trueFalseOptions(questionID string, correct bool) []models.AnswerOption {
	return []models.AnswerOption{
		{QuestionID: questionID, OptionText: models.TrueOptionText, IsCorrect: correct, OrderIndex: 0},
		{QuestionID: questionID, OptionText: models.FalseOptionText, IsCorrect: !correct, OrderIndex: 1},
	}
}

func multipleChoiceOptions(questionID string, in []OptionInput) []models.AnswerOption {
	options := make([]models.AnswerOption, 0, len(in))
	for _, opt := range in {
		options = append(options, models.AnswerOption{
			QuestionID: questionID,
			OptionText: opt.OptionText,
			IsCorrect:  opt.IsCorrect,
			OrderIndex: opt.OrderIndex,
		})
	}
	return options
}

// CreateQuestion stores the question and the option rows of its variant in
// one transaction.
func (s *Service) CreateQuestion(ctx context.Context, requesterID string, in CreateQuestionInput) (*models.QuestionWithOptions, error) {
	const op = "question.CreateQuestion"

	if !in.QuestionType.Valid() {
		return nil, apperr.Validation(op, "invalid question type %q", in.QuestionType)
	}
	if in.QuestionType == models.TrueFalse && in.CorrectAnswer == nil {
		return nil, apperr.Validation(op, "correct answer is required for true/false questions")
	}
	if _, err := s.quizzes.RequireOwner(ctx, op, in.QuizID, requesterID, "add questions to"); err != nil {
		return nil, err
	}

	points := in.Points
	if points == 0 {
		points = 1
	}

	var created *models.QuestionWithOptions
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		orderIndex := 0
		if in.OrderIndex != nil {
			orderIndex = *in.OrderIndex
		} else {
			count, err := tx.CountQuestions(ctx, in.QuizID)
			if err != nil {
				return err
			}
			orderIndex = int(count)
		}

		q := models.Question{
			QuizID:       in.QuizID,
			QuestionText: in.QuestionText,
			QuestionType: in.QuestionType,
			Points:       points,
			OrderIndex:   orderIndex,
		}
		if err := tx.CreateQuestion(ctx, &q); err != nil {
			return err
		}

		var options []models.AnswerOption
		switch in.QuestionType {
		case models.MultipleChoice:
			options = multipleChoiceOptions(q.ID, in.AnswerOptions)
		case models.TrueFalse:
			options = trueFalseOptions(q.ID, *in.CorrectAnswer)
		case models.ShortAnswer:
			meta := models.ShortAnswerMeta{
				SampleAnswer:     deref(in.SampleAnswer),
				AnswerGuidelines: deref(in.AnswerGuidelines),
			}
			if !meta.Empty() {
				text, err := meta.Encode()
				if err != nil {
					return err
				}
				options = []models.AnswerOption{{QuestionID: q.ID, OptionText: text}}
			}
		}
		if err := tx.CreateOptions(ctx, options); err != nil {
			return err
		}

		created = &models.QuestionWithOptions{Question: q, AnswerOptions: options}
		if created.AnswerOptions == nil {
			created.AnswerOptions = []models.AnswerOption{}
		}
		created.SortOptions()
		return nil
	})
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	return created, nil
}

// GetByID returns (nil, nil) when the question does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Question, error) {
	q, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("question.GetByID", err)
	}
	return q, nil
}

// GetWithOptions returns (nil, nil) when the question does not exist.
func (s *Service) GetWithOptions(ctx context.Context, id string) (*models.QuestionWithOptions, error) {
	const op = "question.GetWithOptions"

	q, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if q == nil {
		return nil, nil
	}
	options, err := s.repo.GetOptions(ctx, id)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	return &models.QuestionWithOptions{Question: *q, AnswerOptions: options}, nil
}

func (s *Service) ListByQuiz(ctx context.Context, quizID string) ([]models.QuestionWithOptions, error) {
	const op = "question.ListByQuiz"

	questions, err := s.repo.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	byQuestion, err := s.repo.GetOptionsFor(ctx, ids)
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	result := make([]models.QuestionWithOptions, 0, len(questions))
	for _, q := range questions {
		options := byQuestion[q.ID]
		if options == nil {
			options = []models.AnswerOption{}
		}
		result = append(result, models.QuestionWithOptions{Question: q, AnswerOptions: options})
	}
	return result, nil
}

// requireQuestionOwner loads the question and checks ownership through its
// parent quiz.
func (s *Service) requireQuestionOwner(ctx context.Context, op, id, requesterID, action string) (*models.Question, error) {
	q, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if q == nil {
		return nil, apperr.NotFound(op, "question not found")
	}
	if _, err := s.quizzes.RequireOwner(ctx, op, q.QuizID, requesterID, action); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, id, requesterID string, in UpdateQuestionInput) (*models.QuestionWithOptions, error) {
	const op = "question.UpdateQuestion"

	q, err := s.requireQuestionOwner(ctx, op, id, requesterID, "update questions in")
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.QuestionText.Set {
		fields["question_text"] = in.QuestionText.Value
	}
	if in.Points.Set {
		fields["points"] = in.Points.Value
	}
	if in.OrderIndex.Set {
		fields["order_index"] = in.OrderIndex.Value
	}

	err = s.repo.Transaction(ctx, func(tx *Repository) error {
		if err := tx.UpdateQuestion(ctx, id, fields); err != nil {
			return err
		}

		switch {
		case q.QuestionType == models.MultipleChoice && in.AnswerOptions.Set:
			if err := tx.DeleteOptions(ctx, id); err != nil {
				return err
			}
			return tx.CreateOptions(ctx, multipleChoiceOptions(id, in.AnswerOptions.Value))

		case q.QuestionType == models.TrueFalse && in.CorrectAnswer.Set:
			correct := in.CorrectAnswer.Value
			if err := tx.SetCorrectByText(ctx, id, models.TrueOptionText, correct); err != nil {
				return err
			}
			return tx.SetCorrectByText(ctx, id, models.FalseOptionText, !correct)

		case q.QuestionType == models.ShortAnswer && (in.SampleAnswer.Set || in.AnswerGuidelines.Set):
			return updateShortAnswer(ctx, tx, id, in)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	updated, err := s.GetWithOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound(op, "question not found")
	}
	return updated, nil
}

// updateShortAnswer merges the supplied fields into the stored metadata and
// writes it back, creating the row when there was none.
func updateShortAnswer(ctx context.Context, tx *Repository, id string, in UpdateQuestionInput) error {
	existing, err := tx.GetOptions(ctx, id)
	if err != nil {
		return err
	}

	var meta models.ShortAnswerMeta
	if len(existing) > 0 {
		if decoded, err := models.DecodeShortAnswerMeta(existing[0].OptionText); err == nil {
			meta = decoded
		}
	}
	if in.SampleAnswer.Set {
		meta.SampleAnswer = deref(in.SampleAnswer.Value)
	}
	if in.AnswerGuidelines.Set {
		meta.AnswerGuidelines = deref(in.AnswerGuidelines.Value)
	}

	text, err := meta.Encode()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return tx.UpdateOptionText(ctx, existing[0].ID, text)
	}
	return tx.CreateOptions(ctx, []models.AnswerOption{{QuestionID: id, OptionText: text}})
}

// DeleteQuestion removes the question and keeps the quiz's order indexes
// contiguous.
func (s *Service) DeleteQuestion(ctx context.Context, id, requesterID string) error {
	const op = "question.DeleteQuestion"

	q, err := s.requireQuestionOwner(ctx, op, id, requesterID, "delete questions from")
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx *Repository) error {
		if err := tx.DeleteQuestion(ctx, id); err != nil {
			return err
		}
		return tx.CloseGap(ctx, q.QuizID, q.OrderIndex)
	})
	if err != nil {
		return apperr.Store(op, err)
	}
	return nil
}

// ReorderQuestions applies each pair independently. Ids that do not belong
// to the quiz are skipped.
func (s *Service) ReorderQuestions(ctx context.Context, quizID, requesterID string, orders []QuestionOrder) error {
	const op = "question.ReorderQuestions"

	if _, err := s.quizzes.RequireOwner(ctx, op, quizID, requesterID, "reorder questions in"); err != nil {
		return err
	}

	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		for _, o := range orders {
			n, err := tx.SetOrderIndex(ctx, quizID, o.QuestionID, o.OrderIndex)
			if err != nil {
				return err
			}
			if n == 0 {
				log.Printf("Reorder skipped question %s: not in quiz %s", o.QuestionID, quizID)
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Store(op, err)
	}
	return nil
}
