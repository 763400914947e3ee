// internal/question/handler.go
package question

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"quizmaker/internal/apperr"
	"quizmaker/internal/auth"
	"quizmaker/internal/httpx"
	"quizmaker/internal/models"
)

type Handler struct {
	service *Service
	quizzes Quizzes
}

func NewHandler(service *Service, quizzes Quizzes) *Handler {
	return &Handler{service: service, quizzes: quizzes}
}

type CreateQuestionRequest struct {
	QuestionText     string              `json:"questionText" validate:"required,max=1000"`
	QuestionType     models.QuestionType `json:"questionType" validate:"required,oneof=multiple_choice true_false short_answer"`
	Points           *int                `json:"points" validate:"omitempty,min=1,max=100"`
	OrderIndex       *int                `json:"orderIndex" validate:"omitempty,min=0"`
	AnswerOptions    []OptionInput       `json:"answerOptions" validate:"omitempty,max=10,dive"`
	CorrectAnswer    *bool               `json:"correctAnswer"`
	SampleAnswer     *string             `json:"sampleAnswer" validate:"omitempty,max=2000"`
	AnswerGuidelines *string             `json:"answerGuidelines" validate:"omitempty,max=1000"`
}

type ReorderRequest struct {
	QuestionOrders []QuestionOrder `json:"questionOrders" validate:"required,min=1,dive"`
}

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func checkMultipleChoice(op string, options []OptionInput) error {
	if len(options) < 2 || len(options) > 10 {
		return apperr.Validation(op, "multiple choice questions must have between 2 and 10 options")
	}
	for _, opt := range options {
		if opt.IsCorrect {
			return nil
		}
	}
	return apperr.Validation(op, "at least one option must be marked as correct")
}

// validateUpdate applies the create-time limits to the scalar fields present
// in a partial update. Options are checked once the stored type is known.
func validateUpdate(in *UpdateQuestionInput) error {
	if in.QuestionText.Set {
		in.QuestionText.Value = strings.TrimSpace(in.QuestionText.Value)
		if err := httpx.ValidateField("questionText", in.QuestionText.Value, "required,max=1000"); err != nil {
			return err
		}
	}
	if in.Points.Set {
		if err := httpx.ValidateField("points", in.Points.Value, "min=1,max=100"); err != nil {
			return err
		}
	}
	if in.OrderIndex.Set {
		if err := httpx.ValidateField("orderIndex", in.OrderIndex.Value, "min=0"); err != nil {
			return err
		}
	}
	if s := in.SampleAnswer; s.Set && s.Value != nil {
		if err := httpx.ValidateField("sampleAnswer", *s.Value, "max=2000"); err != nil {
			return err
		}
	}
	if g := in.AnswerGuidelines; g.Set && g.Value != nil {
		if err := httpx.ValidateField("answerGuidelines", *g.Value, "max=1000"); err != nil {
			return err
		}
	}
	return nil
}

// validateOptions checks replacement options of a multiple_choice question.
func validateOptions(op string, options []OptionInput) error {
	for i := range options {
		if err := httpx.Validate(&options[i]); err != nil {
			return err
		}
	}
	return checkMultipleChoice(op, options)
}

// visibleQuiz loads the quiz and applies the same rule as quiz reads: the
// owner sees drafts, everyone else only published quizzes.
func (h *Handler) visibleQuiz(r *http.Request, op, quizID string) (*models.Quiz, error) {
	quiz, err := h.quizzes.GetByID(r.Context(), quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, apperr.NotFound(op, "quiz not found")
	}
	if quiz.InstructorID != principal(r).UserID && !quiz.IsPublished {
		return nil, apperr.Forbidden(op, "quiz is not available")
	}
	return quiz, nil
}

// ListQuestions returns the questions of a quiz. Only the owner sees
// correct answers.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["id"]

	quiz, err := h.visibleQuiz(r, "question.ListQuestions", quizID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	questions, err := h.service.ListByQuiz(r.Context(), quizID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if quiz.InstructorID != principal(r).UserID {
		for i := range questions {
			questions[i] = questions[i].Redacted()
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	const op = "question.GetQuestion"
	vars := mux.Vars(r)

	quiz, err := h.visibleQuiz(r, op, vars["id"])
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	q, err := h.service.GetWithOptions(r.Context(), vars["questionId"])
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if q == nil || q.QuizID != quiz.ID {
		httpx.WriteError(w, apperr.NotFound(op, "question not found"))
		return
	}
	if quiz.InstructorID != principal(r).UserID {
		redacted := q.Redacted()
		q = &redacted
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"question": q})
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	const op = "question.CreateQuestion"

	var req CreateQuestionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	req.QuestionText = strings.TrimSpace(req.QuestionText)
	if req.QuestionText == "" {
		httpx.WriteError(w, apperr.Validation(op, "question text is required"))
		return
	}
	if req.QuestionType == models.MultipleChoice {
		if err := checkMultipleChoice(op, req.AnswerOptions); err != nil {
			httpx.WriteError(w, err)
			return
		}
	}

	in := CreateQuestionInput{
		QuizID:       mux.Vars(r)["id"],
		QuestionText: req.QuestionText,
		QuestionType: req.QuestionType,
		OrderIndex:   req.OrderIndex,
	}
	if req.Points != nil {
		in.Points = *req.Points
	}
	switch req.QuestionType {
	case models.MultipleChoice:
		in.AnswerOptions = req.AnswerOptions
	case models.TrueFalse:
		in.CorrectAnswer = req.CorrectAnswer
	case models.ShortAnswer:
		in.SampleAnswer = req.SampleAnswer
		in.AnswerGuidelines = req.AnswerGuidelines
	}

	q, err := h.service.CreateQuestion(r.Context(), principal(r).UserID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{"question": q})
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	const op = "question.UpdateQuestion"
	vars := mux.Vars(r)

	var in UpdateQuestionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := validateUpdate(&in); err != nil {
		httpx.WriteError(w, err)
		return
	}

	existing, err := h.service.GetByID(r.Context(), vars["questionId"])
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if existing == nil || existing.QuizID != vars["id"] {
		httpx.WriteError(w, apperr.NotFound(op, "question not found"))
		return
	}
	// answerOptions on other question types is ignored by the service.
	if existing.QuestionType == models.MultipleChoice && in.AnswerOptions.Set {
		if err := validateOptions(op, in.AnswerOptions.Value); err != nil {
			httpx.WriteError(w, err)
			return
		}
	}

	q, err := h.service.UpdateQuestion(r.Context(), existing.ID, principal(r).UserID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"question": q})
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	const op = "question.DeleteQuestion"
	vars := mux.Vars(r)

	existing, err := h.service.GetByID(r.Context(), vars["questionId"])
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if existing == nil || existing.QuizID != vars["id"] {
		httpx.WriteError(w, apperr.NotFound(op, "question not found"))
		return
	}

	if err := h.service.DeleteQuestion(r.Context(), existing.ID, principal(r).UserID); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	err := h.service.ReorderQuestions(r.Context(), mux.Vars(r)["id"], principal(r).UserID, req.QuestionOrders)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
