// internal/attempt/handler.go
package attempt

import (
	"net/http"

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

type CompleteRequest struct {
	Score       *int `json:"score" validate:"required,min=0"`
	TotalPoints *int `json:"totalPoints" validate:"required,min=0"`
}

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

// GetQuiz returns a published quiz together with the caller's attempts on it.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	const op = "attempt.GetQuiz"
	quizID := mux.Vars(r)["id"]
	studentID := principal(r).UserID

	quiz, err := h.quizzes.GetWithInstructor(r.Context(), quizID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if quiz == nil {
		httpx.WriteError(w, apperr.NotFound(op, "quiz not found"))
		return
	}
	if !quiz.IsPublished {
		httpx.WriteError(w, apperr.Forbidden(op, "quiz is not available"))
		return
	}

	count, err := h.quizzes.QuestionCount(r.Context(), quizID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	active, err := h.service.GetActive(r.Context(), quizID, studentID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	previous, err := h.service.ListByQuizForStudent(r.Context(), quizID, studentID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quiz":             quiz,
		"question_count":   count,
		"activeAttempt":    active,
		"previousAttempts": previous,
		"canStart":         active == nil,
	})
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	const op = "attempt.StartQuiz"
	quizID := mux.Vars(r)["id"]

	quiz, err := h.quizzes.GetByID(r.Context(), quizID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if quiz == nil {
		httpx.WriteError(w, apperr.NotFound(op, "quiz not found"))
		return
	}
	if !quiz.IsPublished {
		httpx.WriteError(w, apperr.Forbidden(op, "quiz is not available"))
		return
	}

	a, err := h.service.CreateAttempt(r.Context(), quizID, principal(r).UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{"attempt": a})
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.service.ListByStudent(r.Context(), principal(r).UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	const op = "attempt.GetAttempt"

	a, err := h.service.GetWithDetails(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if a == nil {
		httpx.WriteError(w, apperr.NotFound(op, "quiz attempt not found"))
		return
	}
	if a.StudentID != principal(r).UserID {
		httpx.WriteError(w, apperr.Forbidden(op, "you do not have permission to view this attempt"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"attempt": a})
}

// ownAttempt checks that the attempt exists and belongs to the caller.
func (h *Handler) ownAttempt(r *http.Request, op string) (*models.QuizAttempt, error) {
	a, err := h.service.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound(op, "quiz attempt not found")
	}
	if a.StudentID != principal(r).UserID {
		return nil, apperr.Forbidden(op, "you do not have permission to modify this attempt")
	}
	return a, nil
}

func (h *Handler) CompleteAttempt(w http.ResponseWriter, r *http.Request) {
	const op = "attempt.CompleteAttempt"

	var req CompleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if *req.Score > *req.TotalPoints {
		httpx.WriteError(w, apperr.Validation(op, "score cannot exceed total points"))
		return
	}

	a, err := h.ownAttempt(r, op)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	completed, err := h.service.CompleteAttempt(r.Context(), a.ID, *req.Score, *req.TotalPoints)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"attempt": completed})
}

func (h *Handler) AbandonAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := h.ownAttempt(r, "attempt.AbandonAttempt")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	abandoned, err := h.service.AbandonAttempt(r.Context(), a.ID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"attempt": abandoned})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.StudentStats(r.Context(), principal(r).UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}
