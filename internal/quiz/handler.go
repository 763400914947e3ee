// internal/quiz/handler.go
package quiz

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
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type CreateQuizRequest struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=1000"`
	DurationMinutes *int    `json:"durationMinutes" validate:"omitempty,min=1,max=600"`
	PassingScore    *int    `json:"passingScore" validate:"omitempty,min=0,max=100"`
}

// normalizeDescription trims and turns a blank description into null.
func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// validateUpdate applies the create-time limits to the fields present in a
// partial update.
func validateUpdate(in *UpdateQuizInput) error {
	if in.Title.Set {
		in.Title.Value = strings.TrimSpace(in.Title.Value)
		if err := httpx.ValidateField("title", in.Title.Value, "required,max=200"); err != nil {
			return err
		}
	}
	if in.Description.Set {
		in.Description.Value = normalizeDescription(in.Description.Value)
		if d := in.Description.Value; d != nil {
			if err := httpx.ValidateField("description", *d, "max=1000"); err != nil {
				return err
			}
		}
	}
	if d := in.DurationMinutes; d.Set && d.Value != nil {
		if err := httpx.ValidateField("durationMinutes", *d.Value, "min=1,max=600"); err != nil {
			return err
		}
	}
	if p := in.PassingScore; p.Set && p.Value != nil {
		if err := httpx.ValidateField("passingScore", *p.Value, "min=0,max=100"); err != nil {
			return err
		}
	}
	return nil
}

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

// ListQuizzes shows instructors their own quizzes and everyone else the
// published ones. ?published=true forces the published listing.
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	if r.URL.Query().Get("published") != "true" && p.Role == models.RoleInstructor {
		quizzes, err := h.service.ListByInstructor(r.Context(), p.UserID)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
		return
	}

	quizzes, err := h.service.ListPublished(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req CreateQuizRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	quiz, err := h.service.CreateQuiz(r.Context(), CreateQuizInput{
		Title:           strings.TrimSpace(req.Title),
		Description:     normalizeDescription(req.Description),
		InstructorID:    principal(r).UserID,
		DurationMinutes: req.DurationMinutes,
		PassingScore:    req.PassingScore,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{"quiz": quiz})
}

// GetQuiz applies the visibility rule: owners see drafts, everyone else
// only published quizzes.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p := principal(r)

	quiz, err := h.service.GetWithInstructor(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if quiz == nil {
		httpx.WriteError(w, apperr.NotFound("quiz.GetQuiz", "quiz not found"))
		return
	}
	if quiz.InstructorID != p.UserID && !quiz.IsPublished {
		httpx.WriteError(w, apperr.Forbidden("quiz.GetQuiz", "quiz is not available"))
		return
	}

	count, err := h.service.QuestionCount(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quiz":           quiz,
		"question_count": count,
	})
}

func (h *Handler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in UpdateQuizInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := validateUpdate(&in); err != nil {
		httpx.WriteError(w, err)
		return
	}

	if in.IsPublished.Set && in.IsPublished.Value {
		if !h.checkPublishable(w, r, id) {
			return
		}
	}

	quiz, err := h.service.UpdateQuiz(r.Context(), id, principal(r).UserID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"quiz": quiz})
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.DeleteQuiz(r.Context(), id, principal(r).UserID); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) PublishQuiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.checkPublishable(w, r, id) {
		return
	}
	quiz, err := h.service.PublishQuiz(r.Context(), id, principal(r).UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quiz":    quiz,
		"message": "Quiz published successfully",
	})
}

func (h *Handler) UnpublishQuiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	quiz, err := h.service.UnpublishQuiz(r.Context(), id, principal(r).UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quiz":    quiz,
		"message": "Quiz unpublished successfully",
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.service.RequireOwner(r.Context(), "quiz.GetStats", id, principal(r).UserID, "view statistics for"); err != nil {
		httpx.WriteError(w, err)
		return
	}
	stats, err := h.service.GetStats(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// checkPublishable writes a 400 with the reason when the quiz cannot be
// published yet and reports whether the caller may continue. Ownership is
// checked first so strangers get 403/404 rather than the reason.
func (h *Handler) checkPublishable(w http.ResponseWriter, r *http.Request, id string) bool {
	if _, err := h.service.RequireOwner(r.Context(), "quiz.Publish", id, principal(r).UserID, "publish"); err != nil {
		httpx.WriteError(w, err)
		return false
	}
	check, err := h.service.CanPublish(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return false
	}
	if !check.CanPublish {
		httpx.WriteError(w, apperr.Validation("quiz.Publish", "%s", check.Reason))
		return false
	}
	return true
}
