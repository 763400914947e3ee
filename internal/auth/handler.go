// internal/auth/handler.go
package auth

import (
	"net/http"

	"quizmaker/internal/apperr"
	"quizmaker/internal/httpx"
	"quizmaker/internal/models"
)

type Handler struct {
	service *Service
	cookies CookieOptions
}

func NewHandler(service *Service, cookies CookieOptions) *Handler {
	return &Handler{service: service, cookies: cookies}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required,min=2"`
	UserType string `json:"userType" validate:"required,oneof=student instructor"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	user, token, err := h.service.Register(r.Context(), CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     models.Role(req.UserType),
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	SetSessionCookie(w, token, h.cookies)
	httpx.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	SetSessionCookie(w, token, h.cookies)
	httpx.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	// Logout stays reachable with a stale cookie so the browser can still clear it.
	principal := h.service.Authenticate(r)
	if err := h.service.Logout(r.Context(), principal); err != nil {
		httpx.WriteError(w, err)
		return
	}
	ClearSessionCookie(w, h.cookies)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, apperr.Unauthenticated("auth.Me"))
		return
	}
	user, err := h.service.FindByID(r.Context(), principal.UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if user == nil {
		httpx.WriteError(w, apperr.Unauthenticated("auth.Me"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]*models.User{"user": user})
}
