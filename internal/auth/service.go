// internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"quizmaker/internal/apperr"
	"quizmaker/internal/models"
)

type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Role     models.Role
}

type Service struct {
	repo    *Repository
	tokens  *TokenManager
	revoked RevocationStore
}

func NewService(repo *Repository, tokens *TokenManager, revoked RevocationStore) *Service {
	if revoked == nil {
		revoked = NoopRevocations
	}
	return &Service{
		repo:    repo,
		tokens:  tokens,
		revoked: revoked,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new user with a hashed password. The unique index on
// email decides duplicates, so concurrent registrations cannot both succeed.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	const op = "auth.CreateUser"

	if !in.Role.Valid() {
		return nil, apperr.Validation(op, "invalid user type %q", in.Role)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindInternal, Op: op, Message: "failed to hash password", Err: err}
	}

	user := &models.User{
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(op, "user with this email already exists")
		}
		return nil, apperr.Store(op, err)
	}
	return user, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, apperr.Store("auth.FindByEmail", err)
	}
	return user, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("auth.FindByID", err)
	}
	return user, nil
}

// VerifyCredentials returns the user when email and password match and nil
// otherwise, without saying which part was wrong.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, nil
	}
	return user, nil
}

// Register creates the user and issues a session token for it.
func (s *Service) Register(ctx context.Context, in CreateUserInput) (*models.User, string, error) {
	user, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", &apperr.Error{Kind: apperr.KindInternal, Op: "auth.Register", Message: "failed to issue token", Err: err}
	}
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	const op = "auth.Login"

	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", &apperr.Error{Kind: apperr.KindUnauthenticated, Op: op, Message: "invalid email or password"}
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", &apperr.Error{Kind: apperr.KindInternal, Op: op, Message: "failed to issue token", Err: err}
	}
	log.Printf("User %s logged in", user.ID)
	return user, token, nil
}

// Authenticate resolves the caller of r, or nil.
func (s *Service) Authenticate(r *http.Request) *Principal {
	return Authenticate(r, s.tokens, s.revoked)
}

// Middleware guards routes with this service's tokens and revocations.
func (s *Service) Middleware() func(http.Handler) http.Handler {
	return Middleware(s.tokens, s.revoked)
}

// Logout revokes the token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, principal *Principal) error {
	if principal == nil || principal.TokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		return apperr.Store("auth.Logout", err)
	}
	return nil
}
