package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizmaker/internal/apperr"
	"quizmaker/internal/models"
	"quizmaker/internal/testdb"
)

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	failErr error
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{revoked: map[string]time.Time{}}
}

func (m *memoryRevocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = until
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func newTestService(t *testing.T) (*Service, *memoryRevocations) {
	db := testdb.New(t)
	revocations := newMemoryRevocations()
	return NewService(NewRepository(db), NewTokenManager("test-secret", time.Hour), revocations), revocations
}

func TestCreateUserNormalizesAndHashes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{
		Email:    "  Ada@Example.COM ",
		Password: "correct horse",
		FullName: " Ada Lovelace ",
		Role:     models.RoleInstructor,
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.Equal(t, "Ada Lovelace", user.FullName)
	require.NotEqual(t, "correct horse", user.PasswordHash)
	require.True(t, VerifyPassword("correct horse", user.PasswordHash))

	found, err := svc.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, user.ID, found.ID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := CreateUserInput{Email: "dup@example.com", Password: "password1", FullName: "Dup", Role: models.RoleStudent}
	_, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)

	in.Email = "DUP@example.com"
	_, err = svc.CreateUser(ctx, in)
	require.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateUser(context.Background(), CreateUserInput{Email: "x@example.com", Password: "password1", Role: "admin"})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLookupsReturnNilWhenAbsent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, user)

	user, err = svc.FindByID(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestVerifyCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserInput{Email: "s@example.com", Password: "password1", FullName: "S", Role: models.RoleStudent})
	require.NoError(t, err)

	user, err := svc.VerifyCredentials(ctx, "s@example.com", "password1")
	require.NoError(t, err)
	require.NotNil(t, user)

	user, err = svc.VerifyCredentials(ctx, "s@example.com", "wrong")
	require.NoError(t, err)
	require.Nil(t, user)

	user, err = svc.VerifyCredentials(ctx, "nobody@example.com", "password1")
	require.NoError(t, err)
	require.Nil(t, user)

	_, _, err = svc.Login(ctx, "s@example.com", "wrong")
	require.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, revocations := newTestService(t)
	ctx := context.Background()

	_, token, err := svc.Register(ctx, CreateUserInput{Email: "l@example.com", Password: "password1", FullName: "L", Role: models.RoleStudent})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	p := svc.Authenticate(r)
	require.NotNil(t, p)

	require.NoError(t, svc.Logout(ctx, p))
	require.Contains(t, revocations.revoked, p.TokenID)
	require.Nil(t, svc.Authenticate(r))

	// A nil principal is a no-op.
	require.NoError(t, svc.Logout(ctx, nil))
}

func TestAuthenticateFailsClosedOnRevocationError(t *testing.T) {
	svc, revocations := newTestService(t)
	token, err := svc.tokens.Issue("user-1", models.RoleStudent)
	require.NoError(t, err)

	revocations.failErr = errors.New("redis down")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	require.Nil(t, svc.Authenticate(r))
}

func TestMiddlewareAndRoles(t *testing.T) {
	svc, _ := newTestService(t)
	studentToken, err := svc.tokens.Issue("student-1", models.RoleStudent)
	require.NoError(t, err)

	reached := false
	h := svc.Middleware()(RequireRole(models.RoleInstructor, func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: studentToken})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, reached)
}

func TestRegisterLoginHandlers(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc, CookieOptions{})

	body, _ := json.Marshal(map[string]string{
		"email":    "new@example.com",
		"password": "password1",
		"fullName": "New User",
		"userType": "student",
	})
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())
	require.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))
	require.Equal(t, http.StatusConflict, rec.Code)

	login, _ := json.Marshal(map[string]string{"email": "new@example.com", "password": "nope-nope"})
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(login)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	short, _ := json.Marshal(map[string]string{"email": "bad", "password": "x", "fullName": "N", "userType": "admin"})
	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(short)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
