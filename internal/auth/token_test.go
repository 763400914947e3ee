package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/require"

	"quizmaker/internal/models"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokenManager("test-secret", 0)
	require.Equal(t, DefaultTokenTTL, tokens.TTL())

	raw, err := tokens.Issue("user-1", models.RoleInstructor)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(raw, "."))

	p, ok := tokens.Verify(raw)
	require.True(t, ok)
	require.Equal(t, "user-1", p.UserID)
	require.Equal(t, models.RoleInstructor, p.Role)
	require.NotEmpty(t, p.TokenID)
	require.WithinDuration(t, time.Now().Add(DefaultTokenTTL), p.ExpiresAt, time.Minute)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := tokens.Issue("user-1", models.RoleStudent)
	require.NoError(t, err)

	tokens.now = time.Now
	_, ok := tokens.Verify(raw)
	require.False(t, ok)
}

func TestVerifyRejectsTampering(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	raw, err := tokens.Issue("user-1", models.RoleStudent)
	require.NoError(t, err)

	other := NewTokenManager("other-secret", time.Hour)
	_, ok := other.Verify(raw)
	require.False(t, ok, "wrong secret")

	parts := strings.Split(raw, ".")
	forged, err := NewTokenManager("test-secret", time.Hour).Issue("user-2", models.RoleInstructor)
	require.NoError(t, err)
	swapped := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]
	_, ok = tokens.Verify(swapped)
	require.False(t, ok, "payload swapped under old signature")

	for _, bad := range []string{"", "a.b", "a.b.c.d", "not-a-token"} {
		_, ok := tokens.Verify(bad)
		require.False(t, ok, "token=%q", bad)
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	claims := Claims{UserID: "user-1", Role: models.RoleStudent}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, ok := NewTokenManager("test-secret", time.Hour).Verify(raw)
	require.False(t, ok)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	claims := Claims{
		UserID:         "user-1",
		Role:           models.Role("admin"),
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, ok := NewTokenManager("test-secret", time.Hour).Verify(raw)
	require.False(t, ok)
}

func TestTokenFromRequestPrefersBearer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "from-cookie"})
	require.Equal(t, "from-cookie", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer from-header")
	require.Equal(t, "from-header", TokenFromRequest(r))

	r.Header.Set("Authorization", "Basic abc")
	require.Equal(t, "from-cookie", TokenFromRequest(r))
}

func TestSessionCookieAttributes(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", CookieOptions{Secure: true})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	require.Equal(t, SessionCookieName, c.Name)
	require.Equal(t, "tok", c.Value)
	require.Equal(t, "/", c.Path)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	require.Equal(t, int(DefaultTokenTTL.Seconds()), c.MaxAge)

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec, CookieOptions{})
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)
	require.Empty(t, cleared[0].Value)
}
