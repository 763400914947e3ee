// internal/auth/token.go
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"quizmaker/internal/models"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

type Claims struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// Principal is the authenticated caller resolved from a token.
type Principal struct {
	UserID    string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *TokenManager) TTL() time.Duration { return m.ttl }

func (m *TokenManager) Issue(userID string, role models.Role) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify returns the principal carried by tokenString. Any malformed,
// tampered or expired token yields ok == false.
func (m *TokenManager) Verify(tokenString string) (*Principal, bool) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, false
	}

	claims := &Claims{}
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	// StandardClaims.Valid treats a missing exp as non-expiring.
	if claims.ExpiresAt == 0 || m.now().Unix() >= claims.ExpiresAt {
		return nil, false
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, false
	}

	return &Principal{
		UserID:    claims.UserID,
		Role:      claims.Role,
		TokenID:   claims.Id,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}, true
}
