package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/richn23/student-voice/internal/model"
)

var ErrInvalidToken = errors.New("invalid session token")

// AuthService mints and validates session-scoped chat tokens. A token proves
// the caller started the session it names; there are no user accounts.
type AuthService struct {
	secret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// GenerateSessionToken creates a signed token bound to one session
func (s *AuthService) GenerateSessionToken(sessionID, deploymentID string) (string, error) {
	claims := model.SessionClaims{
		SessionID:    sessionID,
		DeploymentID: deploymentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateSessionToken parses and verifies a session token
func (s *AuthService) ValidateSessionToken(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
