package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"devconnector/internal/config"
)

// AuthService issues the bearer tokens clients send on authenticated routes.
type AuthService struct {
	config *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{config: cfg}
}

// GenerateToken signs an HS256 token carrying user_id, iat and exp.
func (s *AuthService) GenerateToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(time.Duration(s.config.TokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// ExpiresIn returns the token lifetime in seconds.
func (s *AuthService) ExpiresIn() int {
	return s.config.TokenMaxAge
}
