package app

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ragsync/internal/pkg/jwtutil"
)

// AuthService issues admin bearer tokens. There is a single configured admin
// account; domain-scoped callers authenticate by header, not by token.
type AuthService struct {
	adminUsername     string
	adminPasswordHash string
	jwtSecret         string
	jwtExpiration     time.Duration
}

func NewAuthService(adminUsername, adminPasswordHash, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExpiration,
	}
}

type LoginInput struct {
	Username string
	Password string
}

func (s *AuthService) Login(input LoginInput) (string, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return "", ErrInvalidInput
	}
	if s.adminPasswordHash == "" || username != s.adminUsername {
		return "", ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredential
	}
	return jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, username)
}
