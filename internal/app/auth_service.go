package app

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"paperdeck/internal/pkg/jwtutil"
)

// AuthService checks the single operator account configured for the
// processing endpoints.
type AuthService struct {
	enabled       bool
	username      string
	passwordHash  string
	jwtSecret     string
	jwtExpiration time.Duration
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token    string
	Username string
}

func NewAuthService(enabled bool, username, passwordHash, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		enabled:       enabled,
		username:      username,
		passwordHash:  passwordHash,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Enabled() bool {
	return s.enabled
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	if !s.enabled {
		return nil, ErrAuthDisabled
	}
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	if subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) != 1 {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Username: username}, nil
}

// HashPassword produces the bcrypt hash stored in the config file.
func HashPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if len(password) < 8 {
		return "", fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}
