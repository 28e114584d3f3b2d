package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Service validates access tokens issued by the identity system and loads
// the caller with effective permissions.
type Service struct {
	repo      RepositoryAPI
	validator *TokenValidator
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, secret string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo: repo,
		validator: &TokenValidator{
			Secret: []byte(secret),
			TTL:    ttl,
		},
		logger: logger,
	}
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validator.Validate(tokenString)
}

func (s *Service) GetUserWithPermissions(userID int64) (*User, error) {
	user, err := s.repo.GetUserWithPermissions(userID)
	if err != nil {
		s.logger.Warn("failed to load authenticated user", "error", err, "user_id", userID)
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Validate parses and verifies an HS256 access token.
func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
