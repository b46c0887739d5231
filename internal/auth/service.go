package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service handles registration, login and token validation.
type Service struct {
	users    UserStore
	tokens   *TokenManager
	denyList *DenyList
	logger   zerolog.Logger
}

// NewService creates an authentication service.
func NewService(users UserStore, tokens *TokenManager, denyList *DenyList, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		denyList: denyList,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates an account and returns the user id and a session token.
func (s *Service) Register(ctx context.Context, email, password, name string) (int, string, error) {
	if email == "" {
		return 0, "", fmt.Errorf("%w: email required", ErrInvalidCredentials)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return 0, "", err
	}

	userID, err := s.users.Create(ctx, email, passwordHash, name)
	if err != nil {
		return 0, "", err
	}

	token, err := s.tokens.Generate(userID, name)
	if err != nil {
		return 0, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info().Int("user_id", userID).Str("email", email).Msg("user registered")
	return userID, token, nil
}

// Login verifies credentials and returns the user id and a session token.
func (s *Service) Login(ctx context.Context, email, password string) (int, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return 0, "", ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return 0, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Name)
	if err != nil {
		return 0, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info().Int("user_id", user.ID).Msg("user logged in")
	return user.ID, token, nil
}

// Logout revokes the token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.denyList.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	s.logger.Info().Int("user_id", claims.UserID).Msg("token revoked")
	return nil
}

// Validate checks the token's signature, expiry and revocation status.
func (s *Service) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denyList.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}
