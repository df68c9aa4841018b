package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/storage"
)

// Session is the result of a successful registration or login.
type Session struct {
	UserID   string
	Username string
	Email    string
	Balance  float64
	Token    string
}

// AuthService handles registration, login, profiles, and balance top-ups.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		logger:        logger,
	}
}

// Register creates a new user account and returns a signed session.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email, password", ErrMissingField)
	}

	user, err := s.authenticator.Register(ctx, username, email, password)
	if err != nil {
		s.logger.Warn("Registration failed", "username", username, "error", err)
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return &Session{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Balance:  user.Balance,
		Token:    token,
	}, nil
}

// Login authenticates a user and returns a signed session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username, password", ErrMissingField)
	}

	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Warn("Login failed", "username", username)
		return nil, auth.ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "username", user.Username)
	return &Session{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Balance:  user.Balance,
		Token:    token,
	}, nil
}

// Profile returns the current user's account, sans credential material.
type Profile struct {
	UserID   string
	Username string
	Email    string
	Balance  float64
}

// GetProfile fetches the authenticated user's profile.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	return &Profile{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Balance:  user.Balance,
	}, nil
}

// AddBalance credits the user's balance and returns the new balance.
// Settlement debits are the only other balance mutation.
func (s *AuthService) AddBalance(ctx context.Context, userID string, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.store.AddBalance(ctx, userID, amount)
	if err != nil {
		s.logger.Error("Top-up failed", "user_id", userID, "error", err)
		return 0, err
	}

	s.logger.Info("Balance credited", "user_id", userID, "amount", amount, "new_balance", balance)
	return balance, nil
}
