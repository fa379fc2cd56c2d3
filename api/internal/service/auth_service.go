// Package service implements account registration and login.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/venuepulse/venuepulse/api/internal/models"
	"github.com/venuepulse/venuepulse/api/internal/repository"
	"github.com/venuepulse/venuepulse/api/pkg/tokens"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password too short")
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

type AuthService struct {
	repo     repository.Repository
	tokenGen *tokens.TokenGenerator
}

func NewAuthService(repo repository.Repository, tokenGen *tokens.TokenGenerator) *AuthService {
	return &AuthService{
		repo:     repo,
		tokenGen: tokenGen,
	}
}

// Register creates an account with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &models.User{
		ID:           userID.String(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and issues an access token. Unknown accounts and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokenGen.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// ValidateToken checks an access token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*tokens.Claims, error) {
	return s.tokenGen.Validate(tokenString)
}

// GetUser loads an account by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
