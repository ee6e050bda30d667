package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/internal/repository/cockroach"
	"github.com/Shivansh47201/vartalap/pkg/jwt"
	"github.com/Shivansh47201/vartalap/pkg/logger"
	"github.com/Shivansh47201/vartalap/pkg/password"
	"github.com/Shivansh47201/vartalap/pkg/sanitize"
)

// Service errors
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
)

// UserRepository interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenRepository interface for session revocation
type TokenRepository interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Service handles registration, login, and logout
type Service struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	jwtManager *jwt.Manager
}

// NewService creates a new auth service
func NewService(userRepo UserRepository, tokenRepo TokenRepository, jwtManager *jwt.Manager) *Service {
	return &Service{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
	}
}

// RegisterOutput contains the created account and its session token
type RegisterOutput struct {
	User  *domain.UserResponse
	Token string
}

// Register creates a new user account and signs the user in
func (s *Service) Register(ctx context.Context, input *domain.UserCreate) (*RegisterOutput, error) {
	username := sanitize.Username(input.Username)
	email := sanitize.Email(input.Email)

	if err := password.Validate(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, cockroach.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, cockroach.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		UserID:       uuid.New(),
		Name:         sanitize.Text(input.Name),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwtManager.GenerateToken(user.UserID, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info("user registered", zap.String("username", user.Username))

	return &RegisterOutput{User: user.ToResponse(), Token: token}, nil
}

// LoginOutput contains the authenticated user and session token
type LoginOutput struct {
	User  *domain.UserResponse
	Token string
}

// Login verifies credentials and issues a session token
func (s *Service) Login(ctx context.Context, input *domain.UserLogin) (*LoginOutput, error) {
	username := sanitize.Username(input.Username)

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, cockroach.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := password.Compare(user.PasswordHash, input.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user.UserID, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info("user logged in", zap.String("username", user.Username))

	return &LoginOutput{User: user.ToResponse(), Token: token}, nil
}

// Logout revokes the presented session token for the rest of its lifetime
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.tokenRepo.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	logger.Info("user logged out", zap.String("user_id", claims.UserID.String()))
	return nil
}

// ValidateToken checks a session token's signature and revocation status
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.tokenRepo.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, errors.New("token revoked")
	}

	return claims, nil
}

// GetProfile returns the account for an authenticated user
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.ToResponse(), nil
}
