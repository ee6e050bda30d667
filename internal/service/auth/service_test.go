package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/internal/repository/cockroach"
	"github.com/Shivansh47201/vartalap/pkg/jwt"
	"github.com/Shivansh47201/vartalap/pkg/password"
)

// Mocks

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newTestService(userRepo *MockUserRepository, tokenRepo *MockTokenRepository) *Service {
	return NewService(userRepo, tokenRepo, jwt.NewManager("test-secret", time.Hour))
}

func TestRegisterSuccess(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockTokenRepository)
	svc := newTestService(userRepo, tokenRepo)

	userRepo.On("GetByUsername", mock.Anything, "shivansh").Return(nil, cockroach.ErrNotFound)
	userRepo.On("GetByEmail", mock.Anything, "shivansh@example.com").Return(nil, cockroach.ErrNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	out, err := svc.Register(context.Background(), &domain.UserCreate{
		Name:     "Shivansh",
		Username: "Shivansh",
		Email:    "Shivansh@Example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "shivansh", out.User.Username)
	assert.Equal(t, "shivansh@example.com", out.User.Email)
	userRepo.AssertExpectations(t)
}

func TestRegisterUsernameTaken(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestService(userRepo, new(MockTokenRepository))

	existing := &domain.User{UserID: uuid.New(), Username: "shivansh"}
	userRepo.On("GetByUsername", mock.Anything, "shivansh").Return(existing, nil)

	_, err := svc.Register(context.Background(), &domain.UserCreate{
		Name:     "Shivansh",
		Username: "shivansh",
		Email:    "a@b.com",
		Password: "secret123",
	})

	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterShortPassword(t *testing.T) {
	svc := newTestService(new(MockUserRepository), new(MockTokenRepository))

	_, err := svc.Register(context.Background(), &domain.UserCreate{
		Name:     "X",
		Username: "x",
		Email:    "a@b.com",
		Password: "short",
	})

	assert.Error(t, err)
}

func TestLoginSuccess(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestService(userRepo, new(MockTokenRepository))

	hash, err := password.Hash("secret123")
	require.NoError(t, err)
	user := &domain.User{
		UserID:       uuid.New(),
		Username:     "shivansh",
		Email:        "a@b.com",
		PasswordHash: hash,
	}
	userRepo.On("GetByUsername", mock.Anything, "shivansh").Return(user, nil)

	out, err := svc.Login(context.Background(), &domain.UserLogin{Username: "shivansh", Password: "secret123"})

	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, user.UserID, out.User.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestService(userRepo, new(MockTokenRepository))

	hash, err := password.Hash("secret123")
	require.NoError(t, err)
	user := &domain.User{UserID: uuid.New(), Username: "shivansh", PasswordHash: hash}
	userRepo.On("GetByUsername", mock.Anything, "shivansh").Return(user, nil)

	_, err = svc.Login(context.Background(), &domain.UserLogin{Username: "shivansh", Password: "wrong"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestService(userRepo, new(MockTokenRepository))

	userRepo.On("GetByUsername", mock.Anything, "nobody").Return(nil, cockroach.ErrNotFound)

	_, err := svc.Login(context.Background(), &domain.UserLogin{Username: "nobody", Password: "secret123"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockTokenRepository)
	svc := newTestService(userRepo, tokenRepo)

	manager := jwt.NewManager("test-secret", time.Hour)
	token, err := manager.GenerateToken(uuid.New(), "shivansh", "a@b.com")
	require.NoError(t, err)

	tokenRepo.On("RevokeToken", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), token))
	tokenRepo.AssertExpectations(t)
}

func TestValidateTokenRejectsRevoked(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockTokenRepository)
	svc := newTestService(userRepo, tokenRepo)

	manager := jwt.NewManager("test-secret", time.Hour)
	token, err := manager.GenerateToken(uuid.New(), "shivansh", "a@b.com")
	require.NoError(t, err)

	tokenRepo.On("IsTokenRevoked", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}
