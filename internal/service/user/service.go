package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/cache"
	"github.com/Shivansh47201/vartalap/pkg/sanitize"
)

// UserRepository interface
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	Search(ctx context.Context, selfID uuid.UUID, term string, limit int) ([]*domain.User, error)
	GetSummaries(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserSummary, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, name string, avatarURL *string) error
}

const (
	searchLimit      = 20
	profileCacheTTL  = 30 * time.Second
	profileCacheSize = 1024
)

// Service handles user lookup and profile operations. Profile reads are
// cached briefly since the client fetches peers' profiles on every
// conversation and call screen.
type Service struct {
	userRepo UserRepository
	profiles *cache.Memory
}

// NewService creates a new user service
func NewService(userRepo UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		profiles: cache.NewMemory(profileCacheTTL, profileCacheSize),
	}
}

// Search finds users matching a name or username fragment, excluding the
// searching user
func (s *Service) Search(ctx context.Context, selfID uuid.UUID, term string) ([]*domain.UserResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*domain.UserResponse{}, nil
	}

	users, err := s.userRepo.Search(ctx, selfID, term, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	out := make([]*domain.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, nil
}

// Get returns one user's public profile
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.UserResponse, error) {
	key := userID.String()
	if cached, ok := s.profiles.Get(key); ok {
		return cached.(*domain.UserResponse), nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	resp := user.ToResponse()
	s.profiles.Set(key, resp, 0)
	return resp, nil
}

// UpdateProfileInput contains the editable profile fields
type UpdateProfileInput struct {
	Name      string
	AvatarURL *string
}

// UpdateProfile changes a user's display name and avatar
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*domain.UserResponse, error) {
	name := sanitize.Text(input.Name)
	if name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, name, input.AvatarURL); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.profiles.Delete(userID.String())
	return s.Get(ctx, userID)
}
