package status

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/constants"
	"github.com/Shivansh47201/vartalap/pkg/sanitize"
)

// StatusRepository interface
type StatusRepository interface {
	Create(ctx context.Context, status *domain.Status) error
	ListActive(ctx context.Context) ([]*domain.Status, error)
	Delete(ctx context.Context, statusID, userID uuid.UUID) error
}

// UserRepository interface for author display info
type UserRepository interface {
	GetSummaries(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserSummary, error)
}

// Service handles ephemeral status posts
type Service struct {
	statusRepo StatusRepository
	userRepo   UserRepository
}

// NewService creates a new status service
func NewService(statusRepo StatusRepository, userRepo UserRepository) *Service {
	return &Service{statusRepo: statusRepo, userRepo: userRepo}
}

// Publish creates a status post that expires after the standard window
func (s *Service) Publish(ctx context.Context, userID uuid.UUID, input *domain.StatusCreate) (*domain.StatusResponse, error) {
	text := input.Text
	if text != nil {
		clean := sanitize.Text(*text)
		text = &clean
	}
	hasText := text != nil && *text != ""
	if !hasText && input.MediaURL == nil {
		return nil, fmt.Errorf("status must have text or media")
	}

	now := time.Now()
	status := &domain.Status{
		StatusID:  uuid.New(),
		UserID:    userID,
		Text:      text,
		MediaURL:  input.MediaURL,
		MediaType: input.MediaType,
		CreatedAt: now,
		ExpiresAt: now.Add(constants.StatusExpiry),
	}

	if err := s.statusRepo.Create(ctx, status); err != nil {
		return nil, fmt.Errorf("failed to publish status: %w", err)
	}

	summaries, err := s.userRepo.GetSummaries(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve author: %w", err)
	}

	return toResponse(status, summaries[userID]), nil
}

// List returns all non-expired statuses with authors resolved
func (s *Service) List(ctx context.Context) ([]*domain.StatusResponse, error) {
	statuses, err := s.statusRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}

	idSet := make(map[uuid.UUID]bool)
	for _, st := range statuses {
		idSet[st.UserID] = true
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	summaries, err := s.userRepo.GetSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authors: %w", err)
	}

	out := make([]*domain.StatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, toResponse(st, summaries[st.UserID]))
	}
	return out, nil
}

// Delete removes the user's own status post
func (s *Service) Delete(ctx context.Context, statusID, userID uuid.UUID) error {
	if err := s.statusRepo.Delete(ctx, statusID, userID); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	return nil
}

func toResponse(st *domain.Status, author *domain.UserSummary) *domain.StatusResponse {
	return &domain.StatusResponse{
		StatusID:  st.StatusID,
		Author:    author,
		Text:      st.Text,
		MediaURL:  st.MediaURL,
		MediaType: st.MediaType,
		CreatedAt: st.CreatedAt,
		ExpiresAt: st.ExpiresAt,
	}
}
