package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/internal/repository/cockroach"
)

// Service errors
var (
	ErrNotMember = errors.New("user is not a member of this conversation")
)

// ConversationRepository interface
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation, memberIDs []uuid.UUID) error
	GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error)
	FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error)
	GetMembers(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	IsMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	Delete(ctx context.Context, conversationID uuid.UUID) error
}

// UserRepository interface
type UserRepository interface {
	GetSummaries(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserSummary, error)
}

// MessageRepository interface for last-message previews
type MessageRepository interface {
	GetRecent(conversationID uuid.UUID, limit int) ([]*domain.Message, error)
}

// Service handles conversation membership and listing
type Service struct {
	convRepo    ConversationRepository
	userRepo    UserRepository
	messageRepo MessageRepository
}

// NewService creates a new conversation service
func NewService(convRepo ConversationRepository, userRepo UserRepository, messageRepo MessageRepository) *Service {
	return &Service{
		convRepo:    convRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
	}
}

// Create starts a conversation. Direct (two-person) conversations are
// deduplicated: creating one that already exists returns the existing
// conversation.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, input *domain.ConversationCreate) (*domain.ConversationResponse, error) {
	memberIDs := input.MemberIDs
	// creator is always a member
	found := false
	for _, id := range memberIDs {
		if id == creatorID {
			found = true
			break
		}
	}
	if !found {
		memberIDs = append(memberIDs, creatorID)
	}

	if !input.IsGroup {
		if len(memberIDs) != 2 {
			return nil, fmt.Errorf("direct conversation requires exactly two members")
		}
		existing, err := s.convRepo.FindDirect(ctx, memberIDs[0], memberIDs[1])
		if err == nil {
			return s.toResponse(ctx, existing)
		}
		if !errors.Is(err, cockroach.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up conversation: %w", err)
		}
	}

	conv := &domain.Conversation{
		ConversationID: uuid.New(),
		IsGroup:        input.IsGroup,
		Name:           input.Name,
		CreatedBy:      creatorID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.convRepo.Create(ctx, conv, memberIDs); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return s.toResponse(ctx, conv)
}

// List returns the user's conversations, most recently active first,
// with members and last-message previews populated
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationResponse, error) {
	convs, err := s.convRepo.GetUserConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	out := make([]*domain.ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp, err := s.toResponse(ctx, conv)
		if err != nil {
			return nil, err
		}
		if msgs, err := s.messageRepo.GetRecent(conv.ConversationID, 1); err == nil && len(msgs) > 0 {
			resp.LastMessage = messageToResponse(msgs[0])
			resp.HasUnread = !msgs[0].IsRead && msgs[0].SenderID != userID
		}
		out = append(out, resp)
	}

	return out, nil
}

// Get returns one conversation if the requester is a member
func (s *Service) Get(ctx context.Context, conversationID, userID uuid.UUID) (*domain.ConversationResponse, error) {
	member, err := s.convRepo.IsMember(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotMember
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return s.toResponse(ctx, conv)
}

// Delete removes a conversation. Only members may delete.
func (s *Service) Delete(ctx context.Context, conversationID, userID uuid.UUID) error {
	member, err := s.convRepo.IsMember(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return ErrNotMember
	}

	if err := s.convRepo.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *Service) toResponse(ctx context.Context, conv *domain.Conversation) (*domain.ConversationResponse, error) {
	memberIDs, err := s.convRepo.GetMembers(ctx, conv.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	summaries, err := s.userRepo.GetSummaries(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get member profiles: %w", err)
	}

	members := make([]*domain.UserSummary, 0, len(memberIDs))
	for _, id := range memberIDs {
		if summary, ok := summaries[id]; ok {
			members = append(members, summary)
		}
	}

	return &domain.ConversationResponse{
		ConversationID: conv.ConversationID,
		IsGroup:        conv.IsGroup,
		Name:           conv.Name,
		AvatarURL:      conv.AvatarURL,
		Members:        members,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}, nil
}

func messageToResponse(m *domain.Message) *domain.MessageResponse {
	return &domain.MessageResponse{
		MessageID:      m.MessageID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		AttachmentURL:  m.AttachmentURL,
		MessageType:    m.MessageType,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}
