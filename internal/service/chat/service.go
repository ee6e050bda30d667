package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/constants"
	"github.com/Shivansh47201/vartalap/pkg/sanitize"
)

// Service errors
var (
	ErrNotMember    = errors.New("user is not a member of this conversation")
	ErrEmptyMessage = errors.New("message must have content or an attachment")
)

// MessageRepository interface
type MessageRepository interface {
	Save(message *domain.Message) error
	GetByConversation(conversationID uuid.UUID, bucket, limit int, pageState []byte) ([]*domain.Message, []byte, error)
	MarkRead(conversationID uuid.UUID, bucket int, messageIDs []uuid.UUID) error
}

// ConversationRepository interface
type ConversationRepository interface {
	IsMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	Touch(ctx context.Context, conversationID uuid.UUID) error
}

// UserRepository interface for sender display info
type UserRepository interface {
	GetSummaries(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserSummary, error)
}

// Notifier pushes realtime events to conversation members. Implemented by
// the WebSocket hub.
type Notifier interface {
	EmitNewMessage(conversationID string, message *domain.MessageResponse)
	EmitMessagesRead(conversationID string, event *domain.MessagesReadEvent)
}

// Service handles sending, listing, and read-marking of messages
type Service struct {
	messageRepo MessageRepository
	convRepo    ConversationRepository
	userRepo    UserRepository
	notifier    Notifier
}

// NewService creates a new chat service
func NewService(messageRepo MessageRepository, convRepo ConversationRepository, userRepo UserRepository, notifier Notifier) *Service {
	return &Service{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// Send stores a message and fans it out to the conversation's room
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, input *domain.MessageCreate) (*domain.MessageResponse, error) {
	content := sanitize.Text(input.Content)
	if content == "" && input.AttachmentURL == nil {
		return nil, ErrEmptyMessage
	}

	member, err := s.convRepo.IsMember(ctx, input.ConversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotMember
	}

	messageType := input.MessageType
	if messageType == "" {
		messageType = "text"
	}

	now := time.Now()
	message := &domain.Message{
		MessageID:      uuid.New(),
		ConversationID: input.ConversationID,
		Bucket:         domain.CalculateBucket(now),
		SenderID:       senderID,
		Content:        content,
		AttachmentURL:  input.AttachmentURL,
		MessageType:    messageType,
		CreatedAt:      now,
	}
	if input.ReceiverID != nil {
		message.ReceiverID = *input.ReceiverID
	}

	if err := s.messageRepo.Save(message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	// bump conversation recency; listing order depends on it but the
	// message itself is already durable
	_ = s.convRepo.Touch(ctx, input.ConversationID)

	response := s.toResponse(ctx, message)
	if s.notifier != nil {
		s.notifier.EmitNewMessage(input.ConversationID.String(), response)
	}

	return response, nil
}

// HistoryInput selects a page of conversation history
type HistoryInput struct {
	ConversationID uuid.UUID
	Limit          int
	Cursor         string
}

// History returns a page of messages, newest first, with an opaque cursor
// for the next page
func (s *Service) History(ctx context.Context, userID uuid.UUID, input *HistoryInput) (*domain.MessagePage, error) {
	member, err := s.convRepo.IsMember(ctx, input.ConversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotMember
	}

	limit := input.Limit
	if limit <= 0 {
		limit = constants.DefaultMessagePageSize
	}
	if limit > constants.MaxMessagePageSize {
		limit = constants.MaxMessagePageSize
	}

	bucket, pageState, err := decodeCursor(input.Cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	if bucket == 0 {
		bucket = domain.CalculateBucket(time.Now())
	}

	messages, nextPageState, err := s.messageRepo.GetByConversation(input.ConversationID, bucket, limit, pageState)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	page := &domain.MessagePage{Messages: make([]*domain.MessageResponse, 0, len(messages))}
	for _, m := range messages {
		page.Messages = append(page.Messages, s.toResponse(ctx, m))
	}

	if len(nextPageState) > 0 {
		page.NextCursor = encodeCursor(bucket, nextPageState)
		page.HasMore = true
	} else if len(messages) == limit {
		// current bucket exhausted, next page starts in the previous month
		page.NextCursor = encodeCursor(previousBucket(bucket), nil)
		page.HasMore = true
	}

	return page, nil
}

// MarkRead flags messages as read and notifies the conversation room
func (s *Service) MarkRead(ctx context.Context, readerID uuid.UUID, conversationID uuid.UUID, messageIDs []uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}

	member, err := s.convRepo.IsMember(ctx, conversationID, readerID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return ErrNotMember
	}

	bucket := domain.CalculateBucket(time.Now())
	if err := s.messageRepo.MarkRead(conversationID, bucket, messageIDs); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}

	if s.notifier != nil {
		s.notifier.EmitMessagesRead(conversationID.String(), &domain.MessagesReadEvent{
			MessageIDs:     messageIDs,
			ReaderID:       readerID,
			ConversationID: conversationID,
		})
	}

	return nil
}

func (s *Service) toResponse(ctx context.Context, m *domain.Message) *domain.MessageResponse {
	resp := &domain.MessageResponse{
		MessageID:      m.MessageID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		AttachmentURL:  m.AttachmentURL,
		MessageType:    m.MessageType,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
	if summaries, err := s.userRepo.GetSummaries(ctx, []uuid.UUID{m.SenderID}); err == nil {
		resp.Sender = summaries[m.SenderID]
	}
	return resp
}

// cursor format: "<bucket>:<base64 page state>"

func encodeCursor(bucket int, pageState []byte) string {
	return strconv.Itoa(bucket) + ":" + base64.RawURLEncoding.EncodeToString(pageState)
}

func decodeCursor(cursor string) (int, []byte, error) {
	if cursor == "" {
		return 0, nil, nil
	}
	parts := strings.SplitN(cursor, ":", 2)
	if len(parts) != 2 {
		return 0, nil, fmt.Errorf("malformed cursor")
	}
	bucket, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, nil, fmt.Errorf("malformed cursor bucket")
	}
	pageState, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return 0, nil, fmt.Errorf("malformed cursor state")
	}
	return bucket, pageState, nil
}

func previousBucket(bucket int) int {
	year, month := bucket/100, bucket%100
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return domain.CalculateBucket(t.AddDate(0, -1, 0))
}
