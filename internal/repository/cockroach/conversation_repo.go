package cockroach

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// ConversationRepository handles conversation data operations
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// Create inserts a conversation and its members in one transaction
func (r *ConversationRepository) Create(ctx context.Context, conversation *domain.Conversation, memberIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO conversations (conversation_id, is_group, name, avatar_url, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		conversation.ConversationID,
		conversation.IsGroup,
		conversation.Name,
		conversation.AvatarURL,
		conversation.CreatedBy,
	).Scan(&conversation.CreatedAt, &conversation.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	memberQuery := `
		INSERT INTO conversation_members (conversation_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
	`
	for _, memberID := range memberIDs {
		if _, err := tx.Exec(ctx, memberQuery, conversation.ConversationID, memberID); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT conversation_id, is_group, name, avatar_url, created_by, created_at, updated_at
		FROM conversations
		WHERE conversation_id = $1
	`

	conversation := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ConversationID,
		&conversation.IsGroup,
		&conversation.Name,
		&conversation.AvatarURL,
		&conversation.CreatedBy,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return conversation, nil
}

// GetUserConversations retrieves all conversations a user belongs to, most recent first
func (r *ConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	query := `
		SELECT c.conversation_id, c.is_group, c.name, c.avatar_url, c.created_by, c.created_at, c.updated_at
		FROM conversations c
		INNER JOIN conversation_members cm ON c.conversation_id = cm.conversation_id
		WHERE cm.user_id = $1
		ORDER BY c.updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		conversation := &domain.Conversation{}
		if err := rows.Scan(
			&conversation.ConversationID,
			&conversation.IsGroup,
			&conversation.Name,
			&conversation.AvatarURL,
			&conversation.CreatedBy,
			&conversation.CreatedAt,
			&conversation.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conversation)
	}

	return conversations, nil
}

// FindDirect finds an existing one-to-one conversation between two users
func (r *ConversationRepository) FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT c.conversation_id, c.is_group, c.name, c.avatar_url, c.created_by, c.created_at, c.updated_at
		FROM conversations c
		WHERE c.is_group = false
		  AND EXISTS (SELECT 1 FROM conversation_members WHERE conversation_id = c.conversation_id AND user_id = $1)
		  AND EXISTS (SELECT 1 FROM conversation_members WHERE conversation_id = c.conversation_id AND user_id = $2)
		LIMIT 1
	`

	conversation := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, userA, userB).Scan(
		&conversation.ConversationID,
		&conversation.IsGroup,
		&conversation.Name,
		&conversation.AvatarURL,
		&conversation.CreatedBy,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find direct conversation: %w", err)
	}

	return conversation, nil
}

// GetMembers retrieves member user IDs of a conversation
func (r *ConversationRepository) GetMembers(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM conversation_members
		WHERE conversation_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, userID)
	}

	return members, nil
}

// IsMember reports whether a user belongs to a conversation
func (r *ConversationRepository) IsMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM conversation_members
			WHERE conversation_id = $1 AND user_id = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, conversationID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// Touch bumps a conversation's updated_at so listings sort by recent activity
func (r *ConversationRepository) Touch(ctx context.Context, conversationID uuid.UUID) error {
	query := `UPDATE conversations SET updated_at = NOW() WHERE conversation_id = $1`

	if _, err := r.pool.Exec(ctx, query, conversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return nil
}

// Delete removes a conversation and its memberships
func (r *ConversationRepository) Delete(ctx context.Context, conversationID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM conversation_members WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("failed to delete members: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM conversations WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
