package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation represents conversation metadata
// Maps to the conversations table
type Conversation struct {
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	IsGroup        bool      `json:"is_group" db:"is_group"`
	Name           *string   `json:"name,omitempty" db:"name"` // group chats only
	AvatarURL      *string   `json:"avatar,omitempty" db:"avatar_url"`
	CreatedBy      uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ConversationMember represents a user in a conversation
// Maps to the conversation_members table
type ConversationMember struct {
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt       time.Time `json:"joined_at" db:"joined_at"`
}

// ConversationCreate represents data to create a new conversation
type ConversationCreate struct {
	IsGroup   bool        `json:"is_group"`
	Name      *string     `json:"name,omitempty"`
	MemberIDs []uuid.UUID `json:"member_ids" binding:"required,min=1"`
}

// ConversationResponse is the full conversation data with members
type ConversationResponse struct {
	ConversationID uuid.UUID        `json:"conversation_id"`
	IsGroup        bool             `json:"is_group"`
	Name           *string          `json:"name,omitempty"`
	AvatarURL      *string          `json:"avatar,omitempty"`
	Members        []*UserSummary   `json:"members"`
	LastMessage    *MessageResponse `json:"last_message,omitempty"`
	HasUnread      bool             `json:"has_unread"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
