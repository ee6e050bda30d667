package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a chat message entity
// Maps to the Cassandra messages table, bucketed by month
type Message struct {
	MessageID      uuid.UUID `json:"message_id" cql:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id" cql:"conversation_id"`
	Bucket         int       `json:"-" cql:"bucket"`
	SenderID       uuid.UUID `json:"sender_id" cql:"sender_id"`
	ReceiverID     uuid.UUID `json:"receiver_id,omitempty" cql:"receiver_id"` // zero for group messages
	Content        string    `json:"message" cql:"content"`
	AttachmentURL  *string   `json:"attachment,omitempty" cql:"attachment_url"`
	MessageType    string    `json:"message_type" cql:"message_type"` // text, image, video, file
	IsRead         bool      `json:"is_read" cql:"is_read"`
	CreatedAt      time.Time `json:"created_at" cql:"created_at"`
}

// CalculateBucket maps a timestamp to its monthly storage bucket (YYYYMM)
func CalculateBucket(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// MessageCreate represents data needed to send a message
type MessageCreate struct {
	ConversationID uuid.UUID  `json:"conversation_id" binding:"required"`
	ReceiverID     *uuid.UUID `json:"receiver_id,omitempty"`
	Content        string     `json:"message"`
	AttachmentURL  *string    `json:"attachment,omitempty"`
	MessageType    string     `json:"message_type"`
}

// MessageResponse represents a message returned to clients
type MessageResponse struct {
	MessageID      uuid.UUID    `json:"message_id"`
	ConversationID uuid.UUID    `json:"conversation_id"`
	Sender         *UserSummary `json:"sender,omitempty"`
	SenderID       uuid.UUID    `json:"sender_id"`
	Content        string       `json:"message"`
	AttachmentURL  *string      `json:"attachment,omitempty"`
	MessageType    string       `json:"message_type"`
	IsRead         bool         `json:"is_read"`
	CreatedAt      time.Time    `json:"created_at"`
}

// MessagePage is a cursor-paginated slice of message history
type MessagePage struct {
	Messages   []*MessageResponse `json:"messages"`
	NextCursor string             `json:"next_cursor,omitempty"`
	HasMore    bool               `json:"has_more"`
}

// MessagesReadEvent notifies conversation members that messages were read
type MessagesReadEvent struct {
	MessageIDs     []uuid.UUID `json:"message_ids"`
	ReaderID       uuid.UUID   `json:"reader_id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
}
